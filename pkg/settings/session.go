package settings

// Session carries the process-wide environment toggles for one supervisor
// run. It is set once at startup and read-only afterwards.
type Session struct {
	// Offline disables every remote lookup and forces anonymous scoping.
	Offline bool
	// InterstitialEnabled turns on the runtime-selection loading page for
	// custom launches.
	InterstitialEnabled bool
}

/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package watcher notifies about edits to build-configuration files.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/orbitlabs/orbit/pkg/logger"
)

// Notifier watches a fixed set of project-relative files and logs when one
// changes. Changes to these files require a dev-server restart, which the
// supervisor cannot do automatically mid-session.
type Notifier struct {
	projectRoot string
	paths       []string
	watcher     *fsnotify.Watcher
	logger      logger.Logger
	done        chan struct{}
	stopOnce    sync.Once
}

func NewNotifier(projectRoot string, paths []string, log logger.Logger) *Notifier {
	return &Notifier{
		projectRoot: projectRoot,
		paths:       paths,
		logger:      log,
		done:        make(chan struct{}),
	}
}

// StartObserving begins watching. Files that do not exist yet are skipped;
// the notifier is an aid, not a guarantee.
func (n *Notifier) StartObserving() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	n.watcher = w

	for _, rel := range n.paths {
		path := filepath.Join(n.projectRoot, rel)
		if err := w.Add(path); err != nil {
			n.logger.Debug().Str("path", path).Err(err).Msg("Skipping unwatchable config file")
		}
	}

	go n.loop()

	return nil
}

func (n *Notifier) loop() {
	for {
		select {
		case <-n.done:
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				n.logger.Warn().
					Str("file", filepath.Base(event.Name)).
					Msg("Build configuration changed, restart the dev server to apply it")
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}

			n.logger.Debug().Err(err).Msg("File watcher error")
		}
	}
}

// Stop ends observation and releases the watcher. Safe to call more than
// once.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.done)

		if n.watcher != nil {
			_ = n.watcher.Close()
		}
	})
}

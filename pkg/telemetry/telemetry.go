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

// Package telemetry records product usage events. Delivery is best-effort:
// a dropped event must never affect the operation that produced it.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/orbitlabs/orbit/pkg/logger"
)

const flushTimeout = 5 * time.Second

// Tracker records named events with optional properties.
type Tracker interface {
	Track(event string, properties map[string]interface{})
}

// NopTracker discards all events.
type NopTracker struct{}

func (NopTracker) Track(_ string, _ map[string]interface{}) {}

// HTTPTracker posts events to a collector endpoint, one goroutine per event.
// Failures are logged at debug level and otherwise ignored.
type HTTPTracker struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPTracker(endpoint string, log logger.Logger) *HTTPTracker {
	return &HTTPTracker{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: flushTimeout},
		logger:     log,
	}
}

func (t *HTTPTracker) Track(event string, properties map[string]interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"event":      event,
		"properties": properties,
		"sentAt":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.logger.Debug().Err(err).Str("event", event).Msg("Failed to encode telemetry event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
		if err != nil {
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			t.logger.Debug().Err(err).Str("event", event).Msg("Failed to deliver telemetry event")
			return
		}

		_ = resp.Body.Close()
	}()
}

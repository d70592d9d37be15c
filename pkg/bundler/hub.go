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

package bundler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orbitlabs/orbit/pkg/logger"
)

const hubWriteTimeout = 5 * time.Second

// message is the frame broadcast to connected runtimes. Known methods are
// "reload", "devMenu" and "sendDevCommand".
type message struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// messageHub fans broadcast messages out to every connected websocket
// client. Delivery per client is independent; a slow or dead client is
// dropped, never waited on.
type messageHub struct {
	upgrader websocket.Upgrader
	logger   logger.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newMessageHub(log logger.Logger) *messageHub {
	return &messageHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log,
		conns:  map[*websocket.Conn]struct{}{},
	}
}

func (h *messageHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain inbound frames so pings are answered and closes are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Broadcast sends the message to every connected client, fire-and-forget.
func (h *messageHub) Broadcast(method string, params map[string]interface{}) {
	msg := message{Method: method, Params: params}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))

		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug().Err(err).Str("method", method).Msg("Dropping unresponsive client")
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *messageHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_ = conn.Close()
	delete(h.conns, conn)
}

func (h *messageHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

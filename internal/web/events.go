package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/inventory/internal/inventory"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// handleEvents streams dataset change notifications as server-sent events.
//
// The first event is always "connected" with the current version. After
// that each "updated" or "deleted" is written as it is published. Idle
// streams get a comment line every heartbeat interval so proxies keep the
// connection open. The stream ends when the client goes away or the service
// closes the subscription.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		logging.FromContext(r.Context()).Error("event stream not supported", "error", err)
		return
	}

	sub := s.service.Subscribe()
	defer s.service.Unsubscribe(sub)

	log := logging.FromContext(r.Context())
	log.Debug("event stream opened", "subscribers", s.service.Subscribers())

	heartbeat := time.NewTicker(s.heartbeatInterval())
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				log.Debug("event stream closed by server")
				return
			}
			if err := writeEvent(w, ev); err != nil {
				log.Debug("event stream write failed", "error", err)
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-r.Context().Done():
			log.Debug("event stream closed by client")
			return
		}
	}
}

func (s *Server) heartbeatInterval() time.Duration {
	if d := s.cfg.Events.HeartbeatInterval; d > 0 {
		return d
	}
	return 25 * time.Second
}

// writeEvent writes ev as a single "data:" frame.
func writeEvent(w http.ResponseWriter, ev inventory.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

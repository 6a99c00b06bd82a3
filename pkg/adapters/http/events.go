package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// diffBuffer bounds the diffs queued for one slow client.
const diffBuffer = 16

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE).
//
// The stream opens with a "snapshot" event carrying the full view, then sends
// one message per committed change holding the JSON diff. The optional
// "watch" query parameter (comma separated: step, status, fields, area_check,
// scheduling, booking) drops diffs touching none of the listed parts.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streaming not supported")
		return
	}

	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	diffs := make(chan *domain.SnapshotDiff, diffBuffer)
	cancel := sess.Subscribe(func(prev, next *domain.Snapshot) {
		d := domain.Diff(prev, next)
		if d == nil {
			return
		}
		select {
		case diffs <- d:
		default:
			s.logger.Warn("SSE client buffer full, dropping diff", "session_id", next.SessionID)
		}
	})
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := json.Marshal(NewSessionView(sess))
	if err != nil {
		s.logger.Error("snapshot encode failed", "err", err)
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", initial)
	flusher.Flush()

	watch := parseWatch(r.URL.Query().Get("watch"))
	s.logger.Debug("SSE client subscribed", "session_id", sess.ID(), "watch", r.URL.Query().Get("watch"))

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "session_id", sess.ID())
			return
		case d := <-diffs:
			if !watch.matches(d) {
				continue
			}
			data, err := json.Marshal(d)
			if err != nil {
				s.logger.Error("diff encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

type watchList map[string]bool

func parseWatch(raw string) watchList {
	if raw == "" {
		return nil
	}
	w := make(watchList)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			w[part] = true
		}
	}
	return w
}

func (w watchList) matches(d *domain.SnapshotDiff) bool {
	if len(w) == 0 {
		return true
	}
	return (w["step"] && (d.CurrentStep != nil || d.History != nil)) ||
		(w["status"] && (d.Status != nil || d.SubmitError != nil)) ||
		(w["fields"] && len(d.Fields) > 0) ||
		(w["area_check"] && d.AreaCheck != nil) ||
		(w["scheduling"] && d.Scheduling != nil) ||
		(w["booking"] && d.BookingID != nil)
}

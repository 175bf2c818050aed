package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Event names on a job stream
const (
	eventStatus   = "status"
	eventComplete = "complete"
	eventError    = "error"
)

// streamRetry is the reconnect delay suggested to clients
const streamRetry = 2 * time.Second

// CompleteEvent is the final event of a job stream
type CompleteEvent struct {
	JobID  string          `json:"job_id"`
	Status types.JobStatus `json:"status"`
}

// jobStream writes a job's server-sent events. Each event carries an
// increasing id so a reconnecting client can tell where it left off.
type jobStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

func newJobStream(w http.ResponseWriter) (*jobStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &jobStream{w: w, flusher: flusher}
	if _, err := fmt.Fprintf(w, "retry: %d\n\n", streamRetry.Milliseconds()); err != nil {
		return nil, err
	}
	flusher.Flush()
	return s, nil
}

func (s *jobStream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// heartbeat keeps idle proxies from closing the connection
func (s *jobStream) heartbeat() error {
	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *jobStream) complete(jobID string, status types.JobStatus) error {
	return s.send(eventComplete, CompleteEvent{JobID: jobID, Status: status})
}

func (s *jobStream) fail(err error) error {
	return s.send(eventError, errorBody(err))
}

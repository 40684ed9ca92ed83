// Package recorder keeps the client's durable list of finalized sessions and
// mirrors each new record to the backend.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"pomotrack/internal/logging"
	"pomotrack/internal/session"
)

// SessionsKey is the local store key holding the JSON encoded session list.
const SessionsKey = "sessions"

// KV is the local persistence the recorder writes through.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Forwarder sends a record to the external store.
type Forwarder interface {
	CreateSession(ctx context.Context, rec session.Record) (session.Record, error)
}

type Options struct {
	// ForwardTimeout bounds each forwarding call. Defaults to 10s.
	ForwardTimeout time.Duration
}

// Recorder appends records to the local list and forwards them once, in the
// background. Forwarding failures are logged and dropped.
type Recorder struct {
	store   KV
	forward Forwarder
	timeout time.Duration
	log     *logrus.Entry

	mu      sync.Mutex
	records []session.Record

	inflight conc.WaitGroup
}

// New reads the local list once. A corrupt list is logged and replaced by an
// empty one. forwarder may be nil for offline use.
func New(store KV, forwarder Forwarder, opts Options) *Recorder {
	if opts.ForwardTimeout <= 0 {
		opts.ForwardTimeout = 10 * time.Second
	}
	r := &Recorder{
		store:   store,
		forward: forwarder,
		timeout: opts.ForwardTimeout,
		log:     logging.NewLogger("recorder"),
		records: []session.Record{},
	}

	if raw, ok := store.Get(SessionsKey); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.records); err != nil {
			r.log.WithError(err).Warn("Discarding unreadable local session list")
			r.records = []session.Record{}
		}
	}
	r.log.WithField("count", len(r.records)).Debug("Loaded local sessions")
	return r
}

// Record appends rec to the local list, rewrites the list, and starts one
// forwarding attempt. The returned error only reflects the local write.
func (r *Recorder) Record(rec session.Record) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	err := r.persist()
	r.mu.Unlock()

	if r.forward != nil {
		r.inflight.Go(func() { r.send(rec) })
	}
	if err != nil {
		return fmt.Errorf("save local sessions: %w", err)
	}
	return nil
}

// Records returns a copy of the local list, oldest first.
func (r *Recorder) Records() []session.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.Record, len(r.records))
	copy(out, r.records)
	return out
}

// Clear empties the local list. Records already in the external store are kept.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = []session.Record{}
	if err := r.store.Delete(SessionsKey); err != nil {
		return fmt.Errorf("clear local sessions: %w", err)
	}
	return nil
}

// Wait blocks until every in-flight forward has finished.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}

func (r *Recorder) send(rec session.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	stored, err := r.forward.CreateSession(ctx, rec)
	if err != nil {
		r.log.WithError(err).WithField("date", rec.Date).Warn("Failed to forward session")
		return
	}
	r.log.WithField("id", stored.ID).Debug("Session forwarded")
}

func (r *Recorder) persist() error {
	raw, err := json.Marshal(r.records)
	if err != nil {
		return err
	}
	return r.store.Set(SessionsKey, string(raw))
}

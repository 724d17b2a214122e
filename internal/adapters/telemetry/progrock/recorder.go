// Package progrock records bootstrap events as Progrock vertices and mirrors them to the logger.
package progrock

import (
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
)

var _ ports.EventSink = (*Recorder)(nil)

// Recorder implements ports.EventSink. Every state of every package becomes one vertex.
type Recorder struct {
	w      progrock.Writer
	rec    *progrock.Recorder
	logger ports.Logger

	mu     sync.Mutex
	phases map[string]*phase
}

// New creates a new Recorder with a default tape.
func New(logger ports.Logger) *Recorder {
	return NewRecorder(progrock.NewTape(), logger)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer, logger ports.Logger) *Recorder {
	return &Recorder{
		w:      w,
		rec:    progrock.NewRecorder(w),
		logger: logger,
		phases: make(map[string]*phase),
	}
}

// Emit records ev.
func (r *Recorder) Emit(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.phases[ev.Package]

	switch ev.Kind {
	case domain.EventState:
		if current != nil {
			current.finish(nil)
		}
		r.logger.Info(stateMessage(ev))
		if ev.State == domain.StateReady {
			delete(r.phases, ev.Package)
			return
		}
		name := ev.Package + ": " + ev.State.String()
		next := &phase{vertex: r.rec.Vertex(digest.FromString(name), name)}
		if ev.State == domain.StateUsingInstalled || ev.State == domain.StateUsingLocal {
			next.vertex.Cached()
		}
		r.phases[ev.Package] = next

	case domain.EventProgress:
		if current != nil {
			current.progress(ev)
		}

	case domain.EventWarning:
		msg := ev.Package + ": " + ev.Message
		if ev.Err != nil {
			msg += ": " + ev.Err.Error()
		}
		r.logger.Warn(msg)
		if current != nil {
			current.warn(msg)
		}

	case domain.EventFailed:
		if current != nil {
			current.finish(ev.Err)
			delete(r.phases, ev.Package)
		}
	}
}

// Close completes open vertices and flushes the writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	for pkg, p := range r.phases {
		p.finish(nil)
		delete(r.phases, pkg)
	}
	r.mu.Unlock()

	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func stateMessage(ev domain.Event) string {
	msg := fmt.Sprintf("%s: %s", ev.Package, ev.State)
	if !ev.Version.IsZero() {
		msg += " " + ev.Version.String()
		if ev.Version.Location != "" {
			msg += " (" + ev.Version.Location + ")"
		}
	}
	return msg
}

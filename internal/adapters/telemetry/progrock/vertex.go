package progrock

import (
	"fmt"

	"github.com/vito/progrock"
	"go.trai.ch/igniter/internal/core/domain"
)

// phase wraps the vertex of one bootstrap state.
type phase struct {
	vertex *progrock.VertexRecorder
	done   bool
}

func (p *phase) progress(ev domain.Event) {
	if ev.Total > 0 {
		_, _ = fmt.Fprintf(p.vertex.Stdout(), "%s %d/%d\n", ev.Message, ev.Done, ev.Total)
		return
	}
	_, _ = fmt.Fprintf(p.vertex.Stdout(), "%s %d\n", ev.Message, ev.Done)
}

func (p *phase) warn(msg string) {
	_, _ = fmt.Fprintln(p.vertex.Stderr(), msg)
}

func (p *phase) finish(err error) {
	if p.done {
		return
	}
	p.done = true
	p.vertex.Done(err)
}

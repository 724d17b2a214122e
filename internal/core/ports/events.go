package ports

import "go.trai.ch/igniter/internal/core/domain"

// EventSink receives bootstrap progress.
// Emit is called synchronously from the bootstrap worker; implementations must be safe
// for the goroutine the shell runs the bootstrap on.
//
//go:generate mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks
type EventSink interface {
	Emit(event domain.Event)
}

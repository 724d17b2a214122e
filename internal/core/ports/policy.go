package ports

import (
	"context"

	"go.trai.ch/igniter/internal/core/domain"
)

// PolicyStore reads the studio policy document from one backend.
//
//go:generate mockgen -source=policy.go -destination=mocks/mock_policy.go -package=mocks
type PolicyStore interface {
	// Load returns the policy document. domain.ErrPolicyNotFound signals a missing document.
	Load(ctx context.Context) (*domain.Policy, error)

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// PolicyGateway resolves environment and policy into one record.
type PolicyGateway interface {
	// Load never fails because the store is unreachable; it reports NoPolicy instead.
	// It fails only for invalid version strings.
	Load(ctx context.Context) (*domain.PolicyRecord, error)
}

package fetch

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fetcher = (*BreakerFetcher)(nil)

// tripThreshold is the number of consecutive failures that opens a host's breaker.
const tripThreshold = 5

// BreakerFetcher wraps a Fetcher with one circuit breaker per host.
// A missing artifact does not count as a failure.
type BreakerFetcher struct {
	fetcher  *Fetcher
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewBreakerFetcher creates a new circuit breaker wrapper for a fetcher.
func NewBreakerFetcher(f *Fetcher) *BreakerFetcher {
	return &BreakerFetcher{
		fetcher:  f,
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (b *BreakerFetcher) breaker(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, ok := b.breakers[host]; ok {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(tripThreshold),
	})
	b.breakers[host] = breaker
	return breaker
}

func (b *BreakerFetcher) call(rawURL string, op func() error) error {
	host := hostOf(rawURL)
	breaker := b.breaker(host)
	if !breaker.Ready() {
		return zerr.With(zerr.Wrap(domain.ErrUpstreamDown, "circuit breaker open"), "host", host)
	}

	var notFound error
	err := breaker.Call(func() error {
		err := op()
		if errors.Is(err, domain.ErrArtifactNotFound) {
			notFound = err
			return nil
		}
		return err
	}, 0)
	if notFound != nil {
		return notFound
	}
	return err
}

// Fetch wraps the underlying Fetch with circuit breaker logic.
func (b *BreakerFetcher) Fetch(ctx context.Context, url string) (*ports.Artifact, error) {
	var artifact *ports.Artifact
	err := b.call(url, func() error {
		var err error
		artifact, err = b.fetcher.Fetch(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// Head wraps the underlying Head with circuit breaker logic.
func (b *BreakerFetcher) Head(ctx context.Context, url string) (ports.ArtifactInfo, error) {
	var info ports.ArtifactInfo
	err := b.call(url, func() error {
		var err error
		info, err = b.fetcher.Head(ctx, url)
		return err
	})
	return info, err
}

// Index wraps the underlying Index with circuit breaker logic.
func (b *BreakerFetcher) Index(ctx context.Context, url string) ([]string, error) {
	var links []string
	err := b.call(url, func() error {
		var err error
		links, err = b.fetcher.Index(ctx, url)
		return err
	})
	return links, err
}

// breakerStates reports "open" or "closed" per host.
func (b *BreakerFetcher) breakerStates() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

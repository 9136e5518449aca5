package request

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"staticnews/pkg/config"
)

// ProviderBackoff manages exponential backoff per provider. The render
// loop consults it before attempting a provider so a flapping service is
// skipped instead of slowing the chain down.
type ProviderBackoff struct {
	mu        sync.RWMutex
	providers map[string]*backoffState
	baseDelay time.Duration
	maxDelay  time.Duration
}

type backoffState struct {
	failureCount int
	nextAllowed  time.Time
}

// NewProviderBackoff creates a backoff manager from config.
func NewProviderBackoff(cfg config.BackoffConfig) *ProviderBackoff {
	base := cfg.BaseDelay.Std()
	if base <= 0 {
		base = time.Second
	}
	maxd := cfg.MaxDelay.Std()
	if maxd < base {
		maxd = 10 * base
	}
	return &ProviderBackoff{
		providers: make(map[string]*backoffState),
		baseDelay: base,
		maxDelay:  maxd,
	}
}

// Allowed reports whether the provider may be attempted now. Unlike a
// blocking wait, a denied provider is simply skipped by the caller.
func (b *ProviderBackoff) Allowed(provider string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state, exists := b.providers[provider]
	if !exists {
		return true
	}
	return !time.Now().Before(state.nextAllowed)
}

// RecordFailure increases the backoff delay for a provider.
func (b *ProviderBackoff) RecordFailure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, exists := b.providers[provider]
	if !exists {
		state = &backoffState{}
		b.providers[provider] = state
	}

	state.failureCount++
	state.nextAllowed = time.Now().Add(b.calculateDelay(state.failureCount))
}

// RecordSuccess decreases the backoff delay (gradual recovery).
func (b *ProviderBackoff) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, exists := b.providers[provider]
	if !exists {
		return
	}

	if state.failureCount > 0 {
		state.failureCount--
	}
	if state.failureCount == 0 {
		state.nextAllowed = time.Time{}
	}
}

// GetState returns the failure count and next allowed time for a provider.
func (b *ProviderBackoff) GetState(provider string) (int, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state, exists := b.providers[provider]
	if !exists {
		return 0, time.Time{}
	}
	return state.failureCount, state.nextAllowed
}

// calculateDelay returns exponential delay with jitter.
func (b *ProviderBackoff) calculateDelay(failures int) time.Duration {
	multiplier := math.Pow(2, float64(failures-1))
	delay := time.Duration(float64(b.baseDelay) * multiplier)

	if delay > b.maxDelay {
		delay = b.maxDelay
	}

	// 10% jitter keeps synchronized retries apart
	jitter := time.Duration(rand.Float64() * 0.1 * float64(delay))
	return delay + jitter
}

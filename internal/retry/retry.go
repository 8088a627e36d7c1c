// Package retry wraps providers with opt-in retries and rate limiting.
// The zero Policy performs exactly one attempt with no limiter.
package retry

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloo-solutions/stylechat/internal/domain"
	"github.com/cloo-solutions/stylechat/internal/service"
	"golang.org/x/time/rate"
)

// Policy configures retry and rate limiting for outbound provider calls.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// RatePerSecond of zero disables rate limiting.
	RatePerSecond float64
	Burst         int
}

// Enabled reports whether the policy changes anything over a plain call.
func (p Policy) Enabled() bool {
	return p.MaxRetries > 0 || p.RatePerSecond > 0
}

func (p Policy) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(p.MaxRetries, 0))), ctx)
}

func (p Policy) newLimiter() *rate.Limiter {
	if p.RatePerSecond <= 0 {
		return nil
	}
	burst := p.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(p.RatePerSecond), burst)
}

// Do runs op under the policy. Context and validation errors are never
// retried.
func Do[T any](ctx context.Context, p Policy, limiter *rate.Limiter, name string, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				var zero T
				return zero, backoff.Permanent(err)
			}
		}
		v, err := op(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, p.newBackOff(ctx), func(err error, wait time.Duration) {
		log.Printf("%s attempt %d failed, retrying in %v: %v", name, attempt, wait, err)
	})
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var de *domain.DomainError
	if errors.As(err, &de) && de.Code == domain.ErrCodeValidation {
		return false
	}
	return true
}

// Embedder decorates an embedding provider with a policy.
type Embedder struct {
	next    service.EmbeddingProvider
	policy  Policy
	limiter *rate.Limiter
}

func NewEmbedder(next service.EmbeddingProvider, p Policy) *Embedder {
	return &Embedder{next: next, policy: p, limiter: p.newLimiter()}
}

func (e *Embedder) ModelName() string {
	return e.next.ModelName()
}

func (e *Embedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return Do(ctx, e.policy, e.limiter, "embedding", func(ctx context.Context) ([]float32, error) {
		return e.next.GenerateEmbedding(ctx, text)
	})
}

// Chat decorates a chat provider with a policy.
type Chat struct {
	next    service.ChatProvider
	policy  Policy
	limiter *rate.Limiter
}

func NewChat(next service.ChatProvider, p Policy) *Chat {
	return &Chat{next: next, policy: p, limiter: p.newLimiter()}
}

func (c *Chat) ModelName() string {
	return c.next.ModelName()
}

func (c *Chat) GenerateReply(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	return Do(ctx, c.policy, c.limiter, "chat", func(ctx context.Context) (domain.Message, error) {
		return c.next.GenerateReply(ctx, messages)
	})
}

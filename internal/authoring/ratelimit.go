package authoring

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimit limits request rate with a token bucket. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Author) Author {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next    Author
	limiter *rate.Limiter
}

func (r *rateLimited) Name() string { return r.next.Name() }

func (r *rateLimited) Write(ctx context.Context, req Request) (Draft, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Draft{}, err
	}
	return r.next.Write(ctx, req)
}

package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/web"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests with a 429 once the rate of requests goes
// above perSecond with room for a burst. A perSecond of zero or less
// turns the limit off.
func RateLimit(perSecond float64, burst int) web.Middleware {
	if perSecond <= 0 {
		return nil
	}

	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !limiter.Allow() {
				return errs.NewTrusted(errors.New("too many requests"), http.StatusTooManyRequests)
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

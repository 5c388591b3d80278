package client

import (
	"context"
	"errors"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/handlers"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/idempotency"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/simulator"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/validation"
)

// TestEndToEnd_TerminalConvergence drives the real client against the real
// server wiring with randomized outcomes scaled down to test speed. Every
// submission must reach a terminal state in bounded time: success, or a
// retries-exhausted error after repeated transient failures.
func TestEndToEnd_TerminalConvergence(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rng := rand.New(rand.NewSource(7))
	sim := simulator.New(idempotency.NewMemoryStore(),
		simulator.WithDecider(simulator.RandomDecider(rng)),
		simulator.WithDelayFunc(simulator.UniformDelay(rng, 20*time.Millisecond, 50*time.Millisecond)),
		simulator.WithRetryAfter(5*time.Millisecond),
	)

	r := gin.New()
	handlers.RegisterRoutes(r, handlers.HandlerConfig{Simulator: sim})
	srv := httptest.NewServer(r)
	defer srv.Close()

	poller := NewStatusPoller(srv.URL, PollerConfig{
		Interval:       10 * time.Millisecond,
		MaxInitialWait: 20 * time.Millisecond,
	})
	c := NewClient(srv.URL,
		WithBaseDelay(5*time.Millisecond),
		WithPoller(poller),
	)

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		res, err := c.Submit(ctx, validation.FormInput{Email: "a@b.com", Amount: "10"})
		cancel()

		switch {
		case err == nil:
			if res.State != StateSuccess || res.RequestID == "" {
				t.Fatalf("run %d: malformed success result %+v", i, res)
			}
		case errors.Is(err, ErrRetriesExhausted):
			if res.State != StateError || res.Retries != DefaultMaxRetries {
				t.Fatalf("run %d: malformed exhaustion result %+v", i, res)
			}
		default:
			t.Fatalf("run %d: unexpected terminal error: %v", i, err)
		}

		if !c.State().Terminal() {
			t.Fatalf("run %d: non-terminal state %v after Submit returned", i, c.State())
		}
		c.Reset()
	}
}

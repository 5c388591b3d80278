package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Poller tuning: first query waits min(estimatedDelay/2, MaxInitialWait) so a
// known-slow completion isn't hammered immediately, then one query per
// Interval for ceil(estimatedDelay/Interval) + ExtraPolls attempts.
const (
	DefaultPollInterval   = 1000 * time.Millisecond
	DefaultMaxInitialWait = 3000 * time.Millisecond
	DefaultExtraPolls     = 5
)

// ExhaustionPolicy names what a spent poll budget resolves to when the
// status queries themselves were succeeding but never reported completion.
type ExhaustionPolicy int

const (
	// ExhaustionAssumeSuccess optimistically treats the submission as
	// complete. Inherited fallback behavior: it can mask a real failure,
	// so results flag it via PollResult.Assumed.
	ExhaustionAssumeSuccess ExhaustionPolicy = iota
	// ExhaustionFail surfaces exhaustion as an unverified-status error.
	ExhaustionFail
)

// PollResult is the poller's answer for one delayed submission.
type PollResult struct {
	Status    string
	Timestamp string
	Polls     int
	// Assumed marks a success produced by ExhaustionAssumeSuccess rather
	// than an observed status flip.
	Assumed bool
}

// StatusPoller repeatedly queries a submission's status by request id until
// it observes completion or its poll budget runs out. It only reads state —
// it never re-sends the submission, so it carries no idempotency risk.
type StatusPoller struct {
	baseURL        string
	httpClient     *http.Client
	sleep          SleepFunc
	interval       time.Duration
	maxInitialWait time.Duration
	extraPolls     int
	policy         ExhaustionPolicy
}

// PollerConfig carries optional overrides; zero values take defaults.
type PollerConfig struct {
	HTTPClient     *http.Client
	Sleep          SleepFunc
	Interval       time.Duration
	MaxInitialWait time.Duration
	ExtraPolls     int
	Policy         ExhaustionPolicy
}

// NewStatusPoller returns a poller for the status endpoint at baseURL.
func NewStatusPoller(baseURL string, cfg PollerConfig) *StatusPoller {
	p := &StatusPoller{
		baseURL:        baseURL,
		httpClient:     cfg.HTTPClient,
		sleep:          cfg.Sleep,
		interval:       cfg.Interval,
		maxInitialWait: cfg.MaxInitialWait,
		extraPolls:     cfg.ExtraPolls,
		policy:         cfg.Policy,
	}
	if p.httpClient == nil {
		p.httpClient = http.DefaultClient
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	if p.interval <= 0 {
		p.interval = DefaultPollInterval
	}
	if p.maxInitialWait <= 0 {
		p.maxInitialWait = DefaultMaxInitialWait
	}
	if p.extraPolls <= 0 {
		p.extraPolls = DefaultExtraPolls
	}
	return p
}

// Budget returns the maximum number of status queries for the given
// estimated completion delay.
func (p *StatusPoller) Budget(estimatedDelay time.Duration) int {
	polls := int((estimatedDelay + p.interval - 1) / p.interval)
	return polls + p.extraPolls
}

// Await polls until the submission reports success, the context is canceled,
// or the budget is exhausted and the exhaustion policy decides the outcome.
func (p *StatusPoller) Await(ctx context.Context, requestID string, estimatedDelay time.Duration) (PollResult, error) {
	initial := estimatedDelay / 2
	if initial > p.maxInitialWait {
		initial = p.maxInitialWait
	}
	if err := p.sleep(ctx, initial); err != nil {
		return PollResult{}, err
	}

	budget := p.Budget(estimatedDelay)
	var lastErr error
	for i := 0; i < budget; i++ {
		if i > 0 {
			if err := p.sleep(ctx, p.interval); err != nil {
				return PollResult{}, err
			}
		}

		status, err := p.query(ctx, requestID)
		if err != nil {
			if ctx.Err() != nil {
				return PollResult{}, ctx.Err()
			}
			lastErr = err
			log.Printf("[poller] request=%s poll=%d query failed: %v", requestID, i+1, err)
			continue
		}
		lastErr = nil

		if status.Status == "success" {
			log.Printf("[poller] request=%s confirmed after %d polls", requestID, i+1)
			return PollResult{Status: status.Status, Timestamp: status.Timestamp, Polls: i + 1}, nil
		}
	}

	if lastErr != nil {
		return PollResult{Polls: budget}, fmt.Errorf("%w: %v", ErrStatusUnverified, lastErr)
	}
	if p.policy == ExhaustionAssumeSuccess {
		log.Printf("[poller] request=%s budget spent, assuming success", requestID)
		return PollResult{Status: "success", Polls: budget, Assumed: true}, nil
	}
	return PollResult{Polls: budget}, fmt.Errorf("%w: status never confirmed within %d polls", ErrStatusUnverified, budget)
}

type statusResponse struct {
	RequestID string  `json:"requestId"`
	Status    string  `json:"status"`
	Email     string  `json:"email"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
	Error     string  `json:"error"`
}

func (p *StatusPoller) query(ctx context.Context, requestID string) (statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/status/"+requestID, nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("build status request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return statusResponse{}, fmt.Errorf("send status request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return statusResponse{}, fmt.Errorf("read status response: %w", err)
	}

	var body statusResponse
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK {
		msg := body.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return statusResponse{}, fmt.Errorf("status query returned %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

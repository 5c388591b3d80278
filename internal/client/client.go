package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/identity"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/validation"
)

// requestIDHeader carries the idempotency key on every submit attempt.
const requestIDHeader = "X-Request-ID"

// Retry tuning per the submission protocol: at most 3 retries after the
// initial attempt, with waits of baseDelay * 2^(n-1) before retry n.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000 * time.Millisecond
)

// SleepFunc suspends for d without blocking other client activity and
// returns early with the context error on cancellation.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result is the terminal outcome of one logical submission.
type Result struct {
	State     State
	RequestID string
	Message   string
	Email     string
	Amount    float64
	Timestamp string
	Retries   int
	// Assumed is set when the poll budget ran out without the server
	// confirming completion and the exhaustion policy counted it a success.
	Assumed bool
}

// Client drives one logical submission end-to-end: validate, send, classify
// the response, retry with exponential backoff on transient failures, or
// switch to status polling on delayed acceptance.
//
// Submit and Reset are meant to be driven from a single user-facing
// goroutine; the state value is atomic so observers may read it concurrently
// and so a duplicate Submit is rejected rather than racing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validatorv10.Validate
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
	poller     *StatusPoller

	state  atomic.Int32
	cancel atomic.Value // context.CancelFunc of the in-flight submission
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the transport used for submits and polls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries overrides the transient-failure retry budget.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithBaseDelay overrides the backoff base delay.
func WithBaseDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.baseDelay = d }
}

// WithSleep replaces the suspension primitive, letting tests record and skip
// the backoff and poll waits.
func WithSleep(s SleepFunc) ClientOption {
	return func(c *Client) { c.sleep = s }
}

// WithPoller replaces the status poller.
func WithPoller(p *StatusPoller) ClientOption {
	return func(c *Client) { c.poller = p }
}

// NewClient returns a Client targeting baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		validate:   validation.New(),
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.poller == nil {
		c.poller = NewStatusPoller(baseURL, PollerConfig{
			HTTPClient: c.httpClient,
			Sleep:      c.sleep,
		})
	}
	return c
}

// State returns the current submission state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Reset returns a terminal client to Idle so the next submission is
// logically independent, and cancels a still-running submission so its
// scheduled retries and polls stop affecting observable state.
func (c *Client) Reset() {
	if cancel, ok := c.cancel.Load().(context.CancelFunc); ok && cancel != nil {
		cancel()
	}
	c.state.CompareAndSwap(int32(StateSuccess), int32(StateIdle))
	c.state.CompareAndSwap(int32(StateError), int32(StateIdle))
}

// Submit runs one logical submission to completion and returns its terminal
// result. While a submission is pending or polling, further Submit calls
// return ErrSubmissionInFlight without sending anything.
func (c *Client) Submit(ctx context.Context, in validation.FormInput) (Result, error) {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StatePending)) {
		return Result{State: c.State()}, ErrSubmissionInFlight
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel.Store(cancel)
	defer cancel()

	res, err := c.run(ctx, in)
	c.state.Store(int32(res.State))
	return res, err
}

func (c *Client) run(ctx context.Context, in validation.FormInput) (Result, error) {
	if err := c.validate.Struct(in); err != nil {
		return Result{State: StateError}, &ValidationError{Err: err}
	}
	amount, err := strconv.ParseFloat(in.Amount, 64)
	if err != nil {
		return Result{State: StateError}, &ValidationError{Err: err}
	}

	// One identity per logical submission, reused verbatim by every retry.
	requestID := identity.New(identity.Inputs{Email: in.Email, Amount: amount})
	log.Printf("[client] submitting request=%s", requestID)

	var cause error
	for attempt := 0; ; attempt++ {
		resp, sendErr := c.post(ctx, requestID, in.Email, amount)
		if sendErr != nil {
			if ctx.Err() != nil {
				return Result{State: StateIdle, RequestID: requestID},
					fmt.Errorf("%w: %v", ErrSubmissionCanceled, ctx.Err())
			}
			cause = ErrNetwork
			log.Printf("[client] request=%s attempt=%d network failure: %v", requestID, attempt, sendErr)
		} else {
			switch resp.statusCode {
			case http.StatusOK:
				log.Printf("[client] request=%s succeeded", requestID)
				return Result{
					State:     StateSuccess,
					RequestID: resp.body.RequestID,
					Message:   resp.body.Message,
					Email:     resp.body.Email,
					Amount:    resp.body.Amount,
					Timestamp: resp.body.Timestamp,
					Retries:   attempt,
				}, nil

			case http.StatusAccepted:
				log.Printf("[client] request=%s accepted, polling (estimated %dms)", requestID, resp.body.EstimatedDelay)
				c.state.Store(int32(StatePolling))
				return c.awaitCompletion(ctx, requestID, attempt, resp.body)

			case http.StatusServiceUnavailable:
				cause = ErrServerUnavailable
				log.Printf("[client] request=%s attempt=%d transient failure (retryAfter=%dms)", requestID, attempt, resp.body.RetryAfter)

			default:
				return Result{State: StateError, RequestID: requestID, Retries: attempt},
					&ServerError{StatusCode: resp.statusCode, Message: resp.body.errorMessage()}
			}
		}

		if attempt >= c.maxRetries {
			return Result{State: StateError, RequestID: requestID, Retries: attempt},
				fmt.Errorf("%w after %d retries: %w", ErrRetriesExhausted, attempt, cause)
		}

		// Exponential backoff: baseDelay, 2x, 4x before retries 1, 2, 3.
		wait := c.baseDelay << attempt
		log.Printf("[client] request=%s retrying in %s", requestID, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return Result{State: StateIdle, RequestID: requestID},
				fmt.Errorf("%w: %v", ErrSubmissionCanceled, err)
		}
	}
}

func (c *Client) awaitCompletion(ctx context.Context, requestID string, retries int, accepted submitResponse) (Result, error) {
	estimated := time.Duration(accepted.EstimatedDelay) * time.Millisecond
	poll, err := c.poller.Await(ctx, requestID, estimated)
	if err != nil {
		if ctx.Err() != nil {
			return Result{State: StateIdle, RequestID: requestID},
				fmt.Errorf("%w: %v", ErrSubmissionCanceled, ctx.Err())
		}
		return Result{State: StateError, RequestID: requestID, Retries: retries}, err
	}
	return Result{
		State:     StateSuccess,
		RequestID: requestID,
		Message:   accepted.Message,
		Email:     accepted.Email,
		Amount:    accepted.Amount,
		Timestamp: poll.Timestamp,
		Retries:   retries,
		Assumed:   poll.Assumed,
	}, nil
}

// submitResponse is the superset of the submit endpoint's response bodies.
type submitResponse struct {
	Message        string  `json:"message"`
	Error          string  `json:"error"`
	RequestID      string  `json:"requestId"`
	Email          string  `json:"email"`
	Amount         float64 `json:"amount"`
	Timestamp      string  `json:"timestamp"`
	RetryAfter     int64   `json:"retryAfter"`
	EstimatedDelay int64   `json:"estimatedDelay"`
}

func (r submitResponse) errorMessage() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

type classifiedResponse struct {
	statusCode int
	body       submitResponse
}

func (c *Client) post(ctx context.Context, requestID, email string, amount float64) (classifiedResponse, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":  email,
		"amount": amount,
	})
	if err != nil {
		return classifiedResponse{}, fmt.Errorf("marshal submit body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", bytes.NewReader(payload))
	if err != nil {
		return classifiedResponse{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifiedResponse{}, fmt.Errorf("send submit request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifiedResponse{}, fmt.Errorf("read submit response: %w", err)
	}

	var body submitResponse
	// Non-JSON error bodies still classify by status code alone.
	_ = json.Unmarshal(raw, &body)

	return classifiedResponse{statusCode: resp.StatusCode, body: body}, nil
}

// Package delivery posts a payload to the ingestion endpoint with bounded,
// exponentially backed-off retries.
package delivery

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/and161185/metricspush/internal/errs"
	"github.com/and161185/metricspush/internal/utils"
)

// Engine states.
const (
	StateIdle       = "idle"
	StateAttempting = "attempting"
	StateWaiting    = "waiting"
	StateSucceeded  = "succeeded"
	StateExhausted  = "exhausted"
)

const (
	eventAttempt = "attempt"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventExhaust = "exhaust"
)

// Defaults applied to zero Config fields.
const (
	DefaultMaxRetries  = 5
	DefaultBaseDelay   = time.Second
	DefaultJitterMax   = time.Second
	DefaultTimeout     = 10 * time.Second
	DefaultPreviewSize = 512
)

var ErrNoEndpoint = errors.New("delivery endpoint is required")

// Config describes one delivery target.
type Config struct {
	Endpoint    string        `validate:"omitempty,url"`
	MaxRetries  int           `validate:"gte=1"`
	BaseDelay   time.Duration `validate:"gte=0"`
	JitterMax   time.Duration `validate:"gte=0"`
	Timeout     time.Duration `validate:"gte=0"`
	PreviewSize int           `validate:"gte=0"`
	HashKey     string
	UserAgent   string
	Gzip        bool
	DryRun      bool
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PreviewSize == 0 {
		c.PreviewSize = DefaultPreviewSize
	}
	return c
}

// Result describes the final state of a delivery.
type Result struct {
	RequestID string
	Attempts  int
	Status    int // last observed HTTP status, zero if none
	Header    http.Header
	Preview   string
	DryRun    bool
	State     string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithHTTPClient sends through c. Its transport is wrapped, not replaced.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithJitter replaces the random jitter source.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(e *Engine) { e.jitter = fn }
}

type Engine struct {
	cfg    Config
	log    *zap.SugaredLogger
	client *http.Client
	jitter func(time.Duration) time.Duration
}

var validate = validator.New()

// New validates cfg and builds an engine.
func New(cfg Config, log *zap.SugaredLogger, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("delivery config: %w", err)
	}
	if cfg.Endpoint == "" && !cfg.DryRun {
		return nil, ErrNoEndpoint
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	e := &Engine{cfg: cfg, log: log}
	for _, o := range opts {
		o(e)
	}

	base := &http.Client{Timeout: cfg.Timeout}
	if e.client != nil {
		c := *e.client
		base = &c
	}
	base.Transport = &HeaderRoundTripper{Base: base.Transport, Key: cfg.HashKey, UserAgent: cfg.UserAgent}
	e.client = base
	return e, nil
}

func (e *Engine) newMachine(res *Result) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventAttempt, Src: []string{StateIdle, StateWaiting}, Dst: StateAttempting},
			{Name: eventSucceed, Src: []string{StateAttempting}, Dst: StateSucceeded},
			{Name: eventFail, Src: []string{StateAttempting}, Dst: StateWaiting},
			{Name: eventExhaust, Src: []string{StateWaiting}, Dst: StateExhausted},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, ev *fsm.Event) {
				res.State = ev.Dst
				e.log.Debugw("delivery state", "from", ev.Src, "to", ev.Dst, "attempt", res.Attempts, "request_id", res.RequestID)
			},
		},
	)
}

// Deliver posts body until a 2xx response or the retry budget runs out.
// Exhaustion returns *errs.DeliveryError alongside the partial result.
func (e *Engine) Deliver(ctx context.Context, body []byte) (*Result, error) {
	res := &Result{RequestID: uuid.NewString(), State: StateIdle}
	if e.cfg.DryRun {
		res.DryRun = true
		res.State = StateSucceeded
		e.log.Infow("dry run, payload not sent",
			"endpoint", e.cfg.Endpoint, "bytes", len(body), "request_id", res.RequestID)
		return res, nil
	}

	wire, err := e.encode(body)
	if err != nil {
		return res, err
	}

	machine := e.newMachine(res)
	fsmCtx := context.WithoutCancel(ctx)
	// WithMaxRetries treats zero as unlimited, so a single attempt needs StopBackOff.
	var sched backoff.BackOff = &backoff.StopBackOff{}
	if e.cfg.MaxRetries > 1 {
		sched = backoff.WithMaxRetries(newSchedule(e.cfg.BaseDelay, e.cfg.JitterMax, e.jitter), uint64(e.cfg.MaxRetries-1))
	}
	b := backoff.WithContext(sched, ctx)

	op := func() error {
		if err := machine.Event(fsmCtx, eventAttempt); err != nil {
			return backoff.Permanent(err)
		}
		res.Attempts++

		status, header, preview, err := e.send(ctx, wire, res.RequestID)
		if status != 0 {
			res.Status = status
		}
		if err == nil && status >= 200 && status < 300 {
			res.Header = header
			res.Preview = preview
			if err := machine.Event(fsmCtx, eventSucceed); err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}

		if err != nil {
			e.log.Warnw("delivery attempt failed",
				"attempt", res.Attempts, "max_attempts", e.cfg.MaxRetries,
				"network", utils.IsNetworkError(err), "error", err, "request_id", res.RequestID)
			err = fmt.Errorf("attempt %d: %w", res.Attempts, err)
		} else {
			e.log.Warnw("delivery attempt rejected",
				"attempt", res.Attempts, "max_attempts", e.cfg.MaxRetries,
				"status", status, "body", preview, "request_id", res.RequestID)
			err = fmt.Errorf("attempt %d: unexpected status %d", res.Attempts, status)
		}
		if ferr := machine.Event(fsmCtx, eventFail); ferr != nil {
			return backoff.Permanent(ferr)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(_ error, wait time.Duration) {
		e.log.Infow("retrying delivery", "next_attempt", res.Attempts+1, "wait", wait, "request_id", res.RequestID)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if machine.Is(StateWaiting) {
			_ = machine.Event(fsmCtx, eventExhaust)
		}
		return res, &errs.DeliveryError{Attempts: res.Attempts, LastStatus: res.Status, Err: err}
	}

	e.log.Infow("delivered",
		"attempts", res.Attempts, "status", res.Status, "headers", res.Header, "request_id", res.RequestID)
	return res, nil
}

func (e *Engine) encode(body []byte) ([]byte, error) {
	if !e.cfg.Gzip {
		return body, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// send performs one fresh POST; the request is never reused across attempts.
func (e *Engine) send(ctx context.Context, wire []byte, requestID string) (int, http.Header, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(wire))
	if err != nil {
		return 0, nil, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.Gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()

	preview, err := io.ReadAll(io.LimitReader(resp.Body, int64(e.cfg.PreviewSize)))
	if err != nil {
		return resp.StatusCode, resp.Header, "", fmt.Errorf("read response: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Header, string(preview), nil
}

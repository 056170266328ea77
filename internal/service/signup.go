package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
	"github.com/target/fitmatch-auth/internal/observability/metrics"
	"github.com/target/fitmatch-auth/internal/observability/statsd"
	"github.com/target/fitmatch-auth/internal/ports"
	"golang.org/x/sync/semaphore"
)

// SignupFlowOptions groups dependencies for SignupFlow.
type SignupFlowOptions struct {
	Backend ports.SignupBackend
	Metrics statsd.Sink
	Logger  *slog.Logger
	Now     func() time.Time
}

// SignupFlow runs the two-step email signup: request a code, then verify it.
type SignupFlow struct {
	backend ports.SignupBackend
	metrics statsd.Sink
	logger  *slog.Logger
	now     func() time.Time

	inflight *semaphore.Weighted

	mu        sync.RWMutex
	state     domainauth.SignupState
	email     string
	observers observerSet[domainauth.SignupState]
}

// NewSignupFlow constructs a SignupFlow collecting credentials.
func NewSignupFlow(opts SignupFlowOptions) *SignupFlow {
	if opts.Backend == nil {
		panic("SignupBackend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SignupFlow{
		backend:  opts.Backend,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "signup"),
		now:      now,
		inflight: semaphore.NewWeighted(1),
		state:    domainauth.SignupCollectingCredentials,
	}
}

// State returns the current step.
func (f *SignupFlow) State() domainauth.SignupState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Email returns the address the code was sent to, or "" before RequestCode succeeds.
func (f *SignupFlow) Email() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.email
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (f *SignupFlow) Subscribe(fn func(domainauth.SignupState)) func() {
	return f.observers.add(fn)
}

// RequestCode validates the draft and asks the backend to send a verification
// code. The flow advances only when the backend accepts the request.
func (f *SignupFlow) RequestCode(ctx context.Context, draft domainauth.SignupDraft) (err error) {
	start := f.now()
	defer func() { f.emit("request_code", start, err) }()

	if !f.inflight.TryAcquire(1) {
		return apperrors.Conflict("a signup request is already in progress")
	}
	defer f.inflight.Release(1)

	if state := f.State(); state != domainauth.SignupCollectingCredentials {
		return apperrors.InvalidStatef("cannot request a code in state %s", state)
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	email := draft.NormalizedEmail()
	if err := f.backend.RequestSignup(ctx, email, draft.Password); err != nil {
		f.logger.WarnContext(ctx, "signup request failed", "error", err)
		return err
	}

	f.transition(domainauth.SignupAwaitingVerificationCode, email)
	f.logger.InfoContext(ctx, "verification code requested")
	return nil
}

// VerifyCode submits the emailed code. An empty email falls back to the address
// the code was requested for. On rejection the flow stays awaiting so the user
// can retry.
func (f *SignupFlow) VerifyCode(ctx context.Context, email, code string) (err error) {
	start := f.now()
	defer func() { f.emit("verify_code", start, err) }()

	if !f.inflight.TryAcquire(1) {
		return apperrors.Conflict("a signup request is already in progress")
	}
	defer f.inflight.Release(1)

	if state := f.State(); state != domainauth.SignupAwaitingVerificationCode {
		return apperrors.InvalidStatef("cannot verify a code in state %s", state)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.ValidationField("code", domainauth.MsgCodeRequired)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = f.Email()
	}

	if err := f.backend.VerifySignup(ctx, email, code); err != nil {
		f.logger.WarnContext(ctx, "signup verification failed", "error", err)
		return err
	}

	f.transition(domainauth.SignupVerified, email)
	f.logger.InfoContext(ctx, "signup verified")
	return nil
}

// Back returns from code entry to credential entry, forgetting the email.
func (f *SignupFlow) Back() (err error) {
	start := f.now()
	defer func() { f.emit("back", start, err) }()

	if !f.inflight.TryAcquire(1) {
		return apperrors.Conflict("a signup request is already in progress")
	}
	defer f.inflight.Release(1)

	if state := f.State(); state != domainauth.SignupAwaitingVerificationCode {
		return apperrors.InvalidStatef("cannot go back from state %s", state)
	}
	f.transition(domainauth.SignupCollectingCredentials, "")
	return nil
}

func (f *SignupFlow) transition(to domainauth.SignupState, email string) {
	f.mu.Lock()
	f.state = to
	f.email = email
	f.mu.Unlock()

	f.observers.notify(to)
}

func (f *SignupFlow) emit(op string, start time.Time, err error) {
	result := metrics.ResultSuccess
	switch {
	case apperrors.IsValidation(err) || apperrors.IsConflict(err) || apperrors.IsInvalidState(err):
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultError
	}
	metrics.EmitFlowTransition(f.metrics, metrics.FlowMetric{
		Flow:      metrics.FlowSignup,
		Operation: op,
		Result:    result,
		Duration:  f.now().Sub(start),
		Err:       err,
	})
}

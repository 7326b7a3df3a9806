// Package verify drives the identity-verification flow: a bounded capture
// sequence, one submission to the third-party biometric service, and the
// first-party confirmation that makes the result durable.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
	"github.com/sokoni-app/sokoni_mobile/internal/media"
	"github.com/sokoni-app/sokoni_mobile/internal/verifsvc"
)

// State is the pipeline's position. Accepted, Rejected and Failed are
// terminal; a new run requires a fresh attempt.
type State int

const (
	StateCaptureID State = iota
	StateCaptureSelfie
	StateSubmitting
	StateConfirming
	StateAccepted
	StateRejected
	StateFailed
)

// String names the state for logs.
func (s State) String() string {
	switch s {
	case StateCaptureID:
		return "capture_id"
	case StateCaptureSelfie:
		return "capture_selfie"
	case StateSubmitting:
		return "submitting"
	case StateConfirming:
		return "confirming"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailCause distinguishes the technical faults that can end a run. Failed
// means no judgment was rendered; it is not a rejection.
type FailCause int

const (
	// CauseEncoding: a captured image could not be read or encoded.
	CauseEncoding FailCause = iota
	// CauseService: the verification service call itself failed.
	CauseService
	// CauseConfirmation: the biometric check passed but the backend could
	// not record it. The user should contact support, not re-capture.
	CauseConfirmation
)

// Failure carries the cause of a Failed terminal state.
type Failure struct {
	Cause FailCause
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("verify: %s: %v", f.causeName(), f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) causeName() string {
	switch f.Cause {
	case CauseEncoding:
		return "encoding"
	case CauseService:
		return "service"
	case CauseConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Guidance returns the user-facing instruction for this failure.
func (f *Failure) Guidance() string {
	if f.Cause == CauseConfirmation {
		return "your identity was verified but could not be recorded; please contact support"
	}
	return "something went wrong; please restart verification"
}

// Rejection reasons, derived from the service's warning list. Face mismatch
// wins over blur when both are present: it is the more actionable signal.
const (
	ReasonFaceMismatch = "face does not match ID"
	ReasonImageQuality = "image quality too low"
	ReasonGeneric      = "could not verify identity"
)

const (
	codeFaceMismatch = "FACE_MISMATCH"
	codeImageBlurry  = "IMAGE_TOO_BLURRY"
)

// Transition errors. A refused transition leaves the machine where it was.
var (
	ErrMissingIDCapture = errors.New("verify: both ID sides must be captured")
	ErrMissingSelfie    = errors.New("verify: selfie must be captured")
	ErrInvalidState     = errors.New("verify: operation not allowed in current state")
)

// Submitter is the slice of the verification service the pipeline uses.
type Submitter interface {
	Submit(ctx context.Context, front, back, selfie string) (verifsvc.Outcome, error)
}

// Session is the slice of the session store the pipeline uses after an
// accepted decision.
type Session interface {
	Token() string
	RefreshUser(ctx context.Context)
}

// Pipeline is one verification attempt. It never outlives a single run and
// nothing about it is persisted.
type Pipeline struct {
	mu      sync.Mutex
	state   State
	idFront string
	idBack  string
	selfie  string
	reason  string
	failure *Failure

	encode   func(string) (string, error)
	svc      Submitter
	api      backend.API
	sessions Session
	logger   *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithEncoder overrides the media encoder. Tests use this to avoid touching
// the filesystem.
func WithEncoder(encode func(string) (string, error)) Option {
	return func(p *Pipeline) { p.encode = encode }
}

// New starts a fresh attempt in CaptureID.
func New(svc Submitter, api backend.API, sessions Session, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		state:    StateCaptureID,
		encode:   media.Encode,
		svc:      svc,
		api:      api,
		sessions: sessions,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current position.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RejectionReason returns the user-facing reason, set only in Rejected.
func (p *Pipeline) RejectionReason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}

// Failure returns the cause of a Failed state, nil otherwise.
func (p *Pipeline) Failure() *Failure {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failure
}

// CaptureIDFront records the front of the ID document. Re-capturing
// overwrites the prior value with no side effects.
func (p *Pipeline) CaptureIDFront(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCaptureID {
		return ErrInvalidState
	}
	p.idFront = ref
	return nil
}

// CaptureIDBack records the back of the ID document.
func (p *Pipeline) CaptureIDBack(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCaptureID {
		return ErrInvalidState
	}
	p.idBack = ref
	return nil
}

// AdvanceToSelfie moves to the selfie step. Refused while either ID side is
// missing.
func (p *Pipeline) AdvanceToSelfie() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCaptureID {
		return ErrInvalidState
	}
	if p.idFront == "" || p.idBack == "" {
		return ErrMissingIDCapture
	}
	p.state = StateCaptureSelfie
	return nil
}

// CaptureSelfie records the selfie.
func (p *Pipeline) CaptureSelfie(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCaptureSelfie {
		return ErrInvalidState
	}
	p.selfie = ref
	return nil
}

// BackToID returns to the ID step, discarding the selfie. This is the only
// backward edge in the machine.
func (p *Pipeline) BackToID() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCaptureSelfie {
		return ErrInvalidState
	}
	p.selfie = ""
	p.state = StateCaptureID
	return nil
}

// Abandon discards all capture state before submission. No backend call has
// been made at this point, so nothing needs cleanup; the machine resets to
// a fresh CaptureID attempt.
func (p *Pipeline) Abandon() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCaptureID && p.state != StateCaptureSelfie {
		return ErrInvalidState
	}
	p.idFront, p.idBack, p.selfie = "", "", ""
	p.state = StateCaptureID
	return nil
}

// Submit runs the irreversible half of the flow: encode the three captures,
// submit them, interpret the decision and confirm an acceptance with the
// backend. Preconditions are returned as errors; everything after the
// transition into Submitting is recorded in the terminal state instead,
// since by then there is meaningful attempt state the caller may inspect.
// Once begun the step runs to completion; there is no cancellation contract
// with the verification service.
func (p *Pipeline) Submit(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateCaptureSelfie {
		p.mu.Unlock()
		return ErrInvalidState
	}
	if p.selfie == "" {
		p.mu.Unlock()
		return ErrMissingSelfie
	}
	p.state = StateSubmitting
	front, back, selfie := p.idFront, p.idBack, p.selfie
	p.mu.Unlock()

	encodedFront, err := p.encode(front)
	if err != nil {
		p.fail(CauseEncoding, err)
		return nil
	}
	encodedBack, err := p.encode(back)
	if err != nil {
		p.fail(CauseEncoding, err)
		return nil
	}
	encodedSelfie, err := p.encode(selfie)
	if err != nil {
		p.fail(CauseEncoding, err)
		return nil
	}

	outcome, err := p.svc.Submit(ctx, encodedFront, encodedBack, encodedSelfie)
	if err != nil {
		p.fail(CauseService, err)
		return nil
	}

	switch outcome.Decision {
	case verifsvc.DecisionAccept:
		p.confirm(ctx)
	default:
		reason := reasonFromWarnings(outcome.Warnings)
		p.logger.Info("verification rejected", "decision", outcome.Decision.String(), "reason", reason)
		p.mu.Lock()
		p.reason = reason
		p.state = StateRejected
		p.mu.Unlock()
	}
	return nil
}

// RetryConfirmation re-runs only the first-party confirmation step after a
// CauseConfirmation failure. The third-party service is never re-invoked,
// so the retry cannot duplicate a biometric submission.
func (p *Pipeline) RetryConfirmation(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateFailed || p.failure == nil || p.failure.Cause != CauseConfirmation {
		p.mu.Unlock()
		return ErrInvalidState
	}
	p.failure = nil
	p.mu.Unlock()

	p.confirm(ctx)
	return nil
}

// confirm records the accepted decision server-side, then refreshes the
// session so the authoritative identityVerified flag lands locally. The
// flag is never set optimistically here.
func (p *Pipeline) confirm(ctx context.Context) {
	p.mu.Lock()
	p.state = StateConfirming
	p.mu.Unlock()

	if err := p.api.VerifyIdentity(ctx, p.sessions.Token()); err != nil {
		p.fail(CauseConfirmation, err)
		return
	}

	p.sessions.RefreshUser(ctx)

	p.mu.Lock()
	p.state = StateAccepted
	p.mu.Unlock()
}

func (p *Pipeline) fail(cause FailCause, err error) {
	failure := &Failure{Cause: cause, Err: err}
	p.logger.Warn("verification failed", "cause", failure.causeName(), "error", err)

	p.mu.Lock()
	p.failure = failure
	p.state = StateFailed
	p.mu.Unlock()
}

// reasonFromWarnings maps the warning list to a user-facing reason. The
// precedence is fixed: face mismatch over blur over the generic reason.
func reasonFromWarnings(warnings []verifsvc.Warning) string {
	blurry := false
	for _, w := range warnings {
		switch w.Code {
		case codeFaceMismatch:
			return ReasonFaceMismatch
		case codeImageBlurry:
			blurry = true
		}
	}
	if blurry {
		return ReasonImageQuality
	}
	return ReasonGeneric
}

// File: internal/usecase/confirmation_uc.go
package usecase

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creator-checkout/internal/domain"
	"creator-checkout/internal/domain/model"
	"creator-checkout/internal/domain/ports/adapter"
	"creator-checkout/internal/domain/ports/repository"
	"creator-checkout/internal/infra/logging"
	"creator-checkout/internal/infra/metrics"
)

// Compile-time check
var _ ConfirmationUseCase = (*confirmationUC)(nil)

// ConfirmationUseCase drives a payment redirect-back through validation,
// backend confirmation and provisioning. It never returns an error: the
// outcome, including failures, is the returned state.
type ConfirmationUseCase interface {
	// Confirm parses the provider's redirect query and confirms it.
	Confirm(ctx context.Context, scope string, s model.Session, q url.Values) model.ConfirmationState
	// ConfirmCallback confirms an already-built callback.
	ConfirmCallback(ctx context.Context, scope string, s model.Session, cb model.PaymentCallback) model.ConfirmationState
}

// Observer receives every state a confirmation attempt passes through.
type Observer func(model.ConfirmationState)

type observerKey struct{}

// WithObserver attaches fn to ctx. Reports stop once ctx is done.
func WithObserver(ctx context.Context, fn Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, fn)
}

func observerFrom(ctx context.Context) Observer {
	fn, _ := ctx.Value(observerKey{}).(Observer)
	return fn
}

// ConfirmationOptions tune the coordinator. Locker is optional.
type ConfirmationOptions struct {
	Locker         adapter.Locker
	ConfirmTimeout time.Duration
	LockTTL        time.Duration
	Dev            bool
}

type confirmationUC struct {
	ledger      repository.DedupLedger
	backend     adapter.Backend
	provisioner ProvisioningUseCase
	locker      adapter.Locker
	opts        ConfirmationOptions
	log         *zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewConfirmationUseCase(
	ledger repository.DedupLedger,
	backend adapter.Backend,
	provisioner ProvisioningUseCase,
	opts ConfirmationOptions,
	logger *zerolog.Logger,
) *confirmationUC {
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.ConfirmTimeout + 10*time.Second
	}
	return &confirmationUC{
		ledger:      ledger,
		backend:     backend,
		provisioner: provisioner,
		locker:      opts.Locker,
		opts:        opts,
		log:         logger,
		inflight:    make(map[string]struct{}),
	}
}

func (u *confirmationUC) Confirm(ctx context.Context, scope string, s model.Session, q url.Values) model.ConfirmationState {
	a := u.begin(ctx)
	cb, err := model.ParseCallback(q)
	if err != nil {
		metrics.IncConfirm("invalid")
		a.log.Info().Err(err).Msg("rejecting malformed payment callback")
		return a.fail(err)
	}
	return u.run(a, scope, s, cb)
}

func (u *confirmationUC) ConfirmCallback(ctx context.Context, scope string, s model.Session, cb model.PaymentCallback) model.ConfirmationState {
	a := u.begin(ctx)
	if err := cb.Validate(); err != nil {
		metrics.IncConfirm("invalid")
		a.log.Info().Err(err).Msg("rejecting malformed payment callback")
		return a.fail(err)
	}
	return u.run(a, scope, s, cb)
}

func (u *confirmationUC) begin(ctx context.Context) *attempt {
	a := &attempt{ctx: ctx, observe: observerFrom(ctx), log: logging.With(ctx, u.log)}
	a.report()
	a.advance(model.PhaseValidating)
	return a
}

func (u *confirmationUC) run(a *attempt, scope string, s model.Session, cb model.PaymentCallback) model.ConfirmationState {
	defer logging.TraceDuration(a.log, "ConfirmationUC.Confirm")()
	log := a.log.With().
		Str("payment_key", logging.Redact(cb.PaymentKey, u.opts.Dev)).
		Str("order_id", cb.OrderID).
		Logger()
	a.log = &log

	if rec, ok := u.ledger.Lookup(a.ctx, scope, cb.PaymentKey); ok {
		return u.replay(a, scope, s, cb, rec, false)
	}

	release, err := u.acquire(a, scope, cb.PaymentKey)
	if err != nil {
		metrics.IncConfirm("in_progress")
		a.log.Info().Msg("confirmation already in progress for this payment")
		return a.fail(err)
	}
	defer release()

	// Another attempt may have finished while we waited for the guard.
	if rec, ok := u.ledger.Lookup(a.ctx, scope, cb.PaymentKey); ok {
		return u.replay(a, scope, s, cb, rec, true)
	}

	a.advance(model.PhaseConfirming)

	// The browser may leave mid-call; the confirm must still run to completion.
	work, cancel := u.detached(a.ctx)
	defer cancel()

	start := time.Now()
	res, err := u.backend.ConfirmPayment(work, s, cb)
	metrics.ObserveConfirmCall(time.Since(start), err == nil)
	if err != nil {
		var rejected *domain.ConfirmRejectedError
		if errors.As(err, &rejected) {
			metrics.IncConfirm("rejected")
			a.log.Warn().Err(err).Int("status", rejected.Status).Str("code", rejected.Code).Msg("backend rejected payment confirmation")
		} else {
			metrics.IncConfirm("network")
			a.log.Error().Err(err).Msg("payment confirmation call failed")
		}
		return a.fail(err)
	}

	orderCode := res.OrderCode
	if orderCode == "" {
		orderCode = cb.OrderID
	}
	rec := model.DedupRecord{PaymentKey: cb.PaymentKey, OrderCode: orderCode, ConfirmedAt: time.Now().UTC()}
	if err := u.ledger.Record(work, scope, rec); err != nil {
		// A missing record only costs a repeat confirm call on reload.
		a.log.Warn().Err(err).Msg("could not record confirmed payment")
	}

	receipt := &model.Receipt{
		PaymentKey: cb.PaymentKey,
		OrderID:    cb.OrderID,
		OrderCode:  orderCode,
		Amount:     cb.Amount,
		Method:     res.Method,
		ApprovedAt: res.ApprovedAt,
	}
	if res.Amount > 0 {
		receipt.Amount = res.Amount
	}
	a.state.Receipt = receipt

	a.advance(model.PhaseProvisioning)
	u.provision(work, a, scope, s, orderCode)
	a.advance(model.PhaseSucceeded)

	metrics.IncConfirm("succeeded")
	a.log.Info().Str("order_code", orderCode).Int64("amount", receipt.Amount).Msg("payment confirmed")
	return a.state
}

// replay serves a payment this scope already confirmed. A subscription whose
// provisioning failed last time is retried here, under the same guard as a
// fresh confirm. held reports whether the caller already owns that guard.
func (u *confirmationUC) replay(a *attempt, scope string, s model.Session, cb model.PaymentCallback, rec *model.DedupRecord, held bool) model.ConfirmationState {
	orderCode := rec.OrderCode
	if orderCode == "" {
		orderCode = cb.OrderID
	}
	a.state.Receipt = &model.Receipt{
		PaymentKey: cb.PaymentKey,
		OrderID:    cb.OrderID,
		OrderCode:  orderCode,
		Amount:     cb.Amount,
		Replayed:   true,
	}

	a.advance(model.PhaseProvisioning)
	if !held {
		release, err := u.acquire(a, scope, cb.PaymentKey)
		if err != nil {
			// The holder provisions this order; a second start would duplicate it.
			a.log.Debug().Msg("provisioning already running for this payment")
			a.advance(model.PhaseSucceeded)
			metrics.IncConfirm("replayed")
			return a.state
		}
		defer release()
	}

	work, cancel := u.detached(a.ctx)
	defer cancel()

	// Provision re-reads the intent, so a run that finished while we waited is a no-op.
	u.provision(work, a, scope, s, orderCode)
	a.advance(model.PhaseSucceeded)

	metrics.IncConfirm("replayed")
	a.log.Debug().Msg("payment already confirmed in this scope")
	return a.state
}

func (u *confirmationUC) provision(ctx context.Context, a *attempt, scope string, s model.Session, orderCode string) {
	res := u.provisioner.Provision(ctx, scope, s, orderCode)
	if !res.OK {
		a.state.Warning = provisionWarning(res.Reason)
	}
}

func provisionWarning(reason error) string {
	if errors.Is(reason, domain.ErrNotAuthenticated) {
		return "Your payment went through. Sign in and reload this page to activate your subscription."
	}
	return "Your payment went through, but we could not activate your subscription yet. Reload this page to retry."
}

// acquire takes the in-process guard and, when configured, the distributed lock.
// The returned func releases both.
func (u *confirmationUC) acquire(a *attempt, scope, paymentKey string) (func(), error) {
	key := scope + ":" + paymentKey

	u.mu.Lock()
	if _, busy := u.inflight[key]; busy {
		u.mu.Unlock()
		return nil, domain.ErrConfirmInProgress
	}
	u.inflight[key] = struct{}{}
	u.mu.Unlock()

	leave := func() {
		u.mu.Lock()
		delete(u.inflight, key)
		u.mu.Unlock()
	}

	if u.locker == nil {
		return leave, nil
	}

	lockKey := "confirm:" + key
	lockCtx := context.WithoutCancel(a.ctx)
	token, err := u.locker.TryLock(lockCtx, lockKey, u.opts.LockTTL)
	switch {
	case errors.Is(err, domain.ErrLockNotAcquired):
		leave()
		return nil, domain.ErrConfirmInProgress
	case err != nil:
		// Lock backend down: the in-process guard and the ledger still apply.
		a.log.Warn().Err(err).Msg("distributed confirm lock unavailable, continuing without it")
		return leave, nil
	}

	return func() {
		if err := u.locker.Unlock(lockCtx, lockKey, token); err != nil {
			a.log.Warn().Err(err).Msg("could not release confirm lock")
		}
		leave()
	}, nil
}

func (u *confirmationUC) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	work := context.WithoutCancel(ctx)
	if u.opts.ConfirmTimeout > 0 {
		return context.WithTimeout(work, u.opts.ConfirmTimeout)
	}
	return context.WithCancel(work)
}

// attempt is the mutable state of one Confirm call.
type attempt struct {
	ctx     context.Context
	state   model.ConfirmationState
	observe Observer
	log     *zerolog.Logger
}

func (a *attempt) advance(next model.Phase) {
	s, err := a.state.Advance(next)
	if err != nil {
		a.log.Error().Err(err).Msg("confirmation state machine misuse")
		return
	}
	a.state = s
	a.report()
}

func (a *attempt) fail(err error) model.ConfirmationState {
	a.state.Err = err
	a.advance(model.PhaseFailed)
	return a.state
}

func (a *attempt) report() {
	if a.observe == nil || a.ctx.Err() != nil {
		return
	}
	a.observe(a.state)
}

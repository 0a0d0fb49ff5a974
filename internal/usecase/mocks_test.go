// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creator-checkout/internal/domain"
	"creator-checkout/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fakeBackend records calls and answers with configurable results.
type fakeBackend struct {
	mu sync.Mutex

	confirmCalls int
	userCalls    int
	subCalls     int
	lastCallback model.PaymentCallback
	lastChannel  string
	lastPlan     string

	confirmResult *model.ConfirmResult
	confirmErr    error
	userErr       error
	subErr        error

	// onConfirm runs inside ConfirmPayment before it answers.
	onConfirm func(ctx context.Context)
	// onUser runs inside CurrentUser before it answers.
	onUser func(ctx context.Context)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{confirmResult: &model.ConfirmResult{OrderCode: "oc_1", Method: "CARD"}}
}

func (f *fakeBackend) ConfirmPayment(ctx context.Context, s model.Session, cb model.PaymentCallback) (*model.ConfirmResult, error) {
	f.mu.Lock()
	f.confirmCalls++
	f.lastCallback = cb
	hook := f.onConfirm
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	cp := *f.confirmResult
	return &cp, nil
}

func (f *fakeBackend) CurrentUser(ctx context.Context, s model.Session) (*model.User, error) {
	f.mu.Lock()
	f.userCalls++
	hook := f.onUser
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &model.User{ID: "user-1", Email: "a@example.com"}, nil
}

func (f *fakeBackend) CreateSubscription(ctx context.Context, s model.Session, user *model.User, channelID, planID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCalls++
	f.lastChannel, f.lastPlan = channelID, planID
	return f.subErr
}

func (f *fakeBackend) counts() (confirm, user, sub int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmCalls, f.userCalls, f.subCalls
}

// brokenKV fails every operation, like storage disabled in the browser.
type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}
func (brokenKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("storage disabled")
}
func (brokenKV) Delete(ctx context.Context, key string) error { return errors.New("storage disabled") }

// fakeLocker is an in-memory Locker; err overrides every TryLock.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	err      error
	unlocked int
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]string{}} }

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockNotAcquired
	}
	l.held[key] = "tok-" + key
	return l.held[key], nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		l.unlocked++
	}
	return nil
}

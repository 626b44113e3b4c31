// Package kyc assembles the identity verification record from the form
// fields, the shared upload URL and the last location check, and posts it.
package kyc

import (
	"context"
	"fmt"

	"coinpal/internal/apperr"
	"coinpal/internal/logger"
	"coinpal/internal/models"
	"coinpal/internal/notify"
	"coinpal/internal/uploadstate"
)

const (
	source     = "kyc"
	submitPath = "/api/kyc-guide"
)

type JSONPoster interface {
	PostJSON(ctx context.Context, path string, body interface{}) ([]byte, error)
}

// RestrictionSource reports the last known location restriction result.
type RestrictionSource interface {
	Restricted() (restricted bool, known bool)
}

type Option func(*Flow)

func WithNotifier(n notify.Notifier) Option {
	return func(f *Flow) { f.notifier = notify.OrDiscard(n) }
}

type Flow struct {
	backend     JSONPoster
	state       *uploadstate.State
	restriction RestrictionSource
	notifier    notify.Notifier
}

// New binds the flow to the upload state provided by ctx. restriction may be
// nil, in which case the location is always sent as unknown.
func New(ctx context.Context, backend JSONPoster, restriction RestrictionSource, opts ...Option) (*Flow, error) {
	state, err := uploadstate.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	f := &Flow{backend: backend, state: state, restriction: restriction, notifier: notify.Discard}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Submission builds the record Submit would send right now.
func (f *Flow) Submission(name, email, phone string) models.KycSubmission {
	sub := models.KycSubmission{
		Name:      name,
		Email:     email,
		Phone:     phone,
		UploadURL: f.state.Get(),
	}
	if f.restriction != nil {
		if restricted, known := f.restriction.Restricted(); known {
			sub.LocationRestricted = &restricted
		}
	}
	return sub
}

// Submit posts the record once and returns the backend's response body
// unchanged. Fields are not validated.
func (f *Flow) Submit(ctx context.Context, name, email, phone string) ([]byte, error) {
	sub := f.Submission(name, email, phone)
	body, err := f.backend.PostJSON(ctx, submitPath, sub)
	if err != nil {
		logger.Warnf("submit kyc: %v", err)
		f.notifier.Notify(notify.Notification{Level: notify.LevelError, Source: source, Message: "Error submitting KYC details"})
		if apperr.KindOf(err) != apperr.TransportFailure {
			err = apperr.Wrap(apperr.TransportFailure, err)
		}
		return nil, fmt.Errorf("submit kyc: %w", err)
	}
	logger.WithFields(logger.Fields{
		"has_upload": sub.UploadURL != "",
		"bytes":      len(body),
	}).Info("kyc submitted")
	f.notifier.Notify(notify.Notification{Level: notify.LevelSuccess, Source: source, Message: "KYC details submitted"})
	return body, nil
}

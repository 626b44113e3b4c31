// Package location decides whether the exchange is restricted in the user's
// region. The decision is made remotely from the caller's network address;
// the geolocation permission only gates whether the check may run.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coinpal/internal/apperr"
	"coinpal/internal/logger"
	"coinpal/internal/models"
	"coinpal/internal/notify"
)

const (
	source    = "location"
	checkPath = "/api/check-location"

	msgRestricted    = "Coinbase is restricted in your location"
	msgNotRestricted = "Coinbase is not restricted in your location"
	msgDenied        = "Geolocation permission denied. Please enable it in your system settings."
	msgCheckFailed   = "Could not check your location"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionPrompt  Permission = "prompt"
	PermissionDenied  Permission = "denied"
)

type State string

const (
	StateUnknown      State = "unknown"
	StateFetching     State = "fetching"
	StateRestricted   State = "restricted"
	StateUnrestricted State = "unrestricted"
	StateDenied       State = "denied"
)

var (
	ErrPermissionDenied = apperr.Wrap(apperr.PermissionDenied, errors.New("geolocation permission denied"))
	ErrCheckInFlight    = apperr.Wrap(apperr.Busy, errors.New("location check already in progress"))
)

// Geolocator exposes the platform's geolocation permission.
type Geolocator interface {
	QueryPermission(ctx context.Context) (Permission, error)
	// RequestPosition shows the permission dialog. A non-nil error means the
	// user rejected it.
	RequestPosition(ctx context.Context) error
}

type JSONGetter interface {
	GetJSON(ctx context.Context, path string, out interface{}) error
}

type Option func(*Checker)

func WithNotifier(n notify.Notifier) Option {
	return func(c *Checker) { c.notifier = notify.OrDiscard(n) }
}

// Checker runs the restriction check state machine.
type Checker struct {
	backend  JSONGetter
	geo      Geolocator
	notifier notify.Notifier

	mu       sync.Mutex
	state    State
	inFlight bool
	result   *models.LocationResult
}

func New(backend JSONGetter, geo Geolocator, opts ...Option) *Checker {
	c := &Checker{backend: backend, geo: geo, notifier: notify.Discard, state: StateUnknown}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Restricted returns the last known result and whether one is known.
func (c *Checker) Restricted() (restricted bool, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return false, false
	}
	return c.result.IsRestricted, true
}

// Result returns a copy of the last response, or nil.
func (c *Checker) Result() *models.LocationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	r := *c.result
	return &r
}

// Check asks for the permission when needed and queries the restriction
// service. Once denied, every later call fails with ErrPermissionDenied.
func (c *Checker) Check(ctx context.Context) (State, error) {
	c.mu.Lock()
	switch {
	case c.state == StateDenied:
		c.mu.Unlock()
		c.notify(notify.LevelWarning, msgDenied)
		return StateDenied, ErrPermissionDenied
	case c.inFlight:
		state := c.state
		c.mu.Unlock()
		return state, ErrCheckInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	granted, err := c.permission(ctx)
	if err != nil {
		logger.Warnf("geolocation permission query failed: %v", err)
		c.notify(notify.LevelError, msgCheckFailed)
		return c.setState(StateUnknown, nil), apperr.Wrap(apperr.Internal, err)
	}
	if !granted {
		c.notify(notify.LevelWarning, msgDenied)
		return c.setState(StateDenied, nil), ErrPermissionDenied
	}

	c.setState(StateFetching, nil)
	var result models.LocationResult
	if err := c.backend.GetJSON(ctx, checkPath, &result); err != nil {
		logger.Warnf("check location failed: %v", err)
		c.notify(notify.LevelError, msgCheckFailed)
		if apperr.KindOf(err) != apperr.TransportFailure {
			err = apperr.Wrap(apperr.TransportFailure, err)
		}
		return c.setState(StateUnknown, nil), fmt.Errorf("check location: %w", err)
	}

	logger.WithFields(logger.Fields{
		"country":    result.Country,
		"region":     result.RegionName,
		"restricted": result.IsRestricted,
	}).Debug("location checked")

	if result.IsRestricted {
		c.notify(notify.LevelWarning, msgRestricted)
		return c.setState(StateRestricted, &result), nil
	}
	c.notify(notify.LevelInfo, msgNotRestricted)
	return c.setState(StateUnrestricted, &result), nil
}

func (c *Checker) permission(ctx context.Context) (bool, error) {
	perm, err := c.geo.QueryPermission(ctx)
	if err != nil {
		return false, err
	}
	switch perm {
	case PermissionGranted:
		return true, nil
	case PermissionPrompt:
		if err := c.geo.RequestPosition(ctx); err != nil {
			logger.Infof("geolocation prompt rejected: %v", err)
			return false, nil
		}
		return true, nil
	default:
		return false, nil
	}
}

func (c *Checker) setState(s State, result *models.LocationResult) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	if s != StateFetching {
		c.result = result
	}
	return s
}

func (c *Checker) notify(level notify.Level, msg string) {
	c.notifier.Notify(notify.Notification{Level: level, Source: source, Message: msg})
}

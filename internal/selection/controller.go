package selection

import (
	"go.uber.org/zap"
)

// Store applies a selection transition atomically with the surfaces that
// depend on it (the map) and returns the resulting selection.
type Store interface {
	OpenListing(key string) (State, bool)
	CloseListing() State
	ClearListing() State
}

// Transitions observes applied transitions (metrics).
type Transitions interface {
	ObserveTransition(name string)
}

type Controller struct {
	store Store
	obs   Transitions
	log   *zap.Logger
}

func NewController(store Store, obs Transitions, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{store: store, obs: obs, log: log}
}

// TapRow opens key. It reports false when key is not in the current feed.
func (c *Controller) TapRow(key string) (State, bool) {
	st, ok := c.store.OpenListing(key)
	if !ok {
		c.log.Debug("tap on unknown listing", zap.String("key", key))
		return st, false
	}
	c.observe("tap_row", st)
	return st, true
}

func (c *Controller) Dismiss() State {
	st := c.store.CloseListing()
	c.observe("dismiss", st)
	return st
}

// Reset returns to None. Used on session teardown.
func (c *Controller) Reset() State {
	st := c.store.ClearListing()
	c.observe("reset", st)
	return st
}

func (c *Controller) observe(name string, st State) {
	if c.obs != nil {
		c.obs.ObserveTransition(name)
	}
	c.log.Debug("selection transition", zap.String("transition", name), zap.Stringer("state", st))
}

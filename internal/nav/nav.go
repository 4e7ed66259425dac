// SPDX-License-Identifier: MIT

// Package nav tracks the current route and a bounded back-history stack.
package nav

import (
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/ecuscope/ecuscope/internal/log"
)

// maxDepth bounds the back-history stack; the oldest entry is dropped first.
const maxDepth = 10

// Route is one navigation target.
type Route struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

func (r Route) equal(other Route) bool {
	if r.Name != other.Name || len(r.Params) != len(other.Params) {
		return false
	}
	for k, v := range r.Params {
		if other.Params[k] != v {
			return false
		}
	}
	return true
}

// Controller is the navigation stack. It always holds at least one route:
// Back on the initial route is a no-op, never an underflow.
type Controller struct {
	mu     sync.Mutex
	stack  []Route
	logger zerolog.Logger
}

// New returns a controller positioned on the initial route.
func New(initial Route) *Controller {
	return &Controller{
		stack:  []Route{initial},
		logger: xglog.WithComponent("nav"),
	}
}

// Navigate pushes route onto the stack. Repeating the route already on top
// is an idempotent no-op; beyond the depth bound the oldest entry is dropped.
func (c *Controller) Navigate(route Route) Route {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stack[len(c.stack)-1].equal(route) {
		return route
	}
	c.stack = append(c.stack, route)
	if len(c.stack) > maxDepth {
		c.stack = c.stack[len(c.stack)-maxDepth:]
	}
	c.logger.Debug().
		Str(xglog.FieldEvent, "nav.navigate").
		Str("route", route.Name).
		Int("depth", len(c.stack)).
		Msg("route pushed")
	return route
}

// Back pops one entry and returns the new current route. With only one
// entry on the stack it stays put.
func (c *Controller) Back() Route {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
	return c.stack[len(c.stack)-1]
}

// Current returns the route on top of the stack.
func (c *Controller) Current() Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack[len(c.stack)-1]
}

// Depth returns the stack depth.
func (c *Controller) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// SPDX-License-Identifier: MIT

// Package session owns the lifecycle of a diagnostic session bound to one
// vehicle: start, activity log, end, and bounded history.
package session

import (
	"context"
	"errors"
	"time"
)

// State is the manager-level lifecycle.
type State string

const (
	StateNone      State = "none"
	StateStarting  State = "starting"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Status is the client-visible status of one session record.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Vehicle identifies the vehicle under diagnosis.
type Vehicle struct {
	VIN   string `json:"vin"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Year  int    `json:"year,omitempty"`
}

// VehicleProfile is the resolver's answer: the addressable ECU module set.
type VehicleProfile struct {
	ECUModules []string `json:"ecuModules"`
}

// VehicleResolver maps a vehicle to its ECU module inventory. External
// collaborator, consumed by Start.
type VehicleResolver interface {
	Resolve(ctx context.Context, vehicle Vehicle) (VehicleProfile, error)
}

// ResolverFunc adapts a function to VehicleResolver.
type ResolverFunc func(ctx context.Context, vehicle Vehicle) (VehicleProfile, error)

func (f ResolverFunc) Resolve(ctx context.Context, vehicle Vehicle) (VehicleProfile, error) {
	return f(ctx, vehicle)
}

// ModuleScan is one detected module with its per-module DTC counts.
type ModuleScan struct {
	ModuleID      string `json:"moduleId"`
	DTCCount      int    `json:"dtcCount"`
	CriticalCount int    `json:"criticalCount"`
}

// Action is one entry of the session's append-only activity log.
type Action struct {
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	At      time.Time `json:"at"`
}

// maxActions bounds the activity log; the oldest entries are evicted first.
const maxActions = 50

// DiagnosticSession is the single active session record. Exclusively owned
// by the Manager; other components only ever see copies or its ID.
type DiagnosticSession struct {
	ID           string        `json:"id"`
	Vehicle      Vehicle       `json:"vehicle"`
	StartedAt    time.Time     `json:"startedAt"`
	EndedAt      time.Time     `json:"endedAt,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Status       Status        `json:"status"`
	Modules      []ModuleScan  `json:"modules"`
	TotalDTCs    int           `json:"totalDtcs"`
	CriticalDTCs int           `json:"criticalDtcs"`
	Actions      []Action      `json:"actions"`
}

// clone returns a deep copy safe to hand to callers.
func (s *DiagnosticSession) clone() *DiagnosticSession {
	cp := *s
	cp.Modules = append([]ModuleScan(nil), s.Modules...)
	cp.Actions = append([]Action(nil), s.Actions...)
	return &cp
}

// Sentinel errors of the session manager.
var (
	// ErrVehicleInvalid reports a vehicle with no resolvable ECU module set.
	ErrVehicleInvalid = errors.New("vehicle has no resolvable ECU modules")
	// ErrSessionNotActive reports an operation that requires an active session.
	ErrSessionNotActive = errors.New("no active diagnostic session")
)

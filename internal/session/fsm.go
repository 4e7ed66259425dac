// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Lifecycle events. The machine is strict: firing an event from the wrong
// state is a programming error surfaced as an fsm.InvalidEventError.
const (
	eventBegin    = "begin"    // none -> starting
	eventReady    = "ready"    // starting -> active
	eventAbort    = "abort"    // starting -> none  (atomic start failure)
	eventFinish   = "finish"   // active -> completed
	eventTeardown = "teardown" // completed -> none
)

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		string(StateNone),
		fsm.Events{
			{Name: eventBegin, Src: []string{string(StateNone)}, Dst: string(StateStarting)},
			{Name: eventReady, Src: []string{string(StateStarting)}, Dst: string(StateActive)},
			{Name: eventAbort, Src: []string{string(StateStarting)}, Dst: string(StateNone)},
			{Name: eventFinish, Src: []string{string(StateActive)}, Dst: string(StateCompleted)},
			{Name: eventTeardown, Src: []string{string(StateCompleted)}, Dst: string(StateNone)},
		},
		fsm.Callbacks{},
	)
}

// fire advances the lifecycle machine or panics: every transition is driven
// by the Manager under its own lock, so an invalid event is a bug, not a
// runtime condition.
func fire(machine *fsm.FSM, event string) {
	if err := machine.Event(context.Background(), event); err != nil {
		panic(fmt.Sprintf("session lifecycle violation: %s from %s: %v", event, machine.Current(), err))
	}
}

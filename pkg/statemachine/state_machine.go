// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidTransition is returned when a transition is not registered in the table.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionHook is triggered after a transition has been accepted.
type TransitionHook[T comparable] func(from, to T) error

// TransitionValidator validates whether a state transition is allowed.
type TransitionValidator[T comparable] func(from, to T) error

// StateMachine is a transition table for a status type.
// Records in storage carry their own status, so the machine itself only answers
// "may X become Y" and runs the registered validators and hooks; it does not keep a
// current state. The table is safe for concurrent use once built.
type StateMachine[T comparable] struct {
	mu sync.RWMutex

	transitions  map[T][]T
	validators   []TransitionValidator[T]
	onTransition []TransitionHook[T]
}

// New creates an empty transition table.
func New[T comparable]() *StateMachine[T] {
	return &StateMachine[T]{
		transitions: make(map[T][]T),
	}
}

// Allow registers valid transitions from a source state.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, target := range to {
		if !slices.Contains(sm.transitions[from], target) {
			sm.transitions[from] = append(sm.transitions[from], target)
		}
	}
	return sm
}

// AddValidator adds a validator that checks if a transition is allowed.
func (sm *StateMachine[T]) AddValidator(v TransitionValidator[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.validators = append(sm.validators, v)
	return sm
}

// OnTransition registers a hook called after every accepted transition.
func (sm *StateMachine[T]) OnTransition(h TransitionHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, h)
	return sm
}

// CanTransition checks if a transition from one state to another is registered.
func (sm *StateMachine[T]) CanTransition(from, to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.transitions[from], to)
}

// NextStates returns all registered targets of the given state.
func (sm *StateMachine[T]) NextStates(from T) []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.transitions[from])
}

// IsTerminal reports whether no transition leaves the state.
func (sm *StateMachine[T]) IsTerminal(state T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.transitions[state]) == 0
}

// Transition checks the table, runs validators and then hooks.
// The returned error wraps ErrInvalidTransition when the table rejects the move.
func (sm *StateMachine[T]) Transition(from, to T) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !slices.Contains(sm.transitions[from], to) {
		return fmt.Errorf("%w: %v → %v", ErrInvalidTransition, from, to)
	}

	for _, validator := range sm.validators {
		if err := validator(from, to); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	for _, h := range sm.onTransition {
		if err := h(from, to); err != nil {
			return fmt.Errorf("transition hook failed: %w", err)
		}
	}
	return nil
}

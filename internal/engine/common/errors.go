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

package common

import (
	"errors"
	"fmt"
)

// Kind classifies failures returned to the API layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindLifecycleConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindLifecycleConflict:
		return "lifecycle_conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Code 对外返回的业务码，与 HTTP 层的约定保持一致
func (k Kind) Code() int {
	switch k {
	case KindValidation:
		return 4000
	case KindUnauthorized:
		return 4030
	case KindLifecycleConflict:
		return 4090
	case KindNotFound:
		return 4004
	default:
		return 5000
	}
}

// Error is a classified domain error. errors.Is matches it against the
// sentinel of the same kind.
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	// sentinel 只比较 Kind
	return t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrLifecycleConflict = &Error{Kind: KindLifecycleConflict}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

func LifecycleConflict(format string, args ...any) error {
	return newError(KindLifecycleConflict, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

// Wrap classifies err under kind, keeping it reachable through errors.Is/As.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, err: err}
}

// KindOf returns the kind of the first classified error in the chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

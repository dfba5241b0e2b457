// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package verr classifies errors produced anywhere in the agent core into
// the taxonomy the Provider Router, Orchestrator and Autonomous Loop use to
// decide retry-vs-abort behavior.
package verr

import (
	"errors"
	"fmt"
)

// Class is the error taxonomy from the system design.
type Class string

const (
	ClassAuthentication Class = "authentication"
	ClassRateLimit      Class = "rate_limit"
	ClassQuota          Class = "quota"
	ClassNetwork        Class = "network"
	ClassTimeout        Class = "timeout"
	ClassValidation     Class = "validation"
	ClassPermission     Class = "permission"
	ClassNotFound       Class = "not_found"
	ClassInternal       Class = "internal"
	ClassReplayMismatch Class = "replay_mismatch"
)

// retryable records whether a class is retryable by default.
var retryable = map[Class]bool{
	ClassAuthentication: false,
	ClassRateLimit:      true,
	ClassQuota:          false,
	ClassNetwork:        true,
	ClassTimeout:        true,
	ClassValidation:     false,
	ClassPermission:     false,
	ClassNotFound:       false,
	ClassInternal:       true,
	ClassReplayMismatch: false,
}

// Error is a classified error carrying the taxonomy tag plus the original cause.
type Error struct {
	Class    Class
	Resource string // e.g. the denied path, the missing model id
	Rule     string // e.g. the policy rule that denied the request
	Err      error
}

func (e *Error) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Resource, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether this error's class is retryable by default.
func (e *Error) Retryable() bool { return retryable[e.Class] }

// New builds a classified error.
func New(class Class, err error) *Error {
	return &Error{Class: class, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(class Class, format string, args ...any) *Error {
	return &Error{Class: class, Err: fmt.Errorf(format, args...)}
}

// WithResource attaches the resource the error pertains to (file path, model id, ...).
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

// WithRule attaches the policy rule name that produced a Permission error.
func (e *Error) WithRule(rule string) *Error {
	e.Rule = rule
	return e
}

// ClassOf extracts the taxonomy class from err, defaulting to ClassInternal
// for unclassified errors.
func ClassOf(err error) Class {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Class
	}
	return ClassInternal
}

// IsRetryable reports whether err should be retried per the taxonomy.
// Unclassified errors are treated as retryable internal errors, matching
// the "bounded number of times" default for Internal in the design.
func IsRetryable(err error) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Retryable()
	}
	return true
}

// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// PublishFailure describes one notification that could not be delivered.
type PublishFailure struct {
	Topic  string
	Method string
	Error  error
}

// DeliveryError implements Error interface, wrapping all failed
// publications of one or more notifications.
type DeliveryError struct {
	failures []PublishFailure
}

// NewDeliveryError is a constructor for delivery error.
func NewDeliveryError(failures ...PublishFailure) *DeliveryError {
	return &DeliveryError{failures: failures}
}

// Error returns a string representation of all failed publications.
func (e *DeliveryError) Error() string {
	if e == nil || len(e.failures) == 0 {
		return ""
	}
	var msgs []string
	for _, failure := range e.failures {
		msgs = append(msgs, fmt.Sprintf("%s (%s): %v", failure.Topic, failure.Method, failure.Error))
	}
	return fmt.Sprintf("failed notifications: [%s]", strings.Join(msgs, ", "))
}

// GetFailures returns all failed publications.
func (e *DeliveryError) GetFailures() []PublishFailure {
	if e == nil {
		return nil
	}
	return e.failures
}

// IsDeliveryError returns true if the cause of the error is a DeliveryError.
func IsDeliveryError(err error) bool {
	_, is := errors.Cause(err).(*DeliveryError)
	return is
}

// CombineErrors merges errors of several notifications into a single
// DeliveryError. Errors other than DeliveryError are included as failures
// without topic. Returns nil if there is no error.
func CombineErrors(errs ...error) error {
	var failures []PublishFailure
	for _, err := range errs {
		if err == nil {
			continue
		}
		if delivery, is := errors.Cause(err).(*DeliveryError); is {
			failures = append(failures, delivery.failures...)
			continue
		}
		failures = append(failures, PublishFailure{Error: err})
	}
	if len(failures) == 0 {
		return nil
	}
	return NewDeliveryError(failures...)
}

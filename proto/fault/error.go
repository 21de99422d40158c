// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package fault

import (
	"errors"
	"fmt"
)

// Error is the status every facade operation fails with.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code, so errors.Is(err, fault.New(fault.ErrNotFound, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) GetCode() Code {
	return e.Code
}

func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func AsError(err error) *Error {
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr
	}
	return nil
}

// CodeOf returns ErrOK for nil and ErrInternal for errors outside the taxonomy.
func CodeOf(err error) Code {
	if err == nil {
		return ErrOK
	}
	if fErr := AsError(err); fErr != nil {
		return fErr.Code
	}
	return ErrInternal
}

func HTTPStatus(err error) int {
	return CodeOf(err).HTTPStatus()
}

func IsTransient(err error) bool {
	return err != nil && CodeOf(err).IsTransient()
}

func IsValidation(err error) bool {
	return err != nil && CodeOf(err).IsValidation()
}

func IsNotFound(err error) bool {
	return err != nil && CodeOf(err).IsNotFound()
}

func IsAlreadyExists(err error) bool {
	return CodeOf(err) == ErrAlreadyExists
}

func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

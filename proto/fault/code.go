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

// Code classifies every status the client and server exchange. The thousands digit selects the
// category, which in turn selects the HTTP status.
type Code int

const (
	ErrOK Code = 0

	ErrInvalidParam         Code = 1000
	ErrSchema               Code = 1001
	ErrSchemaMismatch       Code = 1002
	ErrDimensionMismatch    Code = 1003
	ErrInvalidFilter        Code = 1004
	ErrUnsupportedIndexType Code = 1005

	ErrAuthentication Code = 2000

	ErrNotFound           Code = 3000
	ErrCollectionNotFound Code = 3001
	ErrFieldNotFound      Code = 3002
	ErrIndexNotFound      Code = 3003

	ErrConflict      Code = 4000
	ErrAlreadyExists Code = 4001
	ErrNotLoaded     Code = 4002

	ErrInternal           Code = 5000
	ErrTimeout            Code = 5001
	ErrServiceUnavailable Code = 5002
	ErrConnection         Code = 5003
	ErrStorage            Code = 5004

	ErrTooManyRequests Code = 6001
)

var codeNames = map[Code]string{
	ErrOK:                   "OK",
	ErrInvalidParam:         "INVALID_PARAM",
	ErrSchema:               "SCHEMA_ERROR",
	ErrSchemaMismatch:       "SCHEMA_MISMATCH",
	ErrDimensionMismatch:    "DIMENSION_MISMATCH",
	ErrInvalidFilter:        "INVALID_FILTER",
	ErrUnsupportedIndexType: "UNSUPPORTED_INDEX_TYPE",
	ErrAuthentication:       "AUTHENTICATION_ERROR",
	ErrNotFound:             "NOT_FOUND",
	ErrCollectionNotFound:   "COLLECTION_NOT_FOUND",
	ErrFieldNotFound:        "FIELD_NOT_FOUND",
	ErrIndexNotFound:        "INDEX_NOT_FOUND",
	ErrConflict:             "CONFLICT",
	ErrAlreadyExists:        "ALREADY_EXISTS",
	ErrNotLoaded:            "NOT_LOADED",
	ErrInternal:             "INTERNAL",
	ErrTimeout:              "TIMEOUT",
	ErrServiceUnavailable:   "SERVICE_UNAVAILABLE",
	ErrConnection:           "CONNECTION_ERROR",
	ErrStorage:              "STORAGE_ERROR",
	ErrTooManyRequests:      "TOO_MANY_REQUESTS",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

func (c Code) HTTPStatus() int {
	switch {
	case c == ErrOK:
		return 200
	case c == ErrTimeout:
		return 504
	case c == ErrServiceUnavailable, c == ErrConnection:
		return 503
	case c >= 1000 && c < 2000:
		return 400
	case c >= 2000 && c < 3000:
		return 401
	case c >= 3000 && c < 4000:
		return 404
	case c >= 4000 && c < 5000:
		return 409
	case c >= 5000 && c < 6000:
		return 500
	case c >= 6000 && c < 7000:
		return 429
	default:
		return 500
	}
}

// IsTransient reports whether a later attempt of the same request may succeed.
func (c Code) IsTransient() bool {
	return c == ErrTimeout || c == ErrServiceUnavailable || c == ErrConnection || c == ErrTooManyRequests
}

func (c Code) IsValidation() bool {
	return c >= 1000 && c < 2000
}

func (c Code) IsNotFound() bool {
	return c >= 3000 && c < 4000
}

// CodeFromHTTPStatus is used when a reply carries no body code, e.g. a proxy error page.
func CodeFromHTTPStatus(status int) Code {
	switch {
	case status >= 200 && status < 300:
		return ErrOK
	case status == 401 || status == 403:
		return ErrAuthentication
	case status == 404:
		return ErrNotFound
	case status == 409:
		return ErrConflict
	case status == 429:
		return ErrTooManyRequests
	case status == 503 || status == 502:
		return ErrServiceUnavailable
	case status == 504:
		return ErrTimeout
	case status >= 400 && status < 500:
		return ErrInvalidParam
	default:
		return ErrInternal
	}
}

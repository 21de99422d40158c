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

package resp

const (
	ErrReasonRequestBodyIsRequired = "request body is required"
	ErrReasonAuthCodeNotFound      = "auth code not found"
	ErrReasonAuthDecryptFailed     = "fail to decrypt auth code, %s"
	ErrReasonAuthFailed            = "wrong user or password"
	ErrReasonParseBody             = "fail to parse request body, %s"
	ErrReasonTooManyRequests       = "too many requests, rate limit is %d/s"
	ErrReasonIncorrectHttpMethod   = "incorrect HTTP method for uri [%s] and method [%s]"
)

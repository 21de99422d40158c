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

package connection

import (
	"net/http"

	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

const maxErrorBody = 256

// CheckReply turns a response into the server error it carries, or decodes its data into
// target. target may be nil when the caller only needs the status.
func CheckReply(responseData *ResponseData, responseErr error, target interface{}) error {
	if responseErr != nil {
		return responseErr
	}

	reply := &entity.HttpReply{}
	if err := vjson.Unmarshal(responseData.Body, reply); err != nil {
		// not an envelope, e.g. the error page of a proxy
		if code := fault.CodeFromHTTPStatus(responseData.StatusCode); code != fault.ErrOK {
			return fault.Newf(code, "unexpected status %d: %s", responseData.StatusCode, truncate(responseData.Body))
		}
		return fault.Wrap(fault.ErrInternal, "decode reply", err)
	}
	if err := reply.Err(); err != nil {
		return err
	}
	if responseData.StatusCode != http.StatusOK {
		return fault.Newf(fault.CodeFromHTTPStatus(responseData.StatusCode), "unexpected status %d with success code", responseData.StatusCode)
	}

	if target == nil || len(reply.Data) == 0 {
		return nil
	}
	if err := vjson.Unmarshal(reply.Data, target); err != nil {
		return fault.Wrap(fault.ErrInternal, "decode reply data", err)
	}
	return nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

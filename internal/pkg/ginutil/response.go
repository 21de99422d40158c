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

package ginutil

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

type Response struct {
	ginContext *gin.Context
	httpStatus int
}

func New(ginContext *gin.Context) *Response {
	return &Response{
		ginContext: ginContext,
		httpStatus: http.StatusOK,
	}
}

/*
default status is 200
*/
func (r *Response) SetHttpStatus(httpStatus int) *Response {
	r.httpStatus = httpStatus
	return r
}

func (r *Response) SendJson(data interface{}) {
	reply, err := vjson.Marshal(data)
	if err != nil {
		r.SendJsonHttpReplyError(fault.Wrap(fault.ErrInternal, "marshal reply", err))
		return
	}
	r.SendJsonBytes(reply)
}

func (r *Response) SendJsonBytes(bytes []byte) {
	r.ginContext.Header("Content-Type", "application/json; charset=UTF-8")
	r.ginContext.Header("Content-Length", strconv.Itoa(len(bytes)))
	r.ginContext.Writer.WriteHeader(r.httpStatus)

	if _, err := r.ginContext.Writer.Write(bytes); err != nil {
		log.Errorf("fail to write http reply, err:[%v], len[%d]", err, len(bytes))
	}
}

func (r *Response) SendJsonHttpReplySuccess(data interface{}) {
	httpReply := &entity.HttpReply{
		Code: fault.ErrOK,
	}
	if data != nil {
		bytes, err := vjson.Marshal(data)
		if err != nil {
			r.SendJsonHttpReplyError(fault.Wrap(fault.ErrInternal, "marshal reply", err))
			return
		}
		httpReply.Data = bytes
	}
	r.SetHttpStatus(http.StatusOK)
	r.SendJson(httpReply)
}

// SendJsonHttpReplyError maps err to its code; errors outside the taxonomy become Internal.
func (r *Response) SendJsonHttpReplyError(err error) {
	fErr := fault.AsError(err)
	if fErr == nil {
		fErr = fault.Wrap(fault.ErrInternal, "internal error", err)
	}
	msg := fErr.Message
	if fErr.Cause != nil {
		msg += ": " + fErr.Cause.Error()
	}
	httpReply := &entity.HttpReply{
		Code:    fErr.Code,
		Msg:     msg,
		Details: fErr.Details,
	}
	r.SetHttpStatus(fErr.HTTPStatus())
	r.SendJson(httpReply)
}

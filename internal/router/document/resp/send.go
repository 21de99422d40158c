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

import (
	"github.com/gin-gonic/gin"
	"github.com/vearch/vdbclient/internal/pkg/ginutil"
	"github.com/vearch/vdbclient/proto/fault"
)

// SendError aborts the chain, so middleware can use it too.
func SendError(c *gin.Context, err error) {
	c.Abort()
	_ = c.Error(err)
	ginutil.New(c).SendJsonHttpReplyError(err)
}

func SendErrorCode(c *gin.Context, code fault.Code, format string, args ...interface{}) {
	SendError(c, fault.Newf(code, format, args...))
}

func SendSuccess(c *gin.Context, data interface{}) {
	ginutil.New(c).SendJsonHttpReplySuccess(data)
}

func SendJson(c *gin.Context, obj interface{}) {
	ginutil.New(c).SendJson(obj)
}

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

package document

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/valyala/fastjson"
	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vearch/vdbclient/internal/router/document/resp"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	body, err := c.GetRawData()
	if err != nil {
		return nil, fault.InvalidParam(resp.ErrReasonParseBody, err.Error())
	}
	if len(body) == 0 {
		return nil, fault.InvalidParam(resp.ErrReasonRequestBodyIsRequired)
	}
	return body, nil
}

func bind(c *gin.Context, args interface{}) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if err := vjson.Unmarshal(body, args); err != nil {
		return fault.InvalidParam(resp.ErrReasonParseBody, err.Error())
	}
	return nil
}

// bindCollection is bind plus the check that the request names a collection.
func bindCollection(c *gin.Context, args interface{}, collectionName *string) error {
	if err := bind(c, args); err != nil {
		return err
	}
	if *collectionName == "" {
		return fault.InvalidParam("collectionName is required")
	}
	return nil
}

// parseRows decodes insert and upsert bodies against the schema of the target collection,
// so 64 bit integers keep their precision.
func (handler *DocumentHandler) parseRows(c *gin.Context) (string, []entity.Row, error) {
	body, err := readBody(c)
	if err != nil {
		return "", nil, err
	}
	var p fastjson.Parser
	jv, err := p.ParseBytes(body)
	if err != nil {
		return "", nil, fault.InvalidParam(resp.ErrReasonParseBody, err.Error())
	}

	name := string(jv.GetStringBytes("collectionName"))
	if name == "" {
		return "", nil, fault.InvalidParam("collectionName is required")
	}
	schema, err := handler.engine.Schema(name)
	if err != nil {
		return "", nil, err
	}
	data := jv.Get("data")
	if data == nil {
		return "", nil, fault.InvalidParam("data is required")
	}
	rows, err := entity.ParseRows(data, schema.FieldTypes())
	if err != nil {
		return "", nil, err
	}
	return name, rows, validateBatch(rows)
}

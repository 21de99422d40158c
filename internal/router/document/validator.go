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
	"github.com/vearch/vdbclient/internal/engine/expr"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

const (
	// maxBodySize is the maximum size of a request body in bytes (64MB)
	maxBodySize = 64 * 1024 * 1024
	// maxBatchRows is the maximum number of rows in one insert or upsert
	maxBatchRows = 10000
	// maxQueryVectors is the maximum number of query vectors in one search
	maxQueryVectors = 1024
)

func validateBatch(rows []entity.Row) error {
	if len(rows) == 0 {
		return fault.InvalidParam("data is empty")
	}
	if len(rows) > maxBatchRows {
		return fault.InvalidParam("batch size %d exceeds maximum %d", len(rows), maxBatchRows)
	}
	return nil
}

func validateSearch(args *entity.SearchRequest) error {
	if len(args.Vectors) == 0 {
		return fault.InvalidParam("data needs at least one query vector")
	}
	if len(args.Vectors) > maxQueryVectors {
		return fault.InvalidParam("%d query vectors exceed maximum %d", len(args.Vectors), maxQueryVectors)
	}
	return nil
}

func validateFilter(filter string) error {
	if len(filter) > expr.MaxFilterLength {
		return fault.Newf(fault.ErrInvalidFilter, "filter of %d bytes exceeds maximum %d", len(filter), expr.MaxFilterLength)
	}
	return nil
}

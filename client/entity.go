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

package client

import (
	"context"

	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// Insert writes all rows or none. The write timestamp is remembered for Session reads.
func (c *Client) Insert(ctx context.Context, collection string, rows []entity.Row) (*entity.MutationResult, error) {
	return c.write(ctx, insertPath, collection, rows)
}

// Upsert replaces rows with an existing primary key and inserts the others.
func (c *Client) Upsert(ctx context.Context, collection string, rows []entity.Row) (*entity.MutationResult, error) {
	return c.write(ctx, upsertPath, collection, rows)
}

func (c *Client) write(ctx context.Context, path, collection string, rows []entity.Row) (*entity.MutationResult, error) {
	if len(rows) == 0 {
		return nil, fault.InvalidParam("no rows to write into collection %s", collection)
	}
	result := &entity.MutationResult{}
	if err := c.post(ctx, path, &entity.InsertRequest{CollectionName: collection, Data: rows}, result); err != nil {
		return nil, err
	}
	c.rememberWrite(result.Timestamp)
	return result, nil
}

// Delete removes the rows matching filter and returns how many were removed.
func (c *Client) Delete(ctx context.Context, collection, filter string) (int64, error) {
	if filter == "" {
		return 0, fault.InvalidParam("delete on collection %s needs a filter", collection)
	}
	result := &entity.MutationResult{}
	if err := c.post(ctx, deletePath, &entity.DeleteRequest{CollectionName: collection, Filter: filter}, result); err != nil {
		return 0, err
	}
	c.rememberWrite(result.Timestamp)
	return result.Count, nil
}

// Query evaluates req.Filter over the scalar fields. A count(*) selector returns a single
// aggregate row, read it with QueryResult.Count.
func (c *Client) Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error) {
	if req == nil {
		return nil, fault.InvalidParam("query request is required")
	}
	r := *req
	r.GuaranteeTimestamp = c.guarantee(r.ConsistencyLevel, r.GuaranteeTimestamp)
	result := &entity.QueryResult{}
	if err := c.post(ctx, queryPath, &r, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Search returns one group of ranked hits per query vector.
func (c *Client) Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResult, error) {
	if req == nil {
		return nil, fault.InvalidParam("search request is required")
	}
	if len(req.Vectors) == 0 {
		return nil, fault.InvalidParam("search needs at least one query vector")
	}
	r := *req
	r.GuaranteeTimestamp = c.guarantee(r.ConsistencyLevel, r.GuaranteeTimestamp)
	result := &entity.SearchResult{}
	if err := c.post(ctx, searchPath, &r, result); err != nil {
		return nil, err
	}
	return result, nil
}

// guarantee fills the session timestamp when the read may resolve to Session on the server,
// that is for Session and for the collection default.
func (c *Client) guarantee(level entity.ConsistencyLevel, ts uint64) uint64 {
	if ts != 0 {
		return ts
	}
	if level == entity.ConsistencySession || level == entity.ConsistencyUnset {
		return c.sessionTs()
	}
	return 0
}

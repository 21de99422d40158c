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

// CreateIndex creates one index per descriptor. The request fails as a whole, so either
// all indexes are recorded or none.
func (c *Client) CreateIndex(ctx context.Context, collection string, indexes ...*entity.IndexDesc) error {
	if len(indexes) == 0 {
		return fault.InvalidParam("no index to create on collection %s", collection)
	}
	for _, idx := range indexes {
		if idx == nil || idx.FieldName == "" {
			return fault.InvalidParam("index descriptor needs a field name")
		}
	}
	return c.post(ctx, createIndexPath, &entity.CreateIndexRequest{CollectionName: collection, Indexes: indexes}, nil)
}

// DescribeIndex returns the index of field, or every index of the collection when field
// is empty.
func (c *Client) DescribeIndex(ctx context.Context, collection, field string) ([]*entity.IndexDesc, error) {
	var indexes []*entity.IndexDesc
	if err := c.post(ctx, describeIndexPath, &entity.IndexRequest{CollectionName: collection, FieldName: field}, &indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

func (c *Client) DropIndex(ctx context.Context, collection, field string) error {
	return c.post(ctx, dropIndexPath, &entity.IndexRequest{CollectionName: collection, FieldName: field}, nil)
}

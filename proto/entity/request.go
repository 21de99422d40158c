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

package entity

// CollectionRequest addresses a whole collection: drop, has, describe, release, load state.
type CollectionRequest struct {
	CollectionName string `json:"collectionName"`
}

type CreateCollectionRequest struct {
	Schema *CollectionSchema `json:"schema"`
}

type LoadCollectionRequest struct {
	CollectionName string `json:"collectionName"`
	ReplicaNumber  int    `json:"replicaNumber"`
}

type CreateIndexRequest struct {
	CollectionName string       `json:"collectionName"`
	Indexes        []*IndexDesc `json:"indexParams"`
}

// IndexRequest addresses the index of one field.
type IndexRequest struct {
	CollectionName string `json:"collectionName"`
	FieldName      string `json:"fieldName"`
}

// InsertRequest carries rows for insert and upsert. The server decodes Data against the
// collection schema.
type InsertRequest struct {
	CollectionName string `json:"collectionName"`
	Data           []Row  `json:"data"`
}

type DeleteRequest struct {
	CollectionName string `json:"collectionName"`
	Filter         string `json:"filter"`
}

type QueryRequest struct {
	CollectionName     string           `json:"collectionName"`
	Filter             string           `json:"filter,omitempty"`
	OutputFields       []string         `json:"outputFields,omitempty"`
	ConsistencyLevel   ConsistencyLevel `json:"consistencyLevel,omitempty"`
	Limit              int              `json:"limit,omitempty"`
	Offset             int              `json:"offset,omitempty"`
	GuaranteeTimestamp uint64           `json:"guaranteeTimestamp,omitempty"`
}

type SearchRequest struct {
	CollectionName     string            `json:"collectionName"`
	AnnsField          string            `json:"annsField,omitempty"`
	Vectors            [][]float32       `json:"data"`
	Limit              int               `json:"limit,omitempty"`
	Offset             int               `json:"offset,omitempty"`
	MetricType         MetricType        `json:"metricType,omitempty"`
	Filter             string            `json:"filter,omitempty"`
	OutputFields       []string          `json:"outputFields,omitempty"`
	Params             map[string]string `json:"searchParams,omitempty"`
	ConsistencyLevel   ConsistencyLevel  `json:"consistencyLevel,omitempty"`
	GuaranteeTimestamp uint64            `json:"guaranteeTimestamp,omitempty"`
}

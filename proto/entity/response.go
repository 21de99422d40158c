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

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
	"github.com/vearch/vdbclient/proto/fault"
)

// HttpReply is the envelope of every server response.
type HttpReply struct {
	Code    fault.Code             `json:"code"`
	Msg     string                 `json:"msg,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Data    json.RawMessage        `json:"data,omitempty"`
}

// Err rebuilds the server side error, nil when the reply is a success.
func (r *HttpReply) Err() error {
	if r.Code == fault.ErrOK {
		return nil
	}
	e := fault.New(r.Code, r.Msg)
	for k, v := range r.Details {
		e.WithDetail(k, v)
	}
	return e
}

type VersionInfo struct {
	Version   string `json:"version"`
	Protocol  string `json:"protocol"`
	BuildTime string `json:"buildTime,omitempty"`
	CommitID  string `json:"commitId,omitempty"`
}

type HealthInfo struct {
	Healthy bool     `json:"isHealthy"`
	Reasons []string `json:"reasons,omitempty"`
}

type HasResult struct {
	Has bool `json:"has"`
}

type CollectionInfo struct {
	Schema        *CollectionSchema `json:"schema"`
	State         CollectionState   `json:"state"`
	Indexes       []*IndexDesc      `json:"indexes,omitempty"`
	ReplicaNumber int               `json:"replicaNumber,omitempty"`
	RowCount      int64             `json:"rowCount"`
	CreatedTs     uint64            `json:"createdTs"`
}

type LoadStateInfo struct {
	State    LoadState `json:"loadState"`
	Progress int       `json:"loadProgress"`
}

type ListCollectionsResult struct {
	Collections []string `json:"collections"`
}

// MutationResult reports an insert, upsert or delete. Timestamp is the write timestamp
// used for Session reads.
type MutationResult struct {
	Count     int64    `json:"count"`
	IDs       []Value  `json:"ids,omitempty"`
	IDType    DataType `json:"idType,omitempty"`
	Timestamp uint64   `json:"timestamp"`
}

func (m *MutationResult) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	m.Count = jv.GetInt64("count")
	if m.Timestamp, err = getUint64(jv, "timestamp"); err != nil {
		return err
	}
	m.IDType = DataType(jv.GetStringBytes("idType"))
	m.IDs, err = parseValues(jv.Get("ids"), m.IDType)
	return err
}

type QueryResult struct {
	OutputFields []string            `json:"outputFields"`
	FieldTypes   map[string]DataType `json:"fieldTypes"`
	Rows         []Row               `json:"rows"`
}

// Count returns the aggregate of a count(*) query.
func (q *QueryResult) Count() (int64, bool) {
	if len(q.Rows) != 1 {
		return 0, false
	}
	v, ok := q.Rows[0][CountStar]
	if !ok {
		return 0, false
	}
	return v.Int, true
}

func (q *QueryResult) Len() int {
	return len(q.Rows)
}

func (q *QueryResult) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	q.OutputFields = stringArray(jv.GetArray("outputFields"))
	q.FieldTypes = parseTypes(jv.Get("fieldTypes"))
	q.Rows, err = ParseRows(jv.Get("rows"), q.FieldTypes)
	return err
}

// SearchGroup holds the ranked hits of one query vector.
type SearchGroup struct {
	IDs    []Value   `json:"ids"`
	Scores []float32 `json:"scores"`
	Rows   []Row     `json:"rows"`
}

func (g *SearchGroup) Len() int {
	return len(g.IDs)
}

type SearchResult struct {
	IDType       DataType            `json:"idType"`
	MetricType   MetricType          `json:"metricType"`
	OutputFields []string            `json:"outputFields"`
	FieldTypes   map[string]DataType `json:"fieldTypes"`
	Groups       []*SearchGroup      `json:"groups"`
}

func (s *SearchResult) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	s.IDType = DataType(jv.GetStringBytes("idType"))
	s.MetricType = MetricType(jv.GetStringBytes("metricType"))
	s.OutputFields = stringArray(jv.GetArray("outputFields"))
	s.FieldTypes = parseTypes(jv.Get("fieldTypes"))
	groups := jv.GetArray("groups")
	s.Groups = make([]*SearchGroup, 0, len(groups))
	for _, gv := range groups {
		g := &SearchGroup{}
		if g.IDs, err = parseValues(gv.Get("ids"), s.IDType); err != nil {
			return err
		}
		for _, sv := range gv.GetArray("scores") {
			f, err := sv.Float64()
			if err != nil {
				return err
			}
			g.Scores = append(g.Scores, float32(f))
		}
		if g.Rows, err = ParseRows(gv.Get("rows"), s.FieldTypes); err != nil {
			return err
		}
		s.Groups = append(s.Groups, g)
	}
	return nil
}

func parseValues(jv *fastjson.Value, dt DataType) ([]Value, error) {
	if jv == nil || jv.Type() == fastjson.TypeNull {
		return nil, nil
	}
	arr, err := jv.Array()
	if err != nil {
		return nil, err
	}
	values := make([]Value, 0, len(arr))
	for _, item := range arr {
		var v Value
		if dt == "" {
			v, err = InferValue(item)
		} else {
			v, err = ParseValue(dt, item)
		}
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseTypes(jv *fastjson.Value) map[string]DataType {
	types := make(map[string]DataType)
	if jv == nil {
		return types
	}
	obj, err := jv.Object()
	if err != nil {
		return types
	}
	obj.Visit(func(key []byte, v *fastjson.Value) {
		types[string(key)] = DataType(v.GetStringBytes())
	})
	return types
}

// getUint64 reads an optional unsigned integer; timestamps use the full uint64 range.
func getUint64(jv *fastjson.Value, key string) (uint64, error) {
	v := jv.Get(key)
	if v == nil || v.Type() == fastjson.TypeNull {
		return 0, nil
	}
	if v.Type() != fastjson.TypeNumber {
		return 0, fmt.Errorf("%s is not a number", key)
	}
	return strconv.ParseUint(v.String(), 10, 64)
}

func stringArray(arr []*fastjson.Value) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, string(v.GetStringBytes()))
	}
	return out
}

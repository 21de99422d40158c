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
	"fmt"
	"sort"
	"strings"

	"github.com/valyala/fastjson"
	"github.com/vearch/vdbclient/proto/fault"
)

// Row is one entity keyed by field name.
type Row map[string]Value

// NewRow builds a row from plain Go values using the schema types.
func NewRow(s *CollectionSchema, values map[string]interface{}) (Row, error) {
	row := make(Row, len(values))
	for name, x := range values {
		f := s.Field(name)
		if f == nil {
			return nil, fault.SchemaMismatch("field %s is not in collection %s", name, s.CollectionName)
		}
		v, err := NewValue(f.DataType, x)
		if err != nil {
			return nil, mismatch(name, err)
		}
		row[name] = v
	}
	return row, nil
}

func (r Row) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Int64 returns the integer value of a field, zero when absent.
func (r Row) Int64(name string) int64 {
	return r[name].Int
}

func (r Row) Str(name string) string {
	return r[name].Str
}

func (r Row) Float(name string) float64 {
	return r[name].Float
}

func (r Row) Vector(name string) []float32 {
	return r[name].Vector
}

// Project keeps only the named fields.
func (r Row) Project(names []string) Row {
	out := make(Row, len(names))
	for _, n := range names {
		if v, ok := r[n]; ok {
			out[n] = v
		}
	}
	return out
}

func (r Row) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", k, r[k].String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// ParseRow decodes a JSON object with the given field types. Unknown fields are a
// SchemaMismatch; missing fields are left to CheckRow.
func ParseRow(jv *fastjson.Value, types map[string]DataType) (Row, error) {
	obj, err := jv.Object()
	if err != nil {
		return nil, fault.SchemaMismatch("row is not an object: %v", err)
	}
	row := make(Row, obj.Len())
	var perr error
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if perr != nil {
			return
		}
		name := string(key)
		dt, ok := types[name]
		if !ok {
			perr = fault.SchemaMismatch("unknown field %s", name)
			return
		}
		val, err := ParseValue(dt, v)
		if err != nil {
			perr = mismatch(name, err)
			return
		}
		row[name] = val
	})
	if perr != nil {
		return nil, perr
	}
	return row, nil
}

// ParseRows decodes a JSON array of rows.
func ParseRows(jv *fastjson.Value, types map[string]DataType) ([]Row, error) {
	if jv == nil || jv.Type() == fastjson.TypeNull {
		return nil, nil
	}
	arr, err := jv.Array()
	if err != nil {
		return nil, fault.SchemaMismatch("rows is not an array: %v", err)
	}
	rows := make([]Row, 0, len(arr))
	for _, item := range arr {
		row, err := ParseRow(item, types)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func DecodeRows(data []byte, types map[string]DataType) ([]Row, error) {
	var p fastjson.Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return nil, fault.InvalidParam("rows are not valid json: %v", err)
	}
	return ParseRows(jv, types)
}

// CheckRow validates an insert row against the schema and converts integer widths in
// place. Missing, unknown and mistyped fields are SchemaMismatch, wrong vector length is
// DimensionMismatch.
func (s *CollectionSchema) CheckRow(r Row) error {
	for name := range r {
		if s.Field(name) == nil {
			return fault.SchemaMismatch("field %s is not in collection %s", name, s.CollectionName)
		}
	}
	for _, f := range s.Fields {
		v, ok := r[f.Name]
		if f.AutoID {
			if ok {
				return fault.SchemaMismatch("field %s is auto id, can not set value", f.Name)
			}
			continue
		}
		if !ok {
			return fault.SchemaMismatch("field %s is missing", f.Name)
		}
		conv, err := v.Convert(f.DataType)
		if err != nil {
			return mismatch(f.Name, err)
		}
		switch f.DataType {
		case DataTypeVarChar:
			if int64(len(conv.Str)) > f.MaxLength {
				return fault.SchemaMismatch("field %s length %d exceeds max length %d", f.Name, len(conv.Str), f.MaxLength)
			}
		case DataTypeFloatVector:
			if int64(len(conv.Vector)) != f.Dimension {
				return fault.DimensionMismatch(f.Name, int(f.Dimension), len(conv.Vector))
			}
		}
		r[f.Name] = conv
	}
	return nil
}

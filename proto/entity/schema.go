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
	"unicode"

	"github.com/vearch/vdbclient/proto/fault"
)

type FieldSchema struct {
	Name         string   `json:"name"`
	DataType     DataType `json:"dataType"`
	Description  string   `json:"description,omitempty"`
	IsPrimaryKey bool     `json:"isPrimaryKey,omitempty"`
	AutoID       bool     `json:"autoID,omitempty"`
	MaxLength    int64    `json:"maxLength,omitempty"`
	Dimension    int64    `json:"dimension,omitempty"`
}

func NewField(name string, dataType DataType) *FieldSchema {
	return &FieldSchema{Name: name, DataType: dataType}
}

func (f *FieldSchema) WithDescription(desc string) *FieldSchema {
	f.Description = desc
	return f
}

func (f *FieldSchema) WithIsPrimaryKey(pk bool) *FieldSchema {
	f.IsPrimaryKey = pk
	return f
}

func (f *FieldSchema) WithIsAutoID(autoID bool) *FieldSchema {
	f.AutoID = autoID
	return f
}

func (f *FieldSchema) WithMaxLength(maxLength int64) *FieldSchema {
	f.MaxLength = maxLength
	return f
}

func (f *FieldSchema) WithDim(dim int64) *FieldSchema {
	f.Dimension = dim
	return f
}

type CollectionSchema struct {
	CollectionName   string           `json:"collectionName"`
	Description      string           `json:"description,omitempty"`
	Fields           []*FieldSchema   `json:"fields"`
	ShardNum         int32            `json:"shardNum,omitempty"`
	ConsistencyLevel ConsistencyLevel `json:"consistencyLevel,omitempty"`
}

func NewSchema(name string) *CollectionSchema {
	return &CollectionSchema{CollectionName: name}
}

func (s *CollectionSchema) WithDescription(desc string) *CollectionSchema {
	s.Description = desc
	return s
}

func (s *CollectionSchema) WithField(f *FieldSchema) *CollectionSchema {
	s.Fields = append(s.Fields, f)
	return s
}

func (s *CollectionSchema) WithShardNum(n int32) *CollectionSchema {
	s.ShardNum = n
	return s
}

func (s *CollectionSchema) WithConsistencyLevel(cl ConsistencyLevel) *CollectionSchema {
	s.ConsistencyLevel = cl
	return s
}

// Field returns nil when name is not declared.
func (s *CollectionSchema) Field(name string) *FieldSchema {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (s *CollectionSchema) PrimaryField() *FieldSchema {
	for _, f := range s.Fields {
		if f.IsPrimaryKey {
			return f
		}
	}
	return nil
}

func (s *CollectionSchema) VectorFields() []*FieldSchema {
	var vs []*FieldSchema
	for _, f := range s.Fields {
		if f.DataType.IsVector() {
			vs = append(vs, f)
		}
	}
	return vs
}

// ScalarFieldNames keeps declaration order; it is what the "*" output selector expands to.
func (s *CollectionSchema) ScalarFieldNames() []string {
	var names []string
	for _, f := range s.Fields {
		if !f.DataType.IsVector() {
			names = append(names, f.Name)
		}
	}
	return names
}

func (s *CollectionSchema) FieldTypes() map[string]DataType {
	types := make(map[string]DataType, len(s.Fields))
	for _, f := range s.Fields {
		types[f.Name] = f.DataType
	}
	return types
}

func (s *CollectionSchema) Shards() int {
	if s.ShardNum <= 0 {
		return 1
	}
	return int(s.ShardNum)
}

// Validate checks the schema invariants; every violation is a SchemaError.
func (s *CollectionSchema) Validate() error {
	if err := ValidateName("collection", s.CollectionName); err != nil {
		return err
	}
	if len(s.Fields) == 0 {
		return fault.SchemaError("collection %s has no field", s.CollectionName)
	}
	if s.ShardNum < 0 || s.ShardNum > MaxShardNum {
		return fault.SchemaError("shardNum:[%d] should in [1, %d]", s.ShardNum, MaxShardNum)
	}
	if !s.ConsistencyLevel.Valid() {
		return fault.SchemaError("unknown consistency level: %s", s.ConsistencyLevel)
	}

	names := make(map[string]struct{}, len(s.Fields))
	primaryKeys, vectors := 0, 0
	for _, f := range s.Fields {
		if f == nil {
			return fault.SchemaError("collection %s has a nil field", s.CollectionName)
		}
		if err := ValidateName("field", f.Name); err != nil {
			return err
		}
		if _, dup := names[f.Name]; dup {
			return fault.SchemaError("duplicate field name: %s", f.Name)
		}
		names[f.Name] = struct{}{}

		if err := f.validate(); err != nil {
			return err
		}
		if f.IsPrimaryKey {
			primaryKeys++
		}
		if f.DataType.IsVector() {
			vectors++
		}
	}

	if primaryKeys != 1 {
		return fault.SchemaError("collection %s must have exactly one primary key field, found %d", s.CollectionName, primaryKeys)
	}
	if vectors == 0 {
		return fault.SchemaError("collection %s must have at least one vector field", s.CollectionName)
	}
	return nil
}

func (f *FieldSchema) validate() error {
	if !f.DataType.Valid() {
		return fault.SchemaError("field %s has unknown data type: %s", f.Name, f.DataType)
	}
	if f.IsPrimaryKey && f.DataType != DataTypeInt64 && f.DataType != DataTypeVarChar {
		return fault.SchemaError("primary key field %s must be Int64 or VarChar, not %s", f.Name, f.DataType)
	}
	if f.AutoID && !(f.IsPrimaryKey && f.DataType == DataTypeInt64) {
		return fault.SchemaError("autoID is only allowed on an Int64 primary key, field %s", f.Name)
	}
	switch {
	case f.DataType.IsVector():
		if f.Dimension <= 0 || f.Dimension > MaxDimension {
			return fault.SchemaError("vector field %s dimension:[%d] should in [1, %d]", f.Name, f.Dimension, MaxDimension)
		}
	case f.Dimension != 0:
		return fault.SchemaError("scalar field %s can not set dimension", f.Name)
	}
	if f.DataType == DataTypeVarChar {
		if f.MaxLength <= 0 || f.MaxLength > MaxVarCharLength {
			return fault.SchemaError("varchar field %s maxLength:[%d] should in [1, %d]", f.Name, f.MaxLength, MaxVarCharLength)
		}
	}
	return nil
}

// ValidateName applies the naming rule shared by collections and fields.
func ValidateName(kind, name string) error {
	rs := []rune(name)

	if len(rs) == 0 {
		return fault.SchemaError("%s name can not set empty string", kind)
	}
	if len(rs) > 255 {
		return fault.SchemaError("%s name : %s is longer than 255 characters", kind, name)
	}
	if unicode.IsNumber(rs[0]) {
		return fault.SchemaError("%s name : %s can not start with num", kind, name)
	}
	if rs[0] == '_' {
		return fault.SchemaError("%s name : %s can not start with _", kind, name)
	}

	for _, r := range rs {
		switch r {
		case '\t', '\n', '\v', '\f', '\r', ' ', 0x85, 0xA0, '\\', '+', '-', '!', '*', '/', '(', ')', ':', '^', '[', ']', '"', '{', '}', '~', '%', '&', '\'', '<', '>', '?', '=', ',', '.':
			return fault.SchemaError("character '%c' can not in %s name[%s]", r, kind, name)
		}
	}

	return nil
}

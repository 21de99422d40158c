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
	"github.com/spf13/cast"
	"github.com/vearch/vdbclient/proto/fault"
)

// IndexDesc describes the single index allowed on a field.
type IndexDesc struct {
	FieldName  string            `json:"fieldName"`
	IndexName  string            `json:"indexName,omitempty"`
	IndexType  IndexType         `json:"indexType"`
	MetricType MetricType        `json:"metricType,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

func NewIndex(field string, indexType IndexType) *IndexDesc {
	return &IndexDesc{FieldName: field, IndexType: indexType}
}

func (d *IndexDesc) WithName(name string) *IndexDesc {
	d.IndexName = name
	return d
}

func (d *IndexDesc) WithMetricType(m MetricType) *IndexDesc {
	d.MetricType = m
	return d
}

func (d *IndexDesc) WithParam(key string, value interface{}) *IndexDesc {
	if d.Params == nil {
		d.Params = make(map[string]string)
	}
	d.Params[key] = cast.ToString(value)
	return d
}

// Normalize fills the index name and the default metric of vector indexes.
func (d *IndexDesc) Normalize() {
	if d.IndexName == "" {
		d.IndexName = d.FieldName
	}
	if d.IndexType.IsVectorIndex() && d.MetricType == "" {
		d.MetricType = MetricCosine
	}
}

// Equal compares two normalized descriptors.
func (d *IndexDesc) Equal(o *IndexDesc) bool {
	if d.FieldName != o.FieldName || d.IndexName != o.IndexName ||
		d.IndexType != o.IndexType || d.MetricType != o.MetricType ||
		len(d.Params) != len(o.Params) {
		return false
	}
	for k, v := range d.Params {
		if ov, ok := o.Params[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ValidateFor checks the descriptor against the field it targets.
func (d *IndexDesc) ValidateFor(f *FieldSchema) error {
	switch {
	case d.IndexType.IsVectorIndex():
		if !f.DataType.IsVector() {
			return fault.UnsupportedIndexType(string(d.IndexType), f.Name, string(f.DataType))
		}
		metric := d.MetricType
		if metric == "" {
			metric = MetricCosine
		}
		if !metric.Valid() {
			return fault.InvalidParam("unknown metric type %s for index on %s", d.MetricType, f.Name)
		}
		return d.validateVectorParams(f)
	case d.IndexType.IsScalarIndex():
		if d.MetricType != "" {
			return fault.InvalidParam("scalar index on %s can not set metric type", f.Name)
		}
		switch d.IndexType {
		case IndexTrie:
			if f.DataType != DataTypeVarChar {
				return fault.UnsupportedIndexType(string(d.IndexType), f.Name, string(f.DataType))
			}
		case IndexSTLSort:
			if !f.DataType.IsNumeric() {
				return fault.UnsupportedIndexType(string(d.IndexType), f.Name, string(f.DataType))
			}
		case IndexInverted:
			if !f.DataType.IsScalar() {
				return fault.UnsupportedIndexType(string(d.IndexType), f.Name, string(f.DataType))
			}
		}
		return nil
	default:
		return fault.UnsupportedIndexType(string(d.IndexType), f.Name, string(f.DataType))
	}
}

func (d *IndexDesc) validateVectorParams(f *FieldSchema) error {
	switch d.IndexType {
	case IndexIvfFlat, IndexIvfSQ8, IndexIvfPQ:
		nlist, err := d.intParam("nlist", 128)
		if err != nil {
			return err
		}
		if nlist < 1 || nlist > 65536 {
			return fault.InvalidParam("nlist:[%d] should in [1, 65536]", nlist)
		}
		if d.IndexType == IndexIvfPQ {
			m, err := d.intParam("m", 8)
			if err != nil {
				return err
			}
			if m <= 0 || f.Dimension%m != 0 {
				return fault.InvalidParam("dimension:[%d] should be divisible by m:[%d]", f.Dimension, m)
			}
		}
	case IndexHNSW:
		m, err := d.intParam("M", 16)
		if err != nil {
			return err
		}
		if m < 4 || m > 64 {
			return fault.InvalidParam("M:[%d] should in [4, 64]", m)
		}
		ef, err := d.intParam("efConstruction", 200)
		if err != nil {
			return err
		}
		if ef < 8 || ef > 512 {
			return fault.InvalidParam("efConstruction:[%d] should in [8, 512]", ef)
		}
	}
	return nil
}

func (d *IndexDesc) intParam(key string, def int64) (int64, error) {
	v, ok := d.Params[key]
	if !ok {
		return def, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fault.InvalidParam("index param %s=%q is not an integer", key, v)
	}
	return n, nil
}

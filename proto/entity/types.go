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
	"strings"
)

// ProtocolVersion is exchanged on connect; a different major version is refused by the client.
const ProtocolVersion = "v1"

// DataType is the semantic type of a field.
type DataType string

const (
	DataTypeBool        DataType = "Bool"
	DataTypeInt8        DataType = "Int8"
	DataTypeInt16       DataType = "Int16"
	DataTypeInt32       DataType = "Int32"
	DataTypeInt64       DataType = "Int64"
	DataTypeFloat       DataType = "Float"
	DataTypeDouble      DataType = "Double"
	DataTypeVarChar     DataType = "VarChar"
	DataTypeFloatVector DataType = "FloatVector"
)

var dataTypes = map[string]DataType{
	"bool":        DataTypeBool,
	"int8":        DataTypeInt8,
	"int16":       DataTypeInt16,
	"int32":       DataTypeInt32,
	"int64":       DataTypeInt64,
	"float":       DataTypeFloat,
	"double":      DataTypeDouble,
	"varchar":     DataTypeVarChar,
	"floatvector": DataTypeFloatVector,
}

// ParseDataType is case insensitive.
func ParseDataType(s string) (DataType, bool) {
	dt, ok := dataTypes[strings.ToLower(s)]
	return dt, ok
}

func (dt DataType) Valid() bool {
	d, ok := dataTypes[strings.ToLower(string(dt))]
	return ok && d == dt
}

func (dt DataType) IsInteger() bool {
	switch dt {
	case DataTypeInt8, DataTypeInt16, DataTypeInt32, DataTypeInt64:
		return true
	}
	return false
}

func (dt DataType) IsFloat() bool {
	return dt == DataTypeFloat || dt == DataTypeDouble
}

func (dt DataType) IsNumeric() bool {
	return dt.IsInteger() || dt.IsFloat()
}

func (dt DataType) IsVector() bool {
	return dt == DataTypeFloatVector
}

func (dt DataType) IsScalar() bool {
	return dt.Valid() && !dt.IsVector()
}

// ConsistencyLevel selects the read guarantee of a query or search.
type ConsistencyLevel string

const (
	ConsistencyUnset      ConsistencyLevel = ""
	ConsistencyStrong     ConsistencyLevel = "Strong"
	ConsistencySession    ConsistencyLevel = "Session"
	ConsistencyBounded    ConsistencyLevel = "Bounded"
	ConsistencyEventually ConsistencyLevel = "Eventually"
)

func (cl ConsistencyLevel) Valid() bool {
	switch cl {
	case ConsistencyUnset, ConsistencyStrong, ConsistencySession, ConsistencyBounded, ConsistencyEventually:
		return true
	}
	return false
}

// Or returns cl, or def when cl is unset.
func (cl ConsistencyLevel) Or(def ConsistencyLevel) ConsistencyLevel {
	if cl == ConsistencyUnset {
		return def
	}
	return cl
}

type LoadState string

const (
	LoadStateNotExist LoadState = "LoadStateNotExist"
	LoadStateNotLoad  LoadState = "LoadStateNotLoad"
	LoadStateLoading  LoadState = "LoadStateLoading"
	LoadStateLoaded   LoadState = "LoadStateLoaded"
)

// CollectionState is the server side lifecycle of a collection.
type CollectionState string

const (
	CollectionCreated  CollectionState = "Created"
	CollectionIndexed  CollectionState = "Indexed"
	CollectionLoading  CollectionState = "Loading"
	CollectionLoaded   CollectionState = "Loaded"
	CollectionReleased CollectionState = "Released"
)

type MetricType string

const (
	MetricL2     MetricType = "L2"
	MetricIP     MetricType = "IP"
	MetricCosine MetricType = "COSINE"
)

func (m MetricType) Valid() bool {
	return m == MetricL2 || m == MetricIP || m == MetricCosine
}

// PositiveIsBetter is true for similarity metrics where a larger score ranks first.
func (m MetricType) PositiveIsBetter() bool {
	return m != MetricL2
}

type IndexType string

const (
	IndexFlat      IndexType = "FLAT"
	IndexIvfFlat   IndexType = "IVF_FLAT"
	IndexIvfSQ8    IndexType = "IVF_SQ8"
	IndexIvfPQ     IndexType = "IVF_PQ"
	IndexHNSW      IndexType = "HNSW"
	IndexAutoIndex IndexType = "AUTOINDEX"
	IndexTrie      IndexType = "TRIE"
	IndexSTLSort   IndexType = "STL_SORT"
	IndexInverted  IndexType = "INVERTED"
)

func (t IndexType) IsVectorIndex() bool {
	switch t {
	case IndexFlat, IndexIvfFlat, IndexIvfSQ8, IndexIvfPQ, IndexHNSW, IndexAutoIndex:
		return true
	}
	return false
}

func (t IndexType) IsScalarIndex() bool {
	switch t {
	case IndexTrie, IndexSTLSort, IndexInverted:
		return true
	}
	return false
}

// Output selectors with special meaning.
const (
	CountStar = "count(*)"
	Wildcard  = "*"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 16384
	MaxDimension       = 32768
	MaxVarCharLength   = 65535
	MaxShardNum        = 16
)

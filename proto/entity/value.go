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
	"math"
	"strconv"

	"github.com/spf13/cast"
	"github.com/valyala/fastjson"
	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vearch/vdbclient/proto/fault"
)

// Value is a single field value tagged with its DataType. All integer widths share Int,
// Float and Double share Float.
type Value struct {
	Type   DataType  `msgpack:"t"`
	Bool   bool      `msgpack:"b,omitempty"`
	Int    int64     `msgpack:"i,omitempty"`
	Float  float64   `msgpack:"f,omitempty"`
	Str    string    `msgpack:"s,omitempty"`
	Vector []float32 `msgpack:"v,omitempty"`
}

func NewBool(b bool) Value { return Value{Type: DataTypeBool, Bool: b} }

func NewInt8(i int8) Value { return Value{Type: DataTypeInt8, Int: int64(i)} }

func NewInt16(i int16) Value { return Value{Type: DataTypeInt16, Int: int64(i)} }

func NewInt32(i int32) Value { return Value{Type: DataTypeInt32, Int: int64(i)} }

func NewInt64(i int64) Value { return Value{Type: DataTypeInt64, Int: i} }

func NewFloat(f float32) Value { return Value{Type: DataTypeFloat, Float: float64(f)} }

func NewDouble(f float64) Value { return Value{Type: DataTypeDouble, Float: f} }

func NewVarChar(s string) Value { return Value{Type: DataTypeVarChar, Str: s} }

func NewFloatVector(v []float32) Value { return Value{Type: DataTypeFloatVector, Vector: v} }

func intRange(dt DataType) (int64, int64) {
	switch dt {
	case DataTypeInt8:
		return math.MinInt8, math.MaxInt8
	case DataTypeInt16:
		return math.MinInt16, math.MaxInt16
	case DataTypeInt32:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

func newInt(dt DataType, i int64) (Value, error) {
	lo, hi := intRange(dt)
	if i < lo || i > hi {
		return Value{}, fmt.Errorf("value %d out of range for %s", i, dt)
	}
	return Value{Type: dt, Int: i}, nil
}

func newFloat(dt DataType, f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("value %v is not a finite number", f)
	}
	if dt == DataTypeFloat {
		if math.Abs(f) > math.MaxFloat32 {
			return Value{}, fmt.Errorf("value %v out of range for %s", f, dt)
		}
		f = float64(float32(f))
	}
	return Value{Type: dt, Float: f}, nil
}

// NewValue converts a Go value to a Value of the given type. Integer widths are range
// checked and floats are only accepted for integer types when they are integral.
func NewValue(dt DataType, x interface{}) (Value, error) {
	if v, ok := x.(Value); ok {
		return v.Convert(dt)
	}
	switch {
	case dt == DataTypeBool:
		b, ok := x.(bool)
		if !ok {
			return Value{}, fmt.Errorf("%T is not a bool", x)
		}
		return NewBool(b), nil
	case dt.IsInteger():
		switch f := x.(type) {
		case float32:
			return intFromFloat(dt, float64(f))
		case float64:
			return intFromFloat(dt, f)
		case bool, string:
			return Value{}, fmt.Errorf("%T is not an integer", x)
		}
		i, err := cast.ToInt64E(x)
		if err != nil {
			return Value{}, err
		}
		return newInt(dt, i)
	case dt.IsFloat():
		switch x.(type) {
		case bool, string:
			return Value{}, fmt.Errorf("%T is not a number", x)
		}
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return Value{}, err
		}
		return newFloat(dt, f)
	case dt == DataTypeVarChar:
		s, ok := x.(string)
		if !ok {
			return Value{}, fmt.Errorf("%T is not a string", x)
		}
		return NewVarChar(s), nil
	case dt == DataTypeFloatVector:
		switch vec := x.(type) {
		case []float32:
			return NewFloatVector(vec), nil
		case []float64:
			out := make([]float32, len(vec))
			for i, f := range vec {
				out[i] = float32(f)
			}
			return NewFloatVector(out), nil
		case []interface{}:
			out := make([]float32, len(vec))
			for i, e := range vec {
				f, err := cast.ToFloat32E(e)
				if err != nil {
					return Value{}, err
				}
				out[i] = f
			}
			return NewFloatVector(out), nil
		}
		return Value{}, fmt.Errorf("%T is not a float vector", x)
	}
	return Value{}, fmt.Errorf("unknown data type %s", dt)
}

func intFromFloat(dt DataType, f float64) (Value, error) {
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return Value{}, fmt.Errorf("value %v is not an integer", f)
	}
	return newInt(dt, int64(f))
}

// Convert returns v as type dt when the conversion is lossless.
func (v Value) Convert(dt DataType) (Value, error) {
	if v.Type == dt {
		if dt.IsInteger() {
			return newInt(dt, v.Int)
		}
		return v, nil
	}
	switch {
	case v.Type.IsInteger() && dt.IsInteger():
		return newInt(dt, v.Int)
	case v.Type.IsInteger() && dt.IsFloat():
		return newFloat(dt, float64(v.Int))
	case v.Type.IsFloat() && dt.IsFloat():
		return newFloat(dt, v.Float)
	}
	return Value{}, fmt.Errorf("can not use %s value as %s", v.Type, dt)
}

// ParseValue decodes a JSON value as dt. Integers are read as int64 so no precision is lost.
func ParseValue(dt DataType, jv *fastjson.Value) (Value, error) {
	if jv == nil {
		return Value{}, fmt.Errorf("missing value")
	}
	switch {
	case dt == DataTypeBool:
		b, err := jv.Bool()
		if err != nil {
			return Value{}, err
		}
		return NewBool(b), nil
	case dt.IsInteger():
		if jv.Type() != fastjson.TypeNumber {
			return Value{}, fmt.Errorf("%s is not an integer", jv.Type())
		}
		i, err := jv.Int64()
		if err != nil {
			return Value{}, err
		}
		return newInt(dt, i)
	case dt.IsFloat():
		f, err := jv.Float64()
		if err != nil {
			return Value{}, err
		}
		return newFloat(dt, f)
	case dt == DataTypeVarChar:
		s, err := jv.StringBytes()
		if err != nil {
			return Value{}, err
		}
		return NewVarChar(string(s)), nil
	case dt == DataTypeFloatVector:
		arr, err := jv.Array()
		if err != nil {
			return Value{}, err
		}
		vec := make([]float32, len(arr))
		for i, e := range arr {
			f, err := e.Float64()
			if err != nil {
				return Value{}, err
			}
			vec[i] = float32(f)
		}
		return NewFloatVector(vec), nil
	}
	return Value{}, fmt.Errorf("unknown data type %s", dt)
}

// InferValue decodes a JSON value without a schema: integral numbers become Int64, other
// numbers Double, arrays FloatVector.
func InferValue(jv *fastjson.Value) (Value, error) {
	switch jv.Type() {
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return ParseValue(DataTypeBool, jv)
	case fastjson.TypeString:
		return ParseValue(DataTypeVarChar, jv)
	case fastjson.TypeArray:
		return ParseValue(DataTypeFloatVector, jv)
	case fastjson.TypeNumber:
		if i, err := jv.Int64(); err == nil {
			return NewInt64(i), nil
		}
		return ParseValue(DataTypeDouble, jv)
	}
	return Value{}, fmt.Errorf("can not infer type of %s", jv.Type())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	parsed, err := InferValue(jv)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.Type == DataTypeBool:
		return strconv.AppendBool(nil, v.Bool), nil
	case v.Type.IsInteger():
		return strconv.AppendInt(nil, v.Int, 10), nil
	case v.Type == DataTypeFloat:
		return strconv.AppendFloat(nil, v.Float, 'g', -1, 32), nil
	case v.Type == DataTypeDouble:
		return strconv.AppendFloat(nil, v.Float, 'g', -1, 64), nil
	case v.Type == DataTypeVarChar:
		return vjson.Marshal(v.Str)
	case v.Type == DataTypeFloatVector:
		if v.Vector == nil {
			return []byte("[]"), nil
		}
		return vjson.Marshal(v.Vector)
	}
	return []byte("null"), nil
}

// Interface returns the plain Go value: bool, int64, float64, string or []float32.
func (v Value) Interface() interface{} {
	switch {
	case v.Type == DataTypeBool:
		return v.Bool
	case v.Type.IsInteger():
		return v.Int
	case v.Type.IsFloat():
		return v.Float
	case v.Type == DataTypeVarChar:
		return v.Str
	case v.Type == DataTypeFloatVector:
		return v.Vector
	}
	return nil
}

func (v Value) IsZero() bool {
	return v.Type == ""
}

func (v Value) String() string {
	switch {
	case v.Type == DataTypeVarChar:
		return v.Str
	case v.Type == DataTypeFloatVector:
		return fmt.Sprint(v.Vector)
	}
	return cast.ToString(v.Interface())
}

func (v Value) Equal(o Value) bool {
	if v.Type == DataTypeFloatVector || o.Type == DataTypeFloatVector {
		if v.Type != o.Type || len(v.Vector) != len(o.Vector) {
			return false
		}
		for i := range v.Vector {
			if v.Vector[i] != o.Vector[i] {
				return false
			}
		}
		return true
	}
	c, ok := Compare(v, o)
	return ok && c == 0
}

// Compare orders two scalar values. ok is false when the types are not comparable.
func Compare(a, b Value) (c int, ok bool) {
	switch {
	case a.Type.IsInteger() && b.Type.IsInteger():
		return cmpOrdered(a.Int, b.Int), true
	case a.Type.IsNumeric() && b.Type.IsNumeric():
		return cmpOrdered(a.number(), b.number()), true
	case a.Type == DataTypeVarChar && b.Type == DataTypeVarChar:
		return cmpOrdered(a.Str, b.Str), true
	case a.Type == DataTypeBool && b.Type == DataTypeBool:
		if a.Bool == b.Bool {
			return 0, true
		}
		if !a.Bool {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func (v Value) number() float64 {
	if v.Type.IsInteger() {
		return float64(v.Int)
	}
	return v.Float
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func mismatch(field string, err error) *fault.Error {
	return fault.SchemaMismatch("field %s: %v", field, err)
}

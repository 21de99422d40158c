package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/proto/fault"
)

func userSchema() *CollectionSchema {
	return NewSchema("users").
		WithDescription("user profiles").
		WithField(NewField("user_id", DataTypeInt64).WithIsPrimaryKey(true)).
		WithField(NewField("user_name", DataTypeVarChar).WithMaxLength(128)).
		WithField(NewField("user_age", DataTypeInt32)).
		WithField(NewField("embedding", DataTypeFloatVector).WithDim(4))
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, userSchema().Validate())

	tests := []struct {
		name   string
		mutate func(s *CollectionSchema)
	}{
		{"empty name", func(s *CollectionSchema) { s.CollectionName = "" }},
		{"name starts with digit", func(s *CollectionSchema) { s.CollectionName = "1users" }},
		{"name with dash", func(s *CollectionSchema) { s.CollectionName = "my-users" }},
		{"no primary key", func(s *CollectionSchema) { s.Fields[0].IsPrimaryKey = false }},
		{"two primary keys", func(s *CollectionSchema) { s.Fields[1].IsPrimaryKey = true }},
		{"float primary key", func(s *CollectionSchema) {
			s.Fields[0].IsPrimaryKey = false
			s.Fields = append(s.Fields, NewField("pk", DataTypeDouble).WithIsPrimaryKey(true))
		}},
		{"auto id on varchar", func(s *CollectionSchema) { s.Fields[1].AutoID = true }},
		{"no vector", func(s *CollectionSchema) { s.Fields = s.Fields[:3] }},
		{"zero dimension", func(s *CollectionSchema) { s.Fields[3].Dimension = 0 }},
		{"huge dimension", func(s *CollectionSchema) { s.Fields[3].Dimension = MaxDimension + 1 }},
		{"varchar without length", func(s *CollectionSchema) { s.Fields[1].MaxLength = 0 }},
		{"duplicate field", func(s *CollectionSchema) { s.Fields = append(s.Fields, NewField("user_age", DataTypeInt8)) }},
		{"unknown type", func(s *CollectionSchema) { s.Fields[2].DataType = "Int128" }},
		{"too many shards", func(s *CollectionSchema) { s.ShardNum = MaxShardNum + 1 }},
		{"bad consistency", func(s *CollectionSchema) { s.ConsistencyLevel = "Linearizable" }},
		{"scalar dimension", func(s *CollectionSchema) { s.Fields[2].Dimension = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := userSchema()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, fault.IsCode(err, fault.ErrSchema), err.Error())
		})
	}
}

func TestSchemaAccessors(t *testing.T) {
	s := userSchema()
	assert.Equal(t, "user_id", s.PrimaryField().Name)
	assert.Len(t, s.VectorFields(), 1)
	assert.Equal(t, []string{"user_id", "user_name", "user_age"}, s.ScalarFieldNames())
	assert.Nil(t, s.Field("missing"))
	assert.Equal(t, 1, s.Shards())
	assert.Equal(t, DataTypeInt32, s.FieldTypes()["user_age"])
}

func TestCheckRow(t *testing.T) {
	s := userSchema()
	good := func() Row {
		return Row{
			"user_id":   NewInt64(1),
			"user_name": NewVarChar("user_1"),
			"user_age":  NewInt64(30),
			"embedding": NewFloatVector([]float32{1, 2, 3, 4}),
		}
	}

	r := good()
	require.NoError(t, s.CheckRow(r))
	assert.Equal(t, DataTypeInt32, r["user_age"].Type)

	r = good()
	delete(r, "user_age")
	assert.True(t, fault.IsCode(s.CheckRow(r), fault.ErrSchemaMismatch))

	r = good()
	r["extra"] = NewBool(true)
	assert.True(t, fault.IsCode(s.CheckRow(r), fault.ErrSchemaMismatch))

	r = good()
	r["user_name"] = NewInt64(3)
	assert.True(t, fault.IsCode(s.CheckRow(r), fault.ErrSchemaMismatch))

	r = good()
	r["user_age"] = NewInt64(1 << 40)
	assert.True(t, fault.IsCode(s.CheckRow(r), fault.ErrSchemaMismatch))

	r = good()
	r["embedding"] = NewFloatVector([]float32{1, 2, 3})
	err := s.CheckRow(r)
	assert.True(t, fault.IsCode(err, fault.ErrDimensionMismatch))
	assert.Equal(t, 4, fault.AsError(err).Details["expected"])

	s.Fields[1].MaxLength = 3
	r = good()
	assert.True(t, fault.IsCode(s.CheckRow(r), fault.ErrSchemaMismatch))
}

func TestCheckRowAutoID(t *testing.T) {
	s := userSchema()
	s.Fields[0].AutoID = true
	require.NoError(t, s.Validate())

	r := Row{
		"user_name": NewVarChar("a"),
		"user_age":  NewInt32(3),
		"embedding": NewFloatVector([]float32{1, 2, 3, 4}),
	}
	require.NoError(t, s.CheckRow(r))

	r["user_id"] = NewInt64(9)
	assert.True(t, fault.IsCode(s.CheckRow(r), fault.ErrSchemaMismatch))
}

func TestIndexValidate(t *testing.T) {
	s := userSchema()
	vec, name, age := s.Field("embedding"), s.Field("user_name"), s.Field("user_age")

	ivf := NewIndex("embedding", IndexIvfFlat).WithMetricType(MetricCosine).WithParam("nlist", 100)
	require.NoError(t, ivf.ValidateFor(vec))
	assert.Equal(t, "100", ivf.Params["nlist"])

	assert.True(t, fault.IsCode(NewIndex("user_name", IndexTrie).ValidateFor(vec), fault.ErrUnsupportedIndexType))
	assert.True(t, fault.IsCode(NewIndex("user_name", IndexSTLSort).ValidateFor(name), fault.ErrUnsupportedIndexType))
	assert.True(t, fault.IsCode(NewIndex("user_age", IndexHNSW).ValidateFor(age), fault.ErrUnsupportedIndexType))
	assert.True(t, fault.IsCode(NewIndex("embedding", "DISKANN").ValidateFor(vec), fault.ErrUnsupportedIndexType))
	require.NoError(t, NewIndex("user_name", IndexTrie).ValidateFor(name))
	require.NoError(t, NewIndex("user_age", IndexSTLSort).ValidateFor(age))
	require.NoError(t, NewIndex("user_age", IndexInverted).ValidateFor(age))

	assert.True(t, fault.IsCode(NewIndex("embedding", IndexIvfFlat).WithParam("nlist", 0).ValidateFor(vec), fault.ErrInvalidParam))
	assert.True(t, fault.IsCode(NewIndex("embedding", IndexIvfPQ).WithParam("m", 3).ValidateFor(vec), fault.ErrInvalidParam))
	assert.True(t, fault.IsCode(NewIndex("embedding", IndexHNSW).WithParam("M", 2).ValidateFor(vec), fault.ErrInvalidParam))
	assert.True(t, fault.IsCode(NewIndex("embedding", IndexHNSW).WithParam("efConstruction", "x").ValidateFor(vec), fault.ErrInvalidParam))
	assert.True(t, fault.IsCode(NewIndex("embedding", IndexFlat).WithMetricType("HAMMING").ValidateFor(vec), fault.ErrInvalidParam))
	assert.True(t, fault.IsCode(NewIndex("user_age", IndexSTLSort).WithMetricType(MetricL2).ValidateFor(age), fault.ErrInvalidParam))
}

func TestIndexNormalizeEqual(t *testing.T) {
	a := NewIndex("embedding", IndexIvfFlat).WithParam("nlist", 100)
	a.Normalize()
	assert.Equal(t, "embedding", a.IndexName)
	assert.Equal(t, MetricCosine, a.MetricType)

	b := NewIndex("embedding", IndexIvfFlat).WithMetricType(MetricCosine).WithParam("nlist", "100")
	b.Normalize()
	assert.True(t, a.Equal(b))

	b.WithParam("nlist", 64)
	assert.False(t, a.Equal(b))
}

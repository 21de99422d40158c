package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/proto/entity"
)

func testMeta(name string) *CollectionMeta {
	return &CollectionMeta{
		Schema: entity.NewSchema(name).
			WithField(entity.NewField("id", entity.DataTypeInt64).WithIsPrimaryKey(true)).
			WithField(entity.NewField("name", entity.DataTypeVarChar).WithMaxLength(16)).
			WithField(entity.NewField("vec", entity.DataTypeFloatVector).WithDim(2)),
		Indexes:   []*entity.IndexDesc{entity.NewIndex("vec", entity.IndexFlat).WithMetricType(entity.MetricL2)},
		CreatedTs: 42,
	}
}

func record(id int64, name string, ts uint64) *Record {
	pk := entity.NewInt64(id)
	return &Record{
		Key: Key(pk),
		Ts:  ts,
		Row: entity.Row{
			"id":   pk,
			"name": entity.NewVarChar(name),
			"vec":  entity.NewFloatVector([]float32{float32(id), 1}),
		},
	}
}

func scanAll(t *testing.T, s Store, collection string) []*Record {
	var out []*Record
	require.NoError(t, s.ScanRows(context.Background(), collection, func(r *Record) error {
		out = append(out, r)
		return nil
	}))
	return out
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	defer s.Close()

	require.NoError(t, s.SaveCollection(ctx, testMeta("b")))
	require.NoError(t, s.SaveCollection(ctx, testMeta("a")))

	metas, err := s.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "a", metas[0].Schema.CollectionName)
	assert.Equal(t, uint64(42), metas[0].CreatedTs)
	assert.Equal(t, entity.MetricL2, metas[0].Indexes[0].MetricType)
	assert.Equal(t, int64(2), metas[0].Schema.Field("vec").Dimension)

	require.NoError(t, s.PutRows(ctx, "a", []*Record{record(1, "one", 10), record(2, "two", 11)}))
	require.NoError(t, s.PutRows(ctx, "a", []*Record{record(2, "deux", 12)}))

	records := scanAll(t, s, "a")
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].Row.Str("name"))
	assert.Equal(t, "deux", records[1].Row.Str("name"))
	assert.Equal(t, uint64(12), records[1].Ts)
	assert.Equal(t, []float32{2, 1}, records[1].Row.Vector("vec"))
	assert.Equal(t, entity.DataTypeInt64, records[1].Row["id"].Type)

	require.NoError(t, s.DeleteRows(ctx, "a", []string{Key(entity.NewInt64(1))}))
	assert.Len(t, scanAll(t, s, "a"), 1)

	require.NoError(t, s.DeleteCollection(ctx, "a"))
	metas, err = s.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "b", metas[0].Schema.CollectionName)
}

func TestMemoryStore(t *testing.T) {
	s, err := OpenStore("memory", "")
	require.NoError(t, err)
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenStore("sqlite", t.TempDir())
	require.NoError(t, err)
	testStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenStore("sqlite", dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveCollection(ctx, testMeta("users")))
	require.NoError(t, s.PutRows(ctx, "users", []*Record{record(7, "seven", 1)}))
	require.NoError(t, s.Close())

	s, err = OpenStore("sqlite", dir)
	require.NoError(t, err)
	defer s.Close()
	metas, err := s.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	records := scanAll(t, s, "users")
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].Row.Int64("id"))
}

func TestOpenUnknownStore(t *testing.T) {
	_, err := OpenStore("rocksdb", "")
	assert.Error(t, err)

	_, err = OpenStore("sqlite", "")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "i:-3", Key(entity.NewInt64(-3)))
	assert.Equal(t, "s:abc", Key(entity.NewVarChar("abc")))
}

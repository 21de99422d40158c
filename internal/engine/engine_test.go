package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

const testCollection = "users"

func testSchema() *entity.CollectionSchema {
	return entity.NewSchema(testCollection).
		WithField(entity.NewField("user_id", entity.DataTypeInt64).WithIsPrimaryKey(true)).
		WithField(entity.NewField("user_name", entity.DataTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField("user_age", entity.DataTypeInt32)).
		WithField(entity.NewField("embedding", entity.DataTypeFloatVector).WithDim(2)).
		WithShardNum(4)
}

func newEngine(t *testing.T, opts Options) *Engine {
	store, err := storage.OpenStore("memory", "")
	require.NoError(t, err)
	e, err := Open(context.Background(), store, opts)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func testRow(i int) entity.Row {
	return entity.Row{
		"user_id":   entity.NewInt64(int64(i)),
		"user_name": entity.NewVarChar(fmt.Sprintf("user_%d", i)),
		"user_age":  entity.NewInt32(int32(i % 100)),
		"embedding": entity.NewFloatVector([]float32{float32(i), 1}),
	}
}

func testRows(from, to int) []entity.Row {
	var rows []entity.Row
	for i := from; i < to; i++ {
		rows = append(rows, testRow(i))
	}
	return rows
}

func waitLoaded(t *testing.T, e *Engine, name string) {
	require.Eventually(t, func() bool {
		st, err := e.GetLoadState(name)
		return err == nil && st.State == entity.LoadStateLoaded
	}, 5*time.Second, 5*time.Millisecond)
}

// setup creates, indexes, loads and fills the test collection.
func setup(t *testing.T, e *Engine, metric entity.MetricType, n int) {
	ctx := context.Background()
	require.NoError(t, e.CreateCollection(ctx, testSchema()))
	require.NoError(t, e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{
		entity.NewIndex("embedding", entity.IndexIvfFlat).WithMetricType(metric).WithParam("nlist", 100),
		entity.NewIndex("user_name", entity.IndexTrie),
	}))
	require.NoError(t, e.LoadCollection(testCollection, 1))
	waitLoaded(t, e, testCollection)
	if n > 0 {
		_, err := e.Insert(ctx, testCollection, testRows(0, n))
		require.NoError(t, err)
	}
}

func TestCollectionLifecycle(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()

	require.NoError(t, e.CreateCollection(ctx, testSchema()))
	assert.True(t, fault.IsAlreadyExists(e.CreateCollection(ctx, testSchema())))
	assert.True(t, e.HasCollection(testCollection))
	assert.Equal(t, []string{testCollection}, e.ListCollections())

	info, err := e.DescribeCollection(testCollection)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionCreated, info.State)
	assert.Equal(t, int32(4), info.Schema.ShardNum)

	err = e.LoadCollection(testCollection, 1)
	assert.True(t, fault.IsCode(err, fault.ErrIndexNotFound))

	require.NoError(t, e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{entity.NewIndex("embedding", entity.IndexFlat)}))
	info, _ = e.DescribeCollection(testCollection)
	assert.Equal(t, entity.CollectionIndexed, info.State)

	assert.True(t, fault.IsCode(e.LoadCollection(testCollection, 2), fault.ErrInvalidParam))
	require.NoError(t, e.LoadCollection(testCollection, 1))
	waitLoaded(t, e, testCollection)

	err = e.DropIndex(ctx, testCollection, "embedding")
	assert.True(t, fault.IsCode(err, fault.ErrConflict))

	require.NoError(t, e.ReleaseCollection(testCollection))
	info, _ = e.DescribeCollection(testCollection)
	assert.Equal(t, entity.CollectionReleased, info.State)

	_, err = e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection})
	assert.True(t, fault.IsCode(err, fault.ErrNotLoaded))

	require.NoError(t, e.DropIndex(ctx, testCollection, "embedding"))
	assert.True(t, fault.IsCode(e.DropIndex(ctx, testCollection, "embedding"), fault.ErrIndexNotFound))

	require.NoError(t, e.DropCollection(ctx, testCollection))
	assert.False(t, e.HasCollection(testCollection))
	assert.True(t, fault.IsNotFound(e.DropCollection(ctx, testCollection)))

	st, err := e.GetLoadState(testCollection)
	require.NoError(t, err)
	assert.Equal(t, entity.LoadStateNotExist, st.State)
}

func TestCreateIndexRules(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	require.NoError(t, e.CreateCollection(ctx, testSchema()))

	ivf := func() *entity.IndexDesc {
		return entity.NewIndex("embedding", entity.IndexIvfFlat).WithMetricType(entity.MetricCosine).WithParam("nlist", 100)
	}
	require.NoError(t, e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{ivf()}))
	require.NoError(t, e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{ivf()}))

	err := e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{entity.NewIndex("embedding", entity.IndexHNSW)})
	assert.True(t, fault.IsAlreadyExists(err))

	err = e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{entity.NewIndex("missing", entity.IndexTrie)})
	assert.True(t, fault.IsCode(err, fault.ErrFieldNotFound))

	err = e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{entity.NewIndex("user_age", entity.IndexTrie)})
	assert.True(t, fault.IsCode(err, fault.ErrUnsupportedIndexType))

	require.NoError(t, e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{entity.NewIndex("user_age", entity.IndexSTLSort)}))

	idx, err := e.DescribeIndex(testCollection, "")
	require.NoError(t, err)
	assert.Len(t, idx, 2)
	idx, err = e.DescribeIndex(testCollection, "embedding")
	require.NoError(t, err)
	assert.Equal(t, "100", idx[0].Params["nlist"])
	_, err = e.DescribeIndex(testCollection, "user_name")
	assert.True(t, fault.IsCode(err, fault.ErrIndexNotFound))
}

func TestInsertAllOrNothing(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	setup(t, e, entity.MetricCosine, 10)

	rows := testRows(10, 13)
	rows[2]["embedding"] = entity.NewFloatVector([]float32{1, 2, 3})
	_, err := e.Insert(ctx, testCollection, rows)
	assert.True(t, fault.IsCode(err, fault.ErrDimensionMismatch))

	_, err = e.Insert(ctx, testCollection, testRows(9, 11))
	assert.True(t, fault.IsAlreadyExists(err))

	_, err = e.Insert(ctx, testCollection, []entity.Row{testRow(20), testRow(20)})
	assert.True(t, fault.IsAlreadyExists(err))

	bad := testRow(30)
	delete(bad, "user_age")
	_, err = e.Insert(ctx, testCollection, []entity.Row{bad})
	assert.True(t, fault.IsCode(err, fault.ErrSchemaMismatch))

	info, err := e.DescribeCollection(testCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.RowCount)

	res, err := e.Insert(ctx, testCollection, testRows(10, 12))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
	assert.Equal(t, int64(11), res.IDs[1].Int)
	assert.NotZero(t, res.Timestamp)
}

func TestQuery(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	setup(t, e, entity.MetricCosine, 1000)

	res, err := e.Query(ctx, &entity.QueryRequest{
		CollectionName: testCollection, OutputFields: []string{entity.CountStar},
		ConsistencyLevel: entity.ConsistencyStrong,
	})
	require.NoError(t, err)
	n, ok := res.Count()
	require.True(t, ok)
	assert.Equal(t, int64(1000), n)

	res, err = e.Query(ctx, &entity.QueryRequest{
		CollectionName: testCollection, Filter: "user_id in [5, 10]",
		OutputFields: []string{"user_name", "user_age"}, ConsistencyLevel: entity.ConsistencyEventually,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"user_id", "user_name", "user_age"}, res.OutputFields)
	assert.Equal(t, "user_5", res.Rows[0].Str("user_name"))
	assert.Equal(t, int64(10), res.Rows[1].Int64("user_age"))
	_, hasVector := res.Rows[0]["embedding"]
	assert.False(t, hasVector)

	res, err = e.Query(ctx, &entity.QueryRequest{
		CollectionName: testCollection, Filter: "user_age > 97", OutputFields: []string{"*"}, Limit: 3, Offset: 1,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, int64(99), res.Rows[0].Int64("user_id"))
	assert.Len(t, res.Rows[0], 3)

	_, err = e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, Filter: "user_id ="})
	assert.True(t, fault.IsCode(err, fault.ErrInvalidFilter))

	_, err = e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, OutputFields: []string{entity.CountStar, "user_id"}})
	assert.True(t, fault.IsCode(err, fault.ErrInvalidParam))

	_, err = e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, OutputFields: []string{"nope"}})
	assert.True(t, fault.IsCode(err, fault.ErrFieldNotFound))
}

func TestSearch(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	setup(t, e, entity.MetricL2, 100)

	res, err := e.Search(ctx, &entity.SearchRequest{
		CollectionName: testCollection,
		Vectors:        [][]float32{{5, 1}, {10, 1}},
		Limit:          3,
		Filter:         "user_age > 4",
		OutputFields:   []string{"user_name"},
	})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, entity.MetricL2, res.MetricType)

	g := res.Groups[0]
	require.Equal(t, 3, g.Len())
	assert.Equal(t, int64(5), g.IDs[0].Int)
	assert.Equal(t, float32(0), g.Scores[0])
	// row 4 is filtered out, leaving 6 as the only neighbour at distance 1
	assert.Equal(t, int64(6), g.IDs[1].Int)
	assert.Equal(t, int64(7), g.IDs[2].Int)
	assert.Equal(t, "user_5", g.Rows[0].Str("user_name"))
	assert.Equal(t, int64(10), res.Groups[1].IDs[0].Int)
	// ties at distance 1 break by primary key
	assert.Equal(t, int64(9), res.Groups[1].IDs[1].Int)
	assert.Equal(t, int64(11), res.Groups[1].IDs[2].Int)

	_, err = e.Search(ctx, &entity.SearchRequest{CollectionName: testCollection, Vectors: [][]float32{{1, 1}, {1, 2, 3}}})
	assert.True(t, fault.IsCode(err, fault.ErrDimensionMismatch))

	_, err = e.Search(ctx, &entity.SearchRequest{CollectionName: testCollection, Vectors: [][]float32{{1, 1}}, MetricType: entity.MetricIP})
	assert.True(t, fault.IsCode(err, fault.ErrInvalidParam))

	_, err = e.Search(ctx, &entity.SearchRequest{CollectionName: testCollection, Vectors: [][]float32{{1, 1}}, Limit: entity.MaxSearchLimit + 1})
	assert.True(t, fault.IsCode(err, fault.ErrInvalidParam))

	_, err = e.Search(ctx, &entity.SearchRequest{CollectionName: testCollection, Vectors: [][]float32{{1, 1}}, Filter: "user_age >>"})
	assert.True(t, fault.IsCode(err, fault.ErrInvalidFilter))

	res, err = e.Search(ctx, &entity.SearchRequest{CollectionName: testCollection, Vectors: [][]float32{{1, 1}}})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSearchLimit, res.Groups[0].Len())
}

func TestSearchCosineAndIP(t *testing.T) {
	ctx := context.Background()

	e := newEngine(t, Options{})
	setup(t, e, entity.MetricCosine, 0)
	_, err := e.Insert(ctx, testCollection, []entity.Row{
		{"user_id": entity.NewInt64(1), "user_name": entity.NewVarChar("a"), "user_age": entity.NewInt32(1), "embedding": entity.NewFloatVector([]float32{1, 0})},
		{"user_id": entity.NewInt64(2), "user_name": entity.NewVarChar("b"), "user_age": entity.NewInt32(1), "embedding": entity.NewFloatVector([]float32{0, 1})},
		{"user_id": entity.NewInt64(3), "user_name": entity.NewVarChar("c"), "user_age": entity.NewInt32(1), "embedding": entity.NewFloatVector([]float32{0, 0})},
	})
	require.NoError(t, err)
	res, err := e.Search(ctx, &entity.SearchRequest{CollectionName: testCollection, Vectors: [][]float32{{2, 0}}})
	require.NoError(t, err)
	g := res.Groups[0]
	require.Equal(t, 3, g.Len())
	assert.Equal(t, int64(1), g.IDs[0].Int)
	assert.InDelta(t, 1.0, g.Scores[0], 1e-5)
	assert.InDelta(t, 0.0, g.Scores[1], 1e-5)

	scoreIP := scorerOf(entity.MetricIP)
	q := []float32{2, 0}
	assert.InDelta(t, 6.0, scoreIP(q, 2, []float32{3, 4}), 1e-4)
	assert.Equal(t, float32(0), scoreIP(q, 2, []float32{0, 0}))
}

func TestUpsertAndDelete(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	setup(t, e, entity.MetricCosine, 10)

	r := testRow(3)
	r["user_name"] = entity.NewVarChar("renamed")
	_, err := e.Upsert(ctx, testCollection, []entity.Row{r, testRow(50)})
	require.NoError(t, err)

	res, err := e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, Filter: "user_id in [3, 50]", OutputFields: []string{"user_name"}, ConsistencyLevel: entity.ConsistencyStrong})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "renamed", res.Rows[0].Str("user_name"))

	del, err := e.Delete(ctx, testCollection, "user_id < 5")
	require.NoError(t, err)
	assert.Equal(t, int64(5), del.Count)

	_, err = e.Delete(ctx, testCollection, "")
	assert.True(t, fault.IsCode(err, fault.ErrInvalidParam))

	res, err = e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, OutputFields: []string{entity.CountStar}})
	require.NoError(t, err)
	n, _ := res.Count()
	assert.Equal(t, int64(6), n)
}

func TestAutoID(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	s := testSchema()
	s.Fields[0].AutoID = true
	require.NoError(t, e.CreateCollection(ctx, s))

	rows := testRows(0, 3)
	for _, r := range rows {
		delete(r, "user_id")
	}
	res, err := e.Insert(ctx, testCollection, rows)
	require.NoError(t, err)
	require.Len(t, res.IDs, 3)
	assert.Less(t, res.IDs[0].Int, res.IDs[1].Int)
	assert.Less(t, res.IDs[1].Int, res.IDs[2].Int)
}

func TestConsistencyLevels(t *testing.T) {
	e := newEngine(t, Options{VisibilityDelay: 200 * time.Millisecond})
	ctx := context.Background()
	setup(t, e, entity.MetricCosine, 0)

	res, err := e.Insert(ctx, testCollection, testRows(0, 5))
	require.NoError(t, err)

	count := func(level entity.ConsistencyLevel, session uint64) int64 {
		q, err := e.Query(ctx, &entity.QueryRequest{
			CollectionName: testCollection, OutputFields: []string{entity.CountStar},
			ConsistencyLevel: level, GuaranteeTimestamp: session,
		})
		require.NoError(t, err)
		n, _ := q.Count()
		return n
	}

	assert.Equal(t, int64(0), count(entity.ConsistencyEventually, 0))
	assert.Equal(t, int64(5), count(entity.ConsistencySession, res.Timestamp))
	assert.Equal(t, int64(5), count(entity.ConsistencyEventually, 0))

	_, err = e.Insert(ctx, testCollection, testRows(5, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(6), count(entity.ConsistencyStrong, 0))

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = e.Insert(ctx, testCollection, testRows(6, 7))
	require.NoError(t, err)
	_, err = e.Query(short, &entity.QueryRequest{CollectionName: testCollection, ConsistencyLevel: entity.ConsistencyStrong})
	assert.True(t, fault.IsCode(err, fault.ErrTimeout))
}

func TestUpsertKeepsPreviousVersionUntilVisible(t *testing.T) {
	e := newEngine(t, Options{VisibilityDelay: 300 * time.Millisecond})
	ctx := context.Background()
	setup(t, e, entity.MetricL2, 0)

	res, err := e.Insert(ctx, testCollection, testRows(0, 3))
	require.NoError(t, err)

	name := func(level entity.ConsistencyLevel, session uint64) string {
		q, err := e.Query(ctx, &entity.QueryRequest{
			CollectionName: testCollection, Filter: "user_id == 1", OutputFields: []string{"user_name"},
			ConsistencyLevel: level, GuaranteeTimestamp: session,
		})
		require.NoError(t, err)
		require.Equal(t, 1, q.Len())
		return q.Rows[0]["user_name"].Str
	}
	count := func(level entity.ConsistencyLevel) int64 {
		q, err := e.Query(ctx, &entity.QueryRequest{
			CollectionName: testCollection, OutputFields: []string{entity.CountStar}, ConsistencyLevel: level,
		})
		require.NoError(t, err)
		n, _ := q.Count()
		return n
	}
	assert.Equal(t, "user_1", name(entity.ConsistencySession, res.Timestamp))

	var last uint64
	for _, renamed := range []string{"first", "second"} {
		row := testRow(1)
		row["user_name"] = entity.NewVarChar(renamed)
		up, err := e.Upsert(ctx, testCollection, []entity.Row{row})
		require.NoError(t, err)
		last = up.Timestamp
	}

	assert.Equal(t, int64(3), count(entity.ConsistencyEventually))
	assert.Equal(t, "user_1", name(entity.ConsistencyEventually, 0))
	search, err := e.Search(ctx, &entity.SearchRequest{
		CollectionName: testCollection, AnnsField: "embedding", Vectors: [][]float32{{1, 1}},
		ConsistencyLevel: entity.ConsistencyEventually,
	})
	require.NoError(t, err)
	require.Len(t, search.Groups, 1)
	assert.Equal(t, 3, search.Groups[0].Len())

	assert.Equal(t, "second", name(entity.ConsistencySession, last))
	assert.Equal(t, int64(3), count(entity.ConsistencyStrong))
	assert.Equal(t, "second", name(entity.ConsistencyEventually, 0))
}

func TestListCollectionsSorted(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		schema := testSchema()
		schema.CollectionName = name
		require.NoError(t, e.CreateCollection(ctx, schema))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, e.ListCollections())
}

func TestLoadIsAsynchronous(t *testing.T) {
	e := newEngine(t, Options{LoadDelay: 100 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, e.CreateCollection(ctx, testSchema()))
	require.NoError(t, e.CreateIndex(ctx, testCollection, []*entity.IndexDesc{entity.NewIndex("embedding", entity.IndexFlat)}))
	_, err := e.Insert(ctx, testCollection, testRows(0, 20))
	require.NoError(t, err)

	require.NoError(t, e.LoadCollection(testCollection, 1))
	st, err := e.GetLoadState(testCollection)
	require.NoError(t, err)
	assert.Equal(t, entity.LoadStateLoading, st.State)

	_, err = e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection})
	assert.True(t, fault.IsCode(err, fault.ErrNotLoaded))

	waitLoaded(t, e, testCollection)
	st, _ = e.GetLoadState(testCollection)
	assert.Equal(t, 100, st.Progress)

	res, err := e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, OutputFields: []string{entity.CountStar}})
	require.NoError(t, err)
	n, _ := res.Count()
	assert.Equal(t, int64(20), n)
}

func TestRestoreFromSQLite(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := storage.OpenStore("sqlite", dir)
	require.NoError(t, err)
	e, err := Open(ctx, store, Options{})
	require.NoError(t, err)
	setup(t, e, entity.MetricCosine, 25)
	require.NoError(t, e.Close())

	store, err = storage.OpenStore("sqlite", dir)
	require.NoError(t, err)
	e, err = Open(ctx, store, Options{})
	require.NoError(t, err)
	defer e.Close()

	info, err := e.DescribeCollection(testCollection)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionReleased, info.State)
	assert.Equal(t, int64(25), info.RowCount)
	assert.Len(t, info.Indexes, 2)

	require.NoError(t, e.LoadCollection(testCollection, 1))
	waitLoaded(t, e, testCollection)
	res, err := e.Query(ctx, &entity.QueryRequest{CollectionName: testCollection, Filter: "user_name like 'user_2%'", OutputFields: []string{entity.CountStar}})
	require.NoError(t, err)
	n, _ := res.Count()
	assert.Equal(t, int64(6), n)
}

func TestTSOMonotonic(t *testing.T) {
	tso := NewTSO()
	fixed := time.UnixMilli(1_700_000_000_000)
	tso.now = func() time.Time { return fixed }

	a := tso.Next()
	b := tso.Next()
	assert.Equal(t, a+1, b)
	assert.Equal(t, fixed.UnixMilli(), PhysicalTime(b).UnixMilli())
	assert.Equal(t, b, tso.Last())
}

func TestHealth(t *testing.T) {
	e := newEngine(t, Options{})
	assert.Empty(t, e.Health())
	require.NoError(t, e.Close())
	assert.NotEmpty(t, e.Health())
}

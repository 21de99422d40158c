package document

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/engine"
	"github.com/vearch/vdbclient/internal/engine/expr"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

type testRouter struct {
	t       *testing.T
	handler http.Handler
	engine  *engine.Engine
	auth    string
}

func newTestRouter(t *testing.T, mutate func(conf *config.Config)) *testRouter {
	conf := config.Default()
	if mutate != nil {
		mutate(conf)
	}
	require.NoError(t, conf.Validate())

	store, err := storage.NewMemoryStore("")
	require.NoError(t, err)
	eng, err := engine.Open(context.Background(), store, engine.OptionsFromConfig(conf.Server))
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	gin.SetMode(gin.TestMode)
	httpServer := gin.New()
	ExportDocumentHandler(httpServer, eng, conf, NewLimiter(conf.Server.RateLimit))
	return &testRouter{
		t:       t,
		handler: httpServer,
		engine:  eng,
		auth:    AuthEncrypt(conf.Global.User, conf.Global.Password),
	}
}

func (r *testRouter) do(method, path string, body interface{}) (*httptest.ResponseRecorder, *entity.HttpReply) {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = vjson.Marshal(b)
		require.NoError(r.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if r.auth != "" {
		req.Header.Set("Authorization", r.auth)
	}
	rec := httptest.NewRecorder()
	r.handler.ServeHTTP(rec, req)

	reply := &entity.HttpReply{}
	require.NoError(r.t, vjson.Unmarshal(rec.Body.Bytes(), reply), rec.Body.String())
	return rec, reply
}

func (r *testRouter) ok(path string, body interface{}, out interface{}) {
	rec, reply := r.do(http.MethodPost, path, body)
	require.Equal(r.t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(r.t, fault.ErrOK, reply.Code)
	if out != nil {
		require.NoError(r.t, vjson.Unmarshal(reply.Data, out))
	}
}

func userSchema() *entity.CollectionSchema {
	return entity.NewSchema("users").
		WithField(entity.NewField("user_id", entity.DataTypeInt64).WithIsPrimaryKey(true)).
		WithField(entity.NewField("user_name", entity.DataTypeVarChar).WithMaxLength(32)).
		WithField(entity.NewField("user_face", entity.DataTypeFloatVector).WithDim(2))
}

func (r *testRouter) prepareLoaded() {
	r.ok("/v1/collections/create", &entity.CreateCollectionRequest{Schema: userSchema()}, nil)
	r.ok("/v1/indexes/create", &entity.CreateIndexRequest{
		CollectionName: "users",
		Indexes:        []*entity.IndexDesc{entity.NewIndex("user_face", entity.IndexFlat).WithMetricType(entity.MetricL2)},
	}, nil)
	r.ok("/v1/collections/load", &entity.LoadCollectionRequest{CollectionName: "users"}, nil)
	require.Eventually(r.t, func() bool {
		state := &entity.LoadStateInfo{}
		r.ok("/v1/collections/get_load_state", &entity.CollectionRequest{CollectionName: "users"}, state)
		return state.State == entity.LoadStateLoaded
	}, 5*time.Second, 10*time.Millisecond)
}

func TestVersionAndHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	rec, reply := r.do(http.MethodGet, "/v1/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	version := &entity.VersionInfo{}
	require.NoError(t, vjson.Unmarshal(reply.Data, version))
	assert.Equal(t, config.GetBuildVersion(), version.Version)
	assert.Equal(t, entity.ProtocolVersion, version.Protocol)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	_, reply = r.do(http.MethodGet, "/v1/health", nil)
	health := &entity.HealthInfo{}
	require.NoError(t, vjson.Unmarshal(reply.Data, health))
	assert.Empty(t, r.engine.Health())
}

func TestAuth(t *testing.T) {
	r := newTestRouter(t, nil)

	r.auth = ""
	rec, reply := r.do(http.MethodGet, "/v1/version", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, fault.ErrAuthentication, reply.Code)

	r.auth = AuthEncrypt("root", "wrong")
	rec, _ = r.do(http.MethodGet, "/v1/version", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r.auth = "Basic !!!"
	rec, _ = r.do(http.MethodGet, "/v1/version", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	skip := newTestRouter(t, func(conf *config.Config) { conf.Global.SkipAuth = true })
	skip.auth = ""
	rec, _ = skip.do(http.MethodGet, "/v1/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthCache(t *testing.T) {
	ac := NewAuthCache("root", "Milvus")
	header := AuthEncrypt("root", "Milvus")

	user, err := ac.Check(header)
	require.NoError(t, err)
	assert.Equal(t, "root", user)
	assert.Equal(t, 1, ac.Len())

	_, err = ac.Check(AuthEncrypt("root", "nope"))
	assert.True(t, fault.IsCode(err, fault.ErrAuthentication))
	assert.Equal(t, 1, ac.Len())

	ac.Invalidate()
	assert.Equal(t, 0, ac.Len())
}

func TestCollectionRoutes(t *testing.T) {
	r := newTestRouter(t, nil)
	r.ok("/v1/collections/create", &entity.CreateCollectionRequest{Schema: userSchema()}, nil)

	rec, reply := r.do(http.MethodPost, "/v1/collections/create", &entity.CreateCollectionRequest{Schema: userSchema()})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, fault.ErrAlreadyExists, reply.Code)

	has := &entity.HasResult{}
	r.ok("/v1/collections/has", &entity.CollectionRequest{CollectionName: "users"}, has)
	assert.True(t, has.Has)

	list := &entity.ListCollectionsResult{}
	r.ok("/v1/collections/list", "{}", list)
	assert.Equal(t, []string{"users"}, list.Collections)

	info := &entity.CollectionInfo{}
	r.ok("/v1/collections/describe", &entity.CollectionRequest{CollectionName: "users"}, info)
	assert.Equal(t, entity.CollectionCreated, info.State)
	assert.Len(t, info.Schema.Fields, 3)

	r.ok("/v1/collections/drop", &entity.CollectionRequest{CollectionName: "users"}, nil)
	rec, reply = r.do(http.MethodPost, "/v1/collections/describe", &entity.CollectionRequest{CollectionName: "users"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, fault.ErrCollectionNotFound, reply.Code)
}

func TestRequestValidation(t *testing.T) {
	r := newTestRouter(t, nil)

	rec, reply := r.do(http.MethodPost, "/v1/collections/drop", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, fault.ErrInvalidParam, reply.Code)

	_, reply = r.do(http.MethodPost, "/v1/collections/drop", "")
	assert.Equal(t, fault.ErrInvalidParam, reply.Code)

	_, reply = r.do(http.MethodPost, "/v1/collections/drop", "{}")
	assert.Equal(t, fault.ErrInvalidParam, reply.Code)

	bad := entity.NewSchema("bad").WithField(entity.NewField("id", entity.DataTypeInt64).WithIsPrimaryKey(true))
	_, reply = r.do(http.MethodPost, "/v1/collections/create", &entity.CreateCollectionRequest{Schema: bad})
	assert.Equal(t, fault.ErrSchema, reply.Code)

	rec, reply = r.do(http.MethodPost, "/v1/nowhere", "{}")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, fault.ErrNotFound, reply.Code)

	rec, _ = r.do(http.MethodGet, "/v1/collections/list", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := &entity.QueryRequest{CollectionName: "users", Filter: strings.Repeat("(", expr.MaxFilterLength+1)}
	_, reply = r.do(http.MethodPost, "/v1/entities/query", long)
	assert.Equal(t, fault.ErrInvalidFilter, reply.Code)
}

func TestEntityRoutes(t *testing.T) {
	r := newTestRouter(t, nil)
	r.prepareLoaded()

	// 2^53 + 1 is not representable as float64
	insert := `{"collectionName":"users","data":[
		{"user_id":9007199254740993,"user_name":"big","user_face":[0,0]},
		{"user_id":1,"user_name":"one","user_face":[1,1]},
		{"user_id":2,"user_name":"two","user_face":[2,2]}]}`
	mutation := &entity.MutationResult{}
	r.ok("/v1/entities/insert", insert, mutation)
	assert.Equal(t, int64(3), mutation.Count)
	assert.Equal(t, int64(9007199254740993), mutation.IDs[0].Int)

	result := &entity.QueryResult{}
	r.ok("/v1/entities/query", &entity.QueryRequest{
		CollectionName:   "users",
		Filter:           "user_id == 9007199254740993",
		OutputFields:     []string{"user_name"},
		ConsistencyLevel: entity.ConsistencyStrong,
	}, result)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, int64(9007199254740993), result.Rows[0].Int64("user_id"))
	assert.Equal(t, "big", result.Rows[0].Str("user_name"))

	search := &entity.SearchResult{}
	r.ok("/v1/entities/search", &entity.SearchRequest{
		CollectionName: "users",
		Vectors:        [][]float32{{1.9, 1.9}},
		Limit:          2,
		OutputFields:   []string{"user_name"},
	}, search)
	require.Len(t, search.Groups, 1)
	require.Equal(t, 2, search.Groups[0].Len())
	assert.Equal(t, int64(2), search.Groups[0].IDs[0].Int)
	assert.Equal(t, "one", search.Groups[0].Rows[1].Str("user_name"))

	rec, reply := r.do(http.MethodPost, "/v1/entities/insert", `{"collectionName":"users","data":[{"user_id":7,"user_name":"x","user_face":[1]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, fault.ErrDimensionMismatch, reply.Code)
	assert.EqualValues(t, 2, reply.Details["expected"])

	_, reply = r.do(http.MethodPost, "/v1/entities/insert", `{"collectionName":"users","data":[{"user_id":8,"user_name":"x","user_face":[1,1],"extra":1}]}`)
	assert.Equal(t, fault.ErrSchemaMismatch, reply.Code)

	_, reply = r.do(http.MethodPost, "/v1/entities/search", &entity.SearchRequest{CollectionName: "users"})
	assert.Equal(t, fault.ErrInvalidParam, reply.Code)

	r.ok("/v1/entities/delete", &entity.DeleteRequest{CollectionName: "users", Filter: "user_id in [1, 2]"}, mutation)
	assert.Equal(t, int64(2), mutation.Count)

	r.ok("/v1/entities/query", &entity.QueryRequest{
		CollectionName:   "users",
		OutputFields:     []string{entity.CountStar},
		ConsistencyLevel: entity.ConsistencyStrong,
	}, result)
	count, ok := result.Count()
	require.True(t, ok)
	assert.Equal(t, int64(1), count)
}

func TestIndexRoutes(t *testing.T) {
	r := newTestRouter(t, nil)
	r.prepareLoaded()

	var indexes []*entity.IndexDesc
	r.ok("/v1/indexes/describe", &entity.IndexRequest{CollectionName: "users"}, &indexes)
	require.Len(t, indexes, 1)
	assert.Equal(t, entity.MetricL2, indexes[0].MetricType)

	rec, reply := r.do(http.MethodPost, "/v1/indexes/drop", &entity.IndexRequest{CollectionName: "users", FieldName: "user_face"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, fault.ErrConflict, reply.Code)

	r.ok("/v1/collections/release", &entity.CollectionRequest{CollectionName: "users"}, nil)
	r.ok("/v1/indexes/drop", &entity.IndexRequest{CollectionName: "users", FieldName: "user_face"}, nil)

	_, reply = r.do(http.MethodPost, "/v1/indexes/drop", &entity.IndexRequest{CollectionName: "users", FieldName: "user_face"})
	assert.Equal(t, fault.ErrIndexNotFound, reply.Code)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, func(conf *config.Config) { conf.Server.RateLimit = 1 })

	rec, _ := r.do(http.MethodGet, "/v1/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, reply := r.do(http.MethodGet, "/v1/version", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, fault.ErrTooManyRequests, reply.Code)
	assert.True(t, fault.IsTransient(reply.Err()))
}

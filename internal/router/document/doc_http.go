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

package document

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cast"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/engine"
	"github.com/vearch/vdbclient/internal/monitor"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/internal/router/document/resp"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

const (
	HeaderRequestID = "X-Request-Id"

	ctxKeyRequestID = "request_id"
	ctxKeyUser      = "user"
)

type DocumentHandler struct {
	httpServer *gin.Engine
	engine     *engine.Engine
	conf       *config.Config
	limiter    *Limiter
	authCache  *AuthCache
}

func ExportDocumentHandler(httpServer *gin.Engine, eng *engine.Engine, conf *config.Config, limiter *Limiter) *DocumentHandler {
	handler := &DocumentHandler{
		httpServer: httpServer,
		engine:     eng,
		conf:       conf,
		limiter:    limiter,
		authCache:  NewAuthCache(conf.Global.User, conf.Global.Password),
	}
	handler.register()
	return handler
}

func (handler *DocumentHandler) register() {
	v := "/" + entity.ProtocolVersion
	pre := []gin.HandlerFunc{handler.handleTimeout, handler.handleLimit, handler.handleAuth}
	route := func(method, path string, h gin.HandlerFunc) {
		handler.httpServer.Handle(method, v+path, append(pre[:len(pre):len(pre)], h)...)
	}

	route(http.MethodGet, "/version", handler.handleVersion)
	route(http.MethodGet, "/health", handler.handleHealth)

	// collection
	route(http.MethodPost, "/collections/create", handler.handleCreateCollection)
	route(http.MethodPost, "/collections/drop", handler.handleDropCollection)
	route(http.MethodPost, "/collections/has", handler.handleHasCollection)
	route(http.MethodPost, "/collections/describe", handler.handleDescribeCollection)
	route(http.MethodPost, "/collections/list", handler.handleListCollections)
	route(http.MethodPost, "/collections/load", handler.handleLoadCollection)
	route(http.MethodPost, "/collections/release", handler.handleReleaseCollection)
	route(http.MethodPost, "/collections/get_load_state", handler.handleGetLoadState)

	// index
	route(http.MethodPost, "/indexes/create", handler.handleCreateIndex)
	route(http.MethodPost, "/indexes/describe", handler.handleDescribeIndex)
	route(http.MethodPost, "/indexes/drop", handler.handleDropIndex)

	// entity
	route(http.MethodPost, "/entities/insert", handler.handleInsert)
	route(http.MethodPost, "/entities/upsert", handler.handleUpsert)
	route(http.MethodPost, "/entities/delete", handler.handleDelete)
	route(http.MethodPost, "/entities/query", handler.handleQuery)
	route(http.MethodPost, "/entities/search", handler.handleSearch)

	handler.httpServer.HandleMethodNotAllowed = true
	handler.httpServer.NoMethod(func(c *gin.Context) {
		resp.SendErrorCode(c, fault.ErrInvalidParam, resp.ErrReasonIncorrectHttpMethod, c.Request.URL.Path, c.Request.Method)
	})
	handler.httpServer.NoRoute(func(c *gin.Context) {
		resp.SendErrorCode(c, fault.ErrNotFound, "no route for %s %s", c.Request.Method, c.Request.URL.Path)
	})
}

// handleTimeout tags the request with an id and bounds it by the server rpc timeout.
func (handler *DocumentHandler) handleTimeout(c *gin.Context) {
	startTime := time.Now()
	requestID := c.GetHeader(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(ctxKeyRequestID, requestID)
	c.Header(HeaderRequestID, requestID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), handler.conf.Server.RequestTimeout())
	defer cancel()
	c.Request = c.Request.WithContext(ctx)

	c.Next()

	metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), cast.ToString(c.Writer.Status()), time.Since(startTime))
}

func (handler *DocumentHandler) handleLimit(c *gin.Context) {
	if handler.limiter == nil {
		return
	}
	if handler.limiter.Limit() {
		metrics.RecordThrottled()
		resp.SendErrorCode(c, fault.ErrTooManyRequests, resp.ErrReasonTooManyRequests, handler.limiter.rate)
	}
}

func (handler *DocumentHandler) handleAuth(c *gin.Context) {
	if handler.conf.Global.SkipAuth {
		return
	}
	user, err := handler.authCache.Check(c.GetHeader("Authorization"))
	if err != nil {
		resp.SendError(c, err)
		return
	}
	c.Set(ctxKeyUser, user)
}

// serve runs op inside a tracing span and sends either its data or its error.
func (handler *DocumentHandler) serve(c *gin.Context, operateName string, op func(ctx context.Context) (interface{}, error)) {
	startTime := time.Now()
	defer monitor.Profiler(operateName, startTime)

	span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), operateName)
	defer span.Finish()
	span.SetTag("request_id", c.GetString(ctxKeyRequestID))

	data, err := op(ctx)
	status := fault.CodeOf(err).String()
	metrics.RecordEntityOperation(operateName, status, time.Since(startTime))
	if err != nil {
		span.SetTag("error", true)
		metrics.RecordError(status, operateName)
		if fault.CodeOf(err).HTTPStatus() >= http.StatusInternalServerError {
			log.Error("%s failed, request_id:[%s], err:[%v]", operateName, c.GetString(ctxKeyRequestID), err)
		} else {
			log.Debug("%s rejected, request_id:[%s], err:[%v]", operateName, c.GetString(ctxKeyRequestID), err)
		}
		resp.SendError(c, err)
		return
	}
	resp.SendSuccess(c, data)
}

func (handler *DocumentHandler) handleVersion(c *gin.Context) {
	resp.SendSuccess(c, &entity.VersionInfo{
		Version:   config.GetBuildVersion(),
		Protocol:  entity.ProtocolVersion,
		BuildTime: config.GetBuildTime(),
		CommitID:  config.GetCommitID(),
	})
}

func (handler *DocumentHandler) handleHealth(c *gin.Context) {
	resp.SendSuccess(c, handler.healthInfo())
}

func (handler *DocumentHandler) handleCreateCollection(c *gin.Context) {
	handler.serve(c, "handleCreateCollection", func(ctx context.Context) (interface{}, error) {
		args := &entity.CreateCollectionRequest{}
		if err := bind(c, args); err != nil {
			return nil, err
		}
		return nil, handler.engine.CreateCollection(ctx, args.Schema)
	})
}

func (handler *DocumentHandler) handleDropCollection(c *gin.Context) {
	handler.serve(c, "handleDropCollection", func(ctx context.Context) (interface{}, error) {
		args := &entity.CollectionRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return nil, handler.engine.DropCollection(ctx, args.CollectionName)
	})
}

func (handler *DocumentHandler) handleHasCollection(c *gin.Context) {
	handler.serve(c, "handleHasCollection", func(ctx context.Context) (interface{}, error) {
		args := &entity.CollectionRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return &entity.HasResult{Has: handler.engine.HasCollection(args.CollectionName)}, nil
	})
}

func (handler *DocumentHandler) handleDescribeCollection(c *gin.Context) {
	handler.serve(c, "handleDescribeCollection", func(ctx context.Context) (interface{}, error) {
		args := &entity.CollectionRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return handler.engine.DescribeCollection(args.CollectionName)
	})
}

func (handler *DocumentHandler) handleListCollections(c *gin.Context) {
	handler.serve(c, "handleListCollections", func(ctx context.Context) (interface{}, error) {
		return &entity.ListCollectionsResult{Collections: handler.engine.ListCollections()}, nil
	})
}

func (handler *DocumentHandler) handleLoadCollection(c *gin.Context) {
	handler.serve(c, "handleLoadCollection", func(ctx context.Context) (interface{}, error) {
		args := &entity.LoadCollectionRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return nil, handler.engine.LoadCollection(args.CollectionName, args.ReplicaNumber)
	})
}

func (handler *DocumentHandler) handleReleaseCollection(c *gin.Context) {
	handler.serve(c, "handleReleaseCollection", func(ctx context.Context) (interface{}, error) {
		args := &entity.CollectionRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return nil, handler.engine.ReleaseCollection(args.CollectionName)
	})
}

func (handler *DocumentHandler) handleGetLoadState(c *gin.Context) {
	handler.serve(c, "handleGetLoadState", func(ctx context.Context) (interface{}, error) {
		args := &entity.CollectionRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return handler.engine.GetLoadState(args.CollectionName)
	})
}

func (handler *DocumentHandler) handleCreateIndex(c *gin.Context) {
	handler.serve(c, "handleCreateIndex", func(ctx context.Context) (interface{}, error) {
		args := &entity.CreateIndexRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return nil, handler.engine.CreateIndex(ctx, args.CollectionName, args.Indexes)
	})
}

func (handler *DocumentHandler) handleDescribeIndex(c *gin.Context) {
	handler.serve(c, "handleDescribeIndex", func(ctx context.Context) (interface{}, error) {
		args := &entity.IndexRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		return handler.engine.DescribeIndex(args.CollectionName, args.FieldName)
	})
}

func (handler *DocumentHandler) handleDropIndex(c *gin.Context) {
	handler.serve(c, "handleDropIndex", func(ctx context.Context) (interface{}, error) {
		args := &entity.IndexRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		if args.FieldName == "" {
			return nil, fault.InvalidParam("fieldName is required")
		}
		return nil, handler.engine.DropIndex(ctx, args.CollectionName, args.FieldName)
	})
}

func (handler *DocumentHandler) handleInsert(c *gin.Context) {
	handler.serve(c, "handleInsert", func(ctx context.Context) (interface{}, error) {
		name, rows, err := handler.parseRows(c)
		if err != nil {
			return nil, err
		}
		metrics.RecordBatch("insert", len(rows))
		return handler.engine.Insert(ctx, name, rows)
	})
}

func (handler *DocumentHandler) handleUpsert(c *gin.Context) {
	handler.serve(c, "handleUpsert", func(ctx context.Context) (interface{}, error) {
		name, rows, err := handler.parseRows(c)
		if err != nil {
			return nil, err
		}
		metrics.RecordBatch("upsert", len(rows))
		return handler.engine.Upsert(ctx, name, rows)
	})
}

func (handler *DocumentHandler) handleDelete(c *gin.Context) {
	handler.serve(c, "handleDelete", func(ctx context.Context) (interface{}, error) {
		args := &entity.DeleteRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		if err := validateFilter(args.Filter); err != nil {
			return nil, err
		}
		return handler.engine.Delete(ctx, args.CollectionName, args.Filter)
	})
}

func (handler *DocumentHandler) handleQuery(c *gin.Context) {
	handler.serve(c, "handleQuery", func(ctx context.Context) (interface{}, error) {
		args := &entity.QueryRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		if err := validateFilter(args.Filter); err != nil {
			return nil, err
		}
		return handler.engine.Query(ctx, args)
	})
}

func (handler *DocumentHandler) handleSearch(c *gin.Context) {
	handler.serve(c, "handleSearch", func(ctx context.Context) (interface{}, error) {
		args := &entity.SearchRequest{}
		if err := bindCollection(c, args, &args.CollectionName); err != nil {
			return nil, err
		}
		if err := validateFilter(args.Filter); err != nil {
			return nil, err
		}
		if err := validateSearch(args); err != nil {
			return nil, err
		}
		return handler.engine.Search(ctx, args)
	})
}

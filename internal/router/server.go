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

package router

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/engine"
	"github.com/vearch/vdbclient/internal/engine/storage"
	"github.com/vearch/vdbclient/internal/monitor"
	"github.com/vearch/vdbclient/internal/pkg/ginutil"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/internal/router/document"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	ctx        context.Context
	conf       *config.Config
	engine     *engine.Engine
	httpServer *gin.Engine
	ginServer  *ginutil.GinServer
	metricsSrv *http.Server
	cancelFunc context.CancelFunc
}

// NewServer opens the configured store, restores the catalog and registers every route.
func NewServer(ctx context.Context, conf *config.Config) (*Server, error) {
	store, err := storage.OpenStore(conf.Server.Storage, conf.Global.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s storage", conf.Server.Storage)
	}
	eng, err := engine.Open(ctx, store, engine.OptionsFromConfig(conf.Server))
	if err != nil {
		store.Close()
		return nil, err
	}

	if !log.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := gin.New()
	httpServer.Use(gin.Recovery())
	if conf.Server.Cors {
		httpServer.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost},
			AllowHeaders:    []string{"Authorization", "Content-Type", document.HeaderRequestID},
			ExposeHeaders:   []string{document.HeaderRequestID},
			MaxAge:          12 * time.Hour,
		}))
	}

	registry := monitor.NewRegistry(eng, conf.Global.Name)
	httpServer.GET("/metrics", gin.WrapH(monitor.HandlerFor(registry)))
	document.ExportDocumentHandler(httpServer, eng, conf, document.NewLimiter(conf.Server.RateLimit))

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		ctx:        serverCtx,
		conf:       conf,
		engine:     eng,
		metricsSrv: monitor.ServePort(registry, conf.Server.MonitorPort),
		httpServer: httpServer,
		ginServer:  ginutil.NewGinServer(httpServer, config.LocalCastAddr, conf.Server.Port, conf.Server.RequestTimeout()+time.Second),
		cancelFunc: cancel,
	}, nil
}

// Handler exposes the routes, used to mount the server in tests.
func (server *Server) Handler() http.Handler {
	return server.httpServer
}

func (server *Server) Engine() *engine.Engine {
	return server.engine
}

// Start blocks until Shutdown.
func (server *Server) Start() error {
	log.Info("server listen on [%s]", server.ginServer.Server.Addr)
	if err := server.ginServer.Run(); err != nil {
		return errors.Wrap(err, "fail to start http server")
	}
	log.Info("server exited!")
	return nil
}

// Serve is Start on a given listener.
func (server *Server) Serve(l net.Listener) error {
	log.Info("server listen on [%s]", l.Addr().String())
	if err := server.ginServer.Serve(l); err != nil {
		return errors.Wrap(err, "fail to serve http")
	}
	return nil
}

func (server *Server) Shutdown() {
	server.cancelFunc()
	log.Info("server shutdown... start")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ginServer.Stop(ctx); err != nil {
		log.Warn("stop http server: %v", err)
	}
	if server.metricsSrv != nil {
		server.metricsSrv.Close()
	}
	if err := server.engine.Close(); err != nil {
		log.Error("close engine: %v", err)
	}
	log.Info("server shutdown... end")
}

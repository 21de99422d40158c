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

// Package client is the facade of a vdb server. Every operation blocks until the server
// replies, the per call timeout elapses or ctx is done, and fails with a *fault.Error.
//
// Calls on one Client are serialised: a Client has at most one request in flight. Use
// one Client per goroutine for parallel traffic.
package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vearch/vdbclient/client/connection"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultLoadTimeout      = 60 * time.Second
	DefaultLoadPollInterval = 100 * time.Millisecond
)

type Config struct {
	// Address is host:port or a base URL.
	Address  string
	Username string
	Password string
	// Timeout bounds every single request, zero disables it.
	Timeout          time.Duration
	LoadTimeout      time.Duration
	LoadPollInterval time.Duration
	HTTPClient       *http.Client
}

func ConfigFromClientCfg(cfg *config.ClientCfg) Config {
	return Config{
		Address:          cfg.ApiUrl(),
		Username:         cfg.User,
		Password:         cfg.Password,
		Timeout:          time.Duration(cfg.TimeoutMs) * time.Millisecond,
		LoadTimeout:      time.Duration(cfg.LoadTimeoutMs) * time.Millisecond,
		LoadPollInterval: time.Duration(cfg.LoadPollMs) * time.Millisecond,
	}
}

type Client struct {
	mu   sync.Mutex
	cfg  Config
	conn *connection.Connection

	serverVersion string
	// lastWriteTs is the timestamp of the latest acknowledged write, the guarantee of
	// Session reads.
	lastWriteTs uint64
}

func New(cfg Config) *Client {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.LoadPollInterval <= 0 {
		cfg.LoadPollInterval = DefaultLoadPollInterval
	}
	return &Client{cfg: cfg}
}

func NewFromConfig(cfg *config.ClientCfg) *Client {
	return New(ConfigFromClientCfg(cfg))
}

// Address is the base URL the client connects to.
func (c *Client) Address() string {
	return c.baseURL()
}

func (c *Client) baseURL() string {
	cfg := config.ClientCfg{Address: c.cfg.Address}
	return cfg.ApiUrl()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Connect opens the session and checks credentials and protocol with a version handshake.
// Calling Connect on a connected client is a ConnectionError and leaves the session as is.
// Every failed handshake is a ConnectionError; its cause, such as an AuthenticationError,
// stays reachable through errors.Is.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return fault.Connection(nil, "already connected to %s", c.conn.BasePath())
	}

	headers := map[string]string{}
	if c.cfg.Username != "" {
		headers["Authorization"] = connection.BasicAuth(c.cfg.Username, c.cfg.Password)
	}
	conn := connection.NewConnection(c.baseURL(), c.cfg.HTTPClient, headers)

	rctx, cancel := c.withTimeout(ctx)
	defer cancel()
	version := &entity.VersionInfo{}
	responseData, err := conn.RunREST(rctx, versionPath, http.MethodGet, nil)
	if err = connection.CheckReply(responseData, err, version); err != nil {
		conn.Close()
		if fault.IsCode(err, fault.ErrConnection) {
			return err
		}
		return fault.Connection(err, "connect to %s", conn.BasePath())
	}
	if !compatible(version.Protocol) {
		conn.Close()
		return fault.Connection(nil, "server protocol %s is not compatible with client protocol %s", version.Protocol, entity.ProtocolVersion)
	}

	c.conn = conn
	c.serverVersion = version.Version
	c.lastWriteTs = 0
	log.Info("connected to [%s], server version:[%s]", conn.BasePath(), version.Version)
	return nil
}

func compatible(protocol string) bool {
	major := func(v string) string {
		v = strings.TrimPrefix(strings.ToLower(v), "v")
		m, _, _ := strings.Cut(v, ".")
		return m
	}
	return protocol != "" && major(protocol) == major(entity.ProtocolVersion)
}

// Disconnect releases the session. It is a no-op on a disconnected client.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.Close()
	log.Info("disconnected from [%s]", c.conn.BasePath())
	c.conn = nil
	c.serverVersion = ""
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// call sends one request while holding the client lock.
func (c *Client) call(ctx context.Context, method, path string, body, target interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fault.Connection(nil, "client is not connected")
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()
	responseData, err := c.conn.RunREST(rctx, path, method, body)
	return connection.CheckReply(responseData, err, target)
}

func (c *Client) post(ctx context.Context, path string, body, target interface{}) error {
	return c.call(ctx, http.MethodPost, path, body, target)
}

// GetServerVersion asks the server, so it also works as a liveness probe.
func (c *Client) GetServerVersion(ctx context.Context) (string, error) {
	version := &entity.VersionInfo{}
	if err := c.call(ctx, http.MethodGet, versionPath, nil, version); err != nil {
		return "", err
	}
	return version.Version, nil
}

func (c *Client) CheckHealth(ctx context.Context) (*entity.HealthInfo, error) {
	health := &entity.HealthInfo{}
	if err := c.call(ctx, http.MethodGet, healthPath, nil, health); err != nil {
		return nil, err
	}
	return health, nil
}

func (c *Client) rememberWrite(ts uint64) {
	c.mu.Lock()
	if ts > c.lastWriteTs {
		c.lastWriteTs = ts
	}
	c.mu.Unlock()
}

func (c *Client) sessionTs() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastWriteTs
}

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

package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/vearch/vdbclient/internal/pkg/log"
)

// Model is the startup role selected on the command line.
type Model int

const (
	Server Model = iota
	Example
)

const (
	LocalSingleAddr = "127.0.0.1"
	LocalCastAddr   = "0.0.0.0"

	StorageMemory = "memory"
	StorageSQLite = "sqlite"

	DefaultPort        = 19530
	DefaultUser        = "root"
	DefaultPassword    = "Milvus"
	DefaultMaxReplicas = 1
)

var single *Config

// Conf return the single instance of config
func Conf() *Config {
	return single
}

var (
	versionOnce  sync.Once
	buildVersion = "v3.0.0"
	buildTime    = "0"
	commitID     = "xxxxx"
)

// SetConfigVersion set the version, time and commit id of build
func SetConfigVersion(bv, bt, ci string) {
	versionOnce.Do(func() {
		if bv != "" {
			buildVersion = bv
		}
		buildTime = bt
		commitID = ci
	})
}

func GetBuildVersion() string {
	return buildVersion
}

func GetBuildTime() string {
	return buildTime
}

func GetCommitID() string {
	return commitID
}

type Config struct {
	Global    *GlobalCfg `toml:"global,omitempty" json:"global"`
	Server    *ServerCfg `toml:"server,omitempty" json:"server"`
	Client    *ClientCfg `toml:"client,omitempty" json:"client"`
	TracerCfg *TracerCfg `toml:"tracer,omitempty" json:"tracer"`
}

type Base struct {
	Log         string `toml:"log,omitempty" json:"log"`
	Level       string `toml:"level,omitempty" json:"level"`
	LogFileNum  int    `toml:"log_file_num,omitempty" json:"log_file_num"`
	LogFileSize int    `toml:"log_file_size,omitempty" json:"log_file_size"`
	Data        string `toml:"data,omitempty" json:"data"`
}

type GlobalCfg struct {
	Base
	Name     string `toml:"name,omitempty" json:"name"`
	User     string `toml:"user,omitempty" json:"user"`
	Password string `toml:"password,omitempty" json:"password"`
	SkipAuth bool   `toml:"skip_auth,omitempty" json:"skip_auth"`
}

type ServerCfg struct {
	Port        uint16 `toml:"port,omitempty" json:"port"`
	MonitorPort uint16 `toml:"monitor_port" json:"monitor_port"`
	Storage     string `toml:"storage,omitempty" json:"storage"`
	RateLimit   int64  `toml:"rate_limit" json:"rate_limit"` // requests per second, 0 disables
	Cors        bool   `toml:"cors" json:"cors"`
	MaxReplicas int    `toml:"max_replicas" json:"max_replicas"`

	VisibilityDelayMs  int64 `toml:"visibility_delay_ms" json:"visibility_delay_ms"`
	BoundedStalenessMs int64 `toml:"bounded_staleness_ms" json:"bounded_staleness_ms"`
	LoadDelayMs        int64 `toml:"load_delay_ms" json:"load_delay_ms"`
	RpcTimeOut         int   `toml:"rpc_timeout" json:"rpc_timeout"` //ms

	MemUsedPercentLimit  float64 `toml:"mem_used_percent_limit" json:"mem_used_percent_limit"`
	DiskUsedPercentLimit float64 `toml:"disk_used_percent_limit" json:"disk_used_percent_limit"`
}

func (s *ServerCfg) Addr() string {
	return LocalCastAddr + ":" + cast.ToString(s.Port)
}

func (s *ServerCfg) VisibilityDelay() time.Duration {
	return time.Duration(s.VisibilityDelayMs) * time.Millisecond
}

func (s *ServerCfg) BoundedStaleness() time.Duration {
	return time.Duration(s.BoundedStalenessMs) * time.Millisecond
}

func (s *ServerCfg) LoadDelay() time.Duration {
	return time.Duration(s.LoadDelayMs) * time.Millisecond
}

func (s *ServerCfg) RequestTimeout() time.Duration {
	return time.Duration(s.RpcTimeOut) * time.Millisecond
}

type ClientCfg struct {
	Address       string `toml:"address,omitempty" json:"address"`
	User          string `toml:"user,omitempty" json:"user"`
	Password      string `toml:"password,omitempty" json:"password"`
	TimeoutMs     int64  `toml:"timeout_ms" json:"timeout_ms"`
	LoadTimeoutMs int64  `toml:"load_timeout_ms" json:"load_timeout_ms"`
	LoadPollMs    int64  `toml:"load_poll_ms" json:"load_poll_ms"`
}

// ApiUrl normalises Address to a base URL.
func (c *ClientCfg) ApiUrl() string {
	if strings.HasPrefix(c.Address, "http://") || strings.HasPrefix(c.Address, "https://") {
		return strings.TrimRight(c.Address, "/")
	}
	return "http://" + strings.TrimRight(c.Address, "/")
}

type TracerCfg struct {
	Host        string  `toml:"host,omitempty" json:"host"`
	SampleType  string  `toml:"sample_type,omitempty" json:"sample_type"`
	SampleParam float64 `toml:"sample_param,omitempty" json:"sample_param"`
}

// Default returns a config that runs a memory backed server on DefaultPort and a client
// pointing at it.
func Default() *Config {
	conf := &Config{}
	conf.applyDefaults()
	return conf
}

func InitConfig(path string) error {
	conf, err := LoadConfig(path)
	if err != nil {
		return err
	}
	single = conf
	return nil
}

func SetConf(conf *Config) {
	single = conf
}

func LoadConfig(path string) (*Config, error) {
	if len(path) == 0 {
		return nil, errors.New("configPath file is empty")
	}
	conf := &Config{}
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrapf(err, "decode:[%s] failed", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// ParseConfig decodes TOML text, used by tests and embedded configs.
func ParseConfig(data string) (*Config, error) {
	conf := &Config{}
	if _, err := toml.Decode(data, conf); err != nil {
		return nil, errors.Wrap(err, "decode config failed")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.Global == nil {
		c.Global = &GlobalCfg{}
	}
	if c.Server == nil {
		c.Server = &ServerCfg{}
	}
	if c.Client == nil {
		c.Client = &ClientCfg{}
	}
	if c.TracerCfg == nil {
		c.TracerCfg = &TracerCfg{}
	}

	g := c.Global
	if g.Name == "" {
		g.Name = "vdb"
	}
	if g.Level == "" {
		g.Level = "info"
	}
	if g.LogFileNum == 0 {
		g.LogFileNum = 10
	}
	if g.LogFileSize == 0 {
		g.LogFileSize = 100
	}
	if g.User == "" {
		g.User = DefaultUser
	}
	if g.Password == "" {
		g.Password = DefaultPassword
	}

	s := c.Server
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.Storage == "" {
		s.Storage = StorageMemory
	}
	if s.MaxReplicas == 0 {
		s.MaxReplicas = DefaultMaxReplicas
	}
	if s.RpcTimeOut == 0 {
		s.RpcTimeOut = 10000
	}
	if s.MemUsedPercentLimit == 0 {
		s.MemUsedPercentLimit = 95
	}
	if s.DiskUsedPercentLimit == 0 {
		s.DiskUsedPercentLimit = 95
	}

	cl := c.Client
	if cl.Address == "" {
		cl.Address = LocalSingleAddr + ":" + cast.ToString(s.Port)
	}
	if cl.User == "" {
		cl.User = g.User
	}
	if cl.Password == "" {
		cl.Password = g.Password
	}
	if cl.TimeoutMs == 0 {
		cl.TimeoutMs = 30000
	}
	if cl.LoadTimeoutMs == 0 {
		cl.LoadTimeoutMs = 60000
	}
	if cl.LoadPollMs == 0 {
		cl.LoadPollMs = 100
	}

	if c.TracerCfg.SampleType == "" {
		c.TracerCfg.SampleType = "const"
	}
}

// Validate fills defaults and rejects values the server cannot run with.
func (c *Config) Validate() error {
	c.applyDefaults()

	if _, ok := log.ParseLevel(c.Global.Level); !ok {
		return errors.Errorf("unknown log level: %s", c.Global.Level)
	}

	switch c.Server.Storage {
	case StorageMemory:
	case StorageSQLite:
		if c.Global.Data == "" {
			return errors.New("storage sqlite needs global.data to be set")
		}
	default:
		return errors.Errorf("unknown storage: %s, it only support [%s, %s]", c.Server.Storage, StorageMemory, StorageSQLite)
	}

	if c.Server.MaxReplicas < 1 {
		return errors.Errorf("max_replicas:[%d] should be greater than 0", c.Server.MaxReplicas)
	}
	if c.Server.RateLimit < 0 {
		return errors.Errorf("rate_limit:[%d] can not be negative", c.Server.RateLimit)
	}
	if c.Server.VisibilityDelayMs < 0 || c.Server.BoundedStalenessMs < 0 || c.Server.LoadDelayMs < 0 {
		return errors.New("visibility_delay_ms, bounded_staleness_ms and load_delay_ms can not be negative")
	}
	return nil
}

// ValidatePath creates the log and data directories the model needs.
func (c *Config) ValidatePath(model Model) error {
	if c.Global.Log != "" {
		if err := os.MkdirAll(c.Global.Log, os.ModePerm); err != nil {
			return err
		}
	}
	if model == Server && c.Global.Data != "" {
		if err := os.MkdirAll(c.Global.Data, os.ModePerm); err != nil {
			return err
		}
	}
	return nil
}

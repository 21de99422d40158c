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

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/vearch/vdbclient/client"
	"github.com/vearch/vdbclient/examples/walkthrough"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/pkg/log"
	tigos "github.com/vearch/vdbclient/internal/pkg/runtime/os"
	"github.com/vearch/vdbclient/internal/pkg/signals"
	"github.com/vearch/vdbclient/internal/pkg/tracer"
	"github.com/vearch/vdbclient/internal/pkg/vdblog"
	"github.com/vearch/vdbclient/internal/router"
)

var (
	BuildVersion = "0.0"
	BuildTime    = "0"
	CommitID     = "xxxxx"
)

var (
	confPath    string
	address     string
	exampleOpts = walkthrough.DefaultOptions()
	showVersion bool
	toConsole   bool
)

func init() {
	pflag.StringVarP(&confPath, "conf", "c", "", "config file path, searched next to the binary when empty")
	pflag.StringVar(&address, "address", "", "server address used by the example, overrides client.address")
	pflag.StringVar(&exampleOpts.Collection, "collection", exampleOpts.Collection, "collection created by the example")
	pflag.IntVar(&exampleOpts.Dimension, "dim", exampleOpts.Dimension, "vector dimension of the example collection")
	pflag.IntVar(&exampleOpts.Rows, "rows", exampleOpts.Rows, "rows inserted by the example")
	pflag.IntVar(&exampleOpts.BatchSize, "batch", exampleOpts.BatchSize, "rows per insert request of the example")
	pflag.BoolVar(&toConsole, "console", false, "mirror log output to stderr")
	pflag.BoolVarP(&showVersion, "version", "v", false, "print the version and exit")
}

const (
	serverTag  = "server"
	exampleTag = "example"
	allTag     = "all"
)

func main() {
	pflag.Parse()
	config.SetConfigVersion(BuildVersion, BuildTime, CommitID)
	if showVersion {
		fmt.Printf("version:[%s] build time:[%s] commit:[%s]\n", BuildVersion, BuildTime, CommitID)
		return
	}

	args := pflag.Args()
	if len(args) == 0 {
		args = []string{serverTag}
	}
	tags := map[string]bool{serverTag: false, exampleTag: false, allTag: false}
	for _, a := range args {
		if _, ok := tags[a]; !ok {
			fmt.Fprintf(os.Stderr, "not found tag: %s, it only support [server, example or all]\n", a)
			os.Exit(2)
		}
		tags[a] = true
	}
	runServer := tags[serverTag] || tags[allTag]
	runExample := tags[exampleTag] || tags[allTag]

	conf, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	config.SetConf(conf)
	if address != "" {
		conf.Client.Address = address
	}

	model := config.Example
	if runServer {
		model = config.Server
	}
	if err := conf.ValidatePath(model); err != nil {
		fmt.Fprintf(os.Stderr, "prepare paths failed: %v\n", err)
		os.Exit(1)
	}

	logName := strings.ToUpper(strings.Join(args, "-"))
	logger, err := vdblog.NewVdbLog(vdblog.Options{
		Dir:       conf.Global.Log,
		Module:    logName,
		Level:     conf.Global.Level,
		FileNum:   conf.Global.LogFileNum,
		FileSize:  conf.Global.LogFileSize,
		ToConsole: toConsole,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init log failed: %v\n", err)
		os.Exit(1)
	}
	log.Regist(logger)
	defer log.Flush()
	log.Info("start %s by version:[%s] commitID:[%s]", logName, BuildVersion, CommitID)

	closer, err := tracer.InitJaeger(conf.Global.Name, conf.TracerCfg)
	if err != nil {
		log.Error("init tracer failed: %v", err)
	} else {
		defer closer.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !runServer {
		code := example(ctx, conf)
		log.Flush()
		os.Exit(code)
	}

	if log.IsDebugEnabled() {
		go memStats(ctx)
	}

	sigsHook := signals.NewSignalHook()
	server, err := router.NewServer(ctx, conf)
	if err != nil {
		log.Error("new router error: %v", err)
		os.Exit(1)
	}
	sigsHook.AddSignalHook(func() {
		cancel()
		server.Shutdown()
	})
	// listen before the example starts so it never races the server
	l, err := net.Listen("tcp", conf.Server.Addr())
	if err != nil {
		log.Error("listen on %s error: %v", conf.Server.Addr(), err)
		os.Exit(1)
	}
	go func() {
		if err := server.Serve(l); err != nil {
			log.Error("start router error: %v", err)
			os.Exit(1)
		}
	}()

	if runExample {
		go func() {
			if code := example(ctx, conf); code != 0 {
				log.Error("example exited with code %d", code)
			}
		}()
	}

	sigsHook.WaitSignals()
	sigsHook.AsyncInvokeHooks()
	sigsHook.WaitUntilTimeout(30 * time.Second)
}

func loadConfig() (*config.Config, error) {
	path := confPath
	if path == "" {
		var err error
		if path, err = defaultConfigFile(); err != nil {
			return nil, err
		}
	}
	if path == "" {
		conf := config.Default()
		return conf, conf.Validate()
	}
	return config.LoadConfig(path)
}

func defaultConfigFile() (string, error) {
	var dirs []string
	if dir, err := tigos.GetCurrentPath(); err == nil {
		dirs = append(dirs, dir)
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return tigos.FindFile(dirs, "config/config.toml", "config.toml")
}

// example runs the walkthrough against the configured client address and returns the
// process exit code.
func example(ctx context.Context, conf *config.Config) int {
	cli := client.NewFromConfig(conf.Client)
	if _, err := walkthrough.Run(ctx, cli, os.Stdout, exampleOpts); err != nil {
		log.Error("walkthrough failed: %v", err)
		return 1
	}
	return 0
}

func memStats(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		log.Debug("mem.Alloc:[%d] mem.HeapAlloc:[%d] mem.HeapSys:[%d] goroutines:[%d]",
			mem.Alloc, mem.HeapAlloc, mem.HeapSys, runtime.NumGoroutine())
	}
}

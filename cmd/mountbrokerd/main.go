//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/nestybox/mountbrokerd/broker"
	"github.com/nestybox/mountbrokerd/busexport"
	"github.com/nestybox/mountbrokerd/catalog"
	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/reload"
	"github.com/nestybox/mountbrokerd/registry"
	"github.com/nestybox/mountbrokerd/spawn"
	"github.com/nestybox/mountbrokerd/sysio"
	"github.com/nestybox/mountbrokerd/wire"

	systemd "github.com/coreos/go-systemd/daemon"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const usage string = `mountbrokerd

mountbrokerd tracks user-session virtual filesystem mounts: it matches
mount requests against a catalog of installed mount helpers, spawns and
hands off to the right helper over the session bus, and keeps the live
mount registry in sync as helpers register, unregister or vanish.
`

// Globals to be populated at build time during Makefile processing.
var (
	version  string
	commitId string
	builtAt  string
	builtBy  string
)

// exitHandler performs proper cleanup of mountbrokerd upon receiving a
// termination signal: it is the same shape as a FUSE daemon's shutdown
// path, minus the FUSE teardown itself, since this process never mounts a
// filesystem on its own.
func exitHandler(signalChan chan os.Signal, reloadWatcher *reload.Watcher, profile interface{ Stop() }) {
	var printStack = false

	s := <-signalChan

	logrus.Warnf("mountbrokerd caught signal: %s", s)
	logrus.Info("Stopping (gracefully) ...")

	systemd.SdNotify(false, systemd.SdNotifyStopping)

	switch s {
	case syscall.SIGABRT, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGSEGV:
		printStack = true
	}

	if printStack {
		stacktrace := make([]byte, 32768)
		length := runtime.Stack(stacktrace, true)
		logrus.Warnf("\n\n%s\n", string(stacktrace[:length]))
	}

	reloadWatcher.Stop()

	if profile != nil {
		profile.Stop()
	}

	logrus.Info("Exiting ...")
	os.Exit(0)
}

// runProfiler launches cpu/mem profiling collection if requested. The
// shutdown hook is disabled so the exit handler above is the single place
// that stops profiling, rather than racing the profiler's own SIGTERM
// handler.
func runProfiler(ctx *cli.Context) (interface{ Stop() }, error) {
	var prof interface{ Stop() }

	cpuProfOn := ctx.Bool("cpu-profiling")
	memProfOn := ctx.Bool("memory-profiling")

	if cpuProfOn && memProfOn {
		return nil, fmt.Errorf("unsupported parameter combination: cpu and memory profiling")
	}
	if !(cpuProfOn || memProfOn) {
		return nil, nil
	}

	if cpuProfOn {
		prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	if memProfOn {
		prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}

	return prof, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "mountbrokerd"
	app.Usage = usage
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "mountable-dir",
			Value: "/usr/share/mountbrokerd/mounts",
			Usage: "directory of mountable descriptor files the catalog loads at startup and on reload",
		},
		cli.DurationFlag{
			Name:  "mount-timeout",
			Value: 300 * time.Second,
			Usage: "how long a spawn-and-handshake mount attempt may run before failing",
		},
		cli.StringFlag{
			Name:  "bus",
			Value: "session",
			Usage: "which bus to connect to; \"session\" or \"system\"",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "log file path or empty string for stderr output (default: \"\")",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log categories to include (debug, info, warning, error, fatal)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "log format; must be json or text",
		},
		cli.BoolFlag{
			Name:   "cpu-profiling",
			Usage:  "enable cpu-profiling data collection",
			Hidden: true,
		},
		cli.BoolFlag{
			Name:   "memory-profiling",
			Usage:  "enable memory-profiling data collection",
			Hidden: true,
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("mountbrokerd\n"+
			"\tversion: \t%s\n"+
			"\tcommit: \t%s\n"+
			"\tbuilt at: \t%s\n"+
			"\tbuilt by: \t%s\n",
			c.App.Version, commitId, builtAt, builtBy)
	}

	app.Before = func(ctx *cli.Context) error {
		rand.Seed(time.Now().UnixNano())

		if path := ctx.GlobalString("log"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0666)
			if err != nil {
				logrus.Fatalf("Error opening log file %v: %v. Exiting ...", path, err)
				return err
			}
			logrus.SetOutput(f)
			log.SetOutput(f)
		} else {
			logrus.SetOutput(os.Stderr)
			log.SetOutput(os.Stderr)
		}

		if logFormat := ctx.GlobalString("log-format"); logFormat == "json" {
			logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		} else {
			logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})
		}

		switch logLevel := ctx.GlobalString("log-level"); logLevel {
		case "debug":
			logrus.SetLevel(logrus.DebugLevel)
		case "info":
			logrus.SetLevel(logrus.InfoLevel)
		case "warning":
			logrus.SetLevel(logrus.WarnLevel)
		case "error":
			logrus.SetLevel(logrus.ErrorLevel)
		case "fatal":
			logrus.SetLevel(logrus.FatalLevel)
		default:
			logrus.Fatalf("log-level option '%v' not recognized. Exiting ...", logLevel)
		}

		return nil
	}

	app.Action = func(ctx *cli.Context) error {
		logrus.Info("Initiating mountbrokerd ...")

		var conn *dbus.Conn
		var err error
		if ctx.GlobalString("bus") == "system" {
			conn, err = dbus.ConnectSystemBus()
		} else {
			conn, err = dbus.ConnectSessionBus()
		}
		if err != nil {
			return fmt.Errorf("failed to connect to the bus: %v", err)
		}

		reply, err := conn.RequestName(wire.BrokerBusName, dbus.NameFlagDoNotQueue)
		if err != nil {
			return fmt.Errorf("failed to request bus name %s: %v", wire.BrokerBusName, err)
		}
		if reply != dbus.RequestNameReplyPrimaryOwner {
			return fmt.Errorf("bus name %s already owned by another process", wire.BrokerBusName)
		}

		ioService := sysio.NewIOService(domain.IOOsFileService)
		mountableCatalog := catalog.New(ioService)
		if err := mountableCatalog.Load(ctx.GlobalString("mountable-dir")); err != nil {
			logrus.Warnf("initial catalog load from %s failed: %v", ctx.GlobalString("mountable-dir"), err)
		}

		mountRegistry := registry.New()
		spawner := spawn.New(conn, ctx.Duration("mount-timeout"))

		b := broker.New(conn, ctx.Duration("mount-timeout"))
		b.Setup(mountableCatalog, mountRegistry, spawner)

		tracker := busexport.NewTracker(b)
		if err := conn.Export(tracker, wire.BrokerObjectPath, wire.TrackerInterface); err != nil {
			return fmt.Errorf("failed to export tracker object: %v", err)
		}

		reloadWatcher, err := reload.New(mountableCatalog)
		if err != nil {
			return fmt.Errorf("failed to set up reload signaling: %v", err)
		}
		reloadWatcher.Start()

		profile, err := runProfiler(ctx)
		if err != nil {
			logrus.Fatal(err)
		}

		exitChan := make(chan os.Signal, 1)
		signal.Notify(exitChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGSEGV, syscall.SIGQUIT)
		go exitHandler(exitChan, reloadWatcher, profile)

		systemd.SdNotify(false, systemd.SdNotifyReady)

		logrus.Infof("Ready, exported at %s on %s ...", wire.BrokerObjectPath, wire.BrokerBusName)

		select {}
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

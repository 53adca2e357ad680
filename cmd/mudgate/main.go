// Command mudgate runs the proxy: it accepts one client connection,
// dials the configured upstream MUD, and drives the decoder/session
// loops until either side disconnects, then exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/drake/mudgate/internal/commands"
	"github.com/drake/mudgate/internal/config"
	"github.com/drake/mudgate/internal/decoder"
	"github.com/drake/mudgate/internal/events"
	"github.com/drake/mudgate/internal/gui"
	"github.com/drake/mudgate/internal/logging"
	"github.com/drake/mudgate/internal/mapper"
	"github.com/drake/mudgate/internal/scripting"
	"github.com/drake/mudgate/internal/session"
	"github.com/drake/mudgate/internal/wire"
)

// readySentinel is touched once the listener is accepting connections
// and removed on shutdown, for external supervisors that poll for it.
const readySentinel = "mapper_ready.ignore"

func main() {
	configPath := flag.String("config", "", "path to a YAML/JSON/TOML config file")
	flag.Parse()

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range warnings {
		log.Warn("config: clamped", zap.String("detail", w))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("mudgate: exiting", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger, cfg config.Config) error {
	listener, err := net.Listen("tcp", cfg.Listen.Addr)
	if err != nil {
		return fmt.Errorf("mudgate: listening on %s: %w", cfg.Listen.Addr, err)
	}
	defer listener.Close()

	if err := touch(readySentinel); err != nil {
		log.Warn("mudgate: failed to create ready sentinel", zap.Error(err))
	}
	defer os.Remove(readySentinel)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Info("mudgate: listening", zap.String("addr", cfg.Listen.Addr))

	client, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("mudgate: accept: %w", err)
	}

	return serve(log, cfg, client)
}

func serve(log *zap.Logger, cfg config.Config, client net.Conn) error {
	charset, err := wire.ParseCharset(cfg.Decoder.Charset)
	if err != nil {
		charset = wire.CharsetASCII
	}

	registry := commands.New()
	script := scripting.New(registry)
	defer script.Close()
	if err := script.LoadFile(cfg.Scripting.InitFile); err != nil {
		log.Warn("mudgate: scripting init failed", zap.Error(err))
	}

	const queueCap = 256
	const guiQueueCap, guiQueueLimit = 32, 64

	queue := events.New(queueCap)
	mapperQueue := queue

	if cfg.GUI.Enabled {
		// A plain channel delivers each event to one receiver only, so
		// the mapper and the GUI each need their own queue fed from a
		// fan-out instead of both ranging over queue directly.
		mapperQueue = events.New(queueCap)
		guiQueue := events.NewLossy(guiQueueCap, guiQueueLimit)

		fan := events.NewFanout(queue)
		fan.Subscribe(mapperQueue)
		fan.Subscribe(guiQueue)
		go fan.Run()

		guiSink := gui.New()
		go guiSink.Run(guiQueue)
	}

	sink := mapper.New(log)
	go sink.Run(mapperQueue)

	driver, err := session.New(log, client, session.Config{
		UpstreamAddr:     cfg.Upstream.Addr,
		UseTLS:           cfg.Upstream.TLS,
		PinnedCommonName: cfg.Upstream.PinnedCommonName,
		DialTimeout:      cfg.Upstream.DialTimeout,
		Format:           decoder.ParseFormat(cfg.Decoder.Format),
		Charset:          charset,
		PromptTerminator: []byte{wire.IAC, wire.GA},
	}, registry, queue)
	if err != nil {
		client.Close()
		return fmt.Errorf("mudgate: dialing upstream: %w", err)
	}

	driver.Run()
	return nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

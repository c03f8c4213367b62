package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rook-computer/certmaker/internal/app"
	"github.com/rook-computer/certmaker/internal/export"
	"github.com/rook-computer/certmaker/internal/logging"
	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/settings"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/storage"
	"github.com/rook-computer/certmaker/internal/web"
)

func main() {
	configPath := flag.String("config", "", "settings file (default: ./certmaker.yaml or /etc/certmaker/certmaker.yaml when present)")
	debug := flag.Bool("debug", false, "debug logging, also written to ./certmaker-debug.log")
	noPreview := flag.Bool("no-preview", false, "do not draw the live preview on the framebuffer")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via CERTMAKER_STDIO_LOG")
	flag.Parse()

	cfg, err := settings.Load(*configPath)
	if err != nil {
		fmt.Println("settings error:", err)
		os.Exit(2)
	}

	// Crashes stay diagnosable while the console is in graphics mode.
	logPath := *stdioLog
	if logPath == "" {
		logPath = cfg.Logging.StdioFile
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	logCfg := logging.Config{Level: cfg.Logging.Level, Development: cfg.IsDevelopment(), File: cfg.Logging.File}
	if *debug {
		logCfg.Level = "debug"
		if logCfg.File == "" {
			logCfg.File = "./certmaker-debug.log"
		}
	}
	zl, err := logging.New(logCfg)
	if err != nil {
		fmt.Println("logger error:", err)
		os.Exit(2)
	}
	logger := logging.NewAdapter(zl)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *debug, *noPreview); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("main", "exit: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *settings.Settings, logger *logging.Adapter, debug, noPreview bool) error {
	kv, closeKV, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = closeKV() }()
	logger.Infof("main", "storage driver %s", cfg.Storage.Driver)

	store := state.NewStore()
	bus := notice.NewBus()
	raster := render.NewRasterizer()
	raster.Logger = logger
	canvas := render.NewCanvas(store)

	exporter := export.New(raster)
	exporter.Logger = logger
	editor := app.NewEditor(store, storage.NewConfigStore(kv, logger), exporter, bus)
	editor.Logger = logger
	editor.AutoSaveDelay = cfg.AutoSave.Delay

	var renderer render.Renderer = &render.NoopRenderer{}
	if cfg.Preview.Enabled && !noPreview {
		fbr := render.NewFBRenderer(raster, canvas)
		fbr.Device = cfg.Preview.Device
		fbr.FPS = cfg.Preview.FPS
		renderer = fbr
	}

	server := web.NewHTTPServer(web.ServerConfig{ListenAddr: cfg.Server.Listen, DevMode: cfg.Server.Dev})
	server.StaticDir = cfg.Server.StaticDir
	server.Logger = logger
	server.Deps = web.APIV1Deps{Store: store, Editor: editor, Canvas: canvas, Raster: raster, Notices: bus, Logger: logger}

	a := app.New(store, editor, renderer, server)
	a.Logger = logger
	a.Debug = debug
	a.Keyboard = true
	return a.Start(ctx)
}

package main

import (
	"context"
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

// simDefaults replace the device defaults; files and CERTMAKER_* still win.
var simDefaults = map[string]any{
	"app.env":         settings.EnvDevelopment,
	"server.listen":   ":8080",
	"storage.driver":  storage.DriverMemory,
	"storage.dir":     "/tmp/certmaker-sim",
	"preview.enabled": false,
}

func main() {
	configPath := flag.String("config", "", "settings file (default: ./certmaker.yaml or /etc/certmaker/certmaker.yaml when present)")
	listenAddr := flag.String("listen", "", "http listen address; overrides server.listen")
	devMode := flag.Bool("dev", false, "enable dev mode (CORS for a separately served UI); overrides server.dev")
	staticDir := flag.String("static-dir", "", "serve the web UI from this directory; overrides server.static_dir")
	driver := flag.String("storage", "", "storage backend: memory | file | redis; overrides storage.driver")
	dataDir := flag.String("data-dir", "", "directory for the file storage backend; overrides storage.dir")
	flag.Parse()

	cfg, err := settings.Load(*configPath, settings.WithDefaults(simDefaults))
	if err != nil {
		fmt.Println("settings error:", err)
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Server.Listen = *listenAddr
		case "dev":
			cfg.Server.Dev = *devMode
		case "static-dir":
			cfg.Server.StaticDir = *staticDir
		case "storage":
			cfg.Storage.Driver = *driver
		case "data-dir":
			cfg.Storage.Dir = *dataDir
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Println("settings error:", err)
		os.Exit(2)
	}

	zl, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.IsDevelopment(), File: cfg.Logging.File})
	if err != nil {
		fmt.Println("logger error:", err)
		os.Exit(2)
	}
	logger := logging.NewAdapter(zl)
	defer func() { _ = logger.Sync() }()

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeKV, err := storage.Open(processCtx, cfg.StorageOptions())
	if err != nil {
		fmt.Println("storage error:", err)
		os.Exit(2)
	}
	defer func() { _ = closeKV() }()

	store := state.NewStore()
	bus := notice.NewBus()
	raster := render.NewRasterizer()
	control := NewSimControl(store, backend, logger)

	exporter := export.New(raster)
	exporter.Logger = logger
	editor := app.NewEditor(store, control.Configs(), exporter, bus)
	editor.Logger = logger
	if err := editor.Start(processCtx); err != nil {
		fmt.Println("editor start error:", err)
		os.Exit(1)
	}
	defer editor.Stop()

	server := web.NewHTTPServer(web.ServerConfig{ListenAddr: cfg.Server.Listen, DevMode: cfg.Server.Dev})
	server.StaticDir = cfg.Server.StaticDir
	server.Logger = logger
	server.Handler = web.NewDefaultMux(server.StaticDir, web.APIV1Config{
		Deps: web.APIV1Deps{Store: store, Editor: editor, Canvas: render.NewCanvas(store), Raster: raster, Notices: bus, Logger: logger},
	})
	registerSimEndpoints(server.Handler, control)

	if err := server.Start(processCtx); err != nil {
		fmt.Println("server start error:", err)
		os.Exit(1)
	}

	fmt.Println("certmaker simulator listening on", server.BoundAddr())
	fmt.Println("Storage:", cfg.Storage.Driver)
	fmt.Println("API: http://" + trimLeadingColon(cfg.Server.Listen) + "/api/v1/")

	<-processCtx.Done()
	_ = server.Stop()
}

func trimLeadingColon(addr string) string {
	// Display only; no URL parsing.
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	if addr == "" {
		return "127.0.0.1:8080"
	}
	return addr
}

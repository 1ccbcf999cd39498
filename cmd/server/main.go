package main

import (
	"flag"
	"net/http"

	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/api"
	"github.com/pokeromcodex/server/internal/catalog"
	"github.com/pokeromcodex/server/internal/collection"
	"github.com/pokeromcodex/server/internal/config"
	"github.com/pokeromcodex/server/internal/identity"
	"github.com/pokeromcodex/server/internal/imageproxy"
	"github.com/pokeromcodex/server/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	server := api.New(api.Deps{
		Catalog: catalog.New(store, log, catalog.Config{
			SearchTTL:   cfg.SearchCacheTTL,
			SnapshotTTL: cfg.SnapshotCacheTTL,
			OptionsTTL:  cfg.OptionsCacheTTL,
		}),
		Collection:     collection.New(store, log),
		Identity:       identity.New(store, log, cfg.JWTSecret, cfg.TokenTTL),
		Proxy:          imageproxy.New(nil, log, cfg.AllowedImageHosts, cfg.ImageCacheTTL),
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	log.Info("romcodex API starting",
		zap.String("port", cfg.Port),
		zap.String("db", cfg.DBPath))

	if err := http.ListenAndServe(":"+cfg.Port, server); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

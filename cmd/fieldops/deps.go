package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sitewatch/fieldops/internal/evidence"
	"github.com/sitewatch/fieldops/internal/inspection"
	"github.com/sitewatch/fieldops/internal/ledger"
	"github.com/sitewatch/fieldops/internal/metrics"
	"github.com/sitewatch/fieldops/internal/store"
)

// engineMetrics is shared across commands so a single process registers
// each collector exactly once.
var engineMetrics = metrics.New()

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "fieldops.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initKV returns the space-stats cache, or nil when Redis is not configured.
func initKV() evidence.KVStore {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return evidence.NewRedisKVStore(client)
}

func initCorrelator(st store.Store) *evidence.Correlator {
	return evidence.NewCorrelator(st, initKV(), cfg.Evidence.Correlator(), engineMetrics)
}

func initInspection(st store.Store) (*inspection.Service, error) {
	var provider inspection.TemplateProvider
	if cfg.Inspection.TemplatePath != "" {
		tpl, err := inspection.LoadTemplateFile(cfg.Inspection.TemplatePath)
		if err != nil {
			return nil, err
		}
		provider = tpl
	}
	return inspection.NewService(st, provider, engineMetrics), nil
}

func initAggregator(st store.Store) *ledger.Aggregator {
	collectors := []ledger.Collector{
		ledger.NewPhotoCollector(st),
		ledger.NewInspectionCollector(st),
	}
	return ledger.NewAggregator(cfg.Ledger.Aggregator(), collectors, engineMetrics)
}

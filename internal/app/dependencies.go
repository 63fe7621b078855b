// Package app assembles the HTTP API from its services.
package app

import (
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lista/internal/auth"
	"github.com/noah-isme/backend-lista/internal/config"
	"github.com/noah-isme/backend-lista/internal/db"
	"github.com/noah-isme/backend-lista/internal/health"
)

// Pool is the database handle the API runs on; *pgxpool.Pool satisfies it.
type Pool interface {
	db.DBTX
	db.TxBeginner
}

// Dependencies enumerates the shared infrastructure the router is built on.
// Redis is optional: without it the seed cache and idempotency keys are off
// and rate limiting is process-local.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       Pool
	Redis    *redis.Client
	Registry *prometheus.Registry
	Tokens   auth.TokenParser
	Checks   map[string]health.Check
}

func (d Dependencies) registerer() prometheus.Registerer {
	if d.Registry == nil {
		return prometheus.DefaultRegisterer
	}
	return d.Registry
}

func (d Dependencies) gatherer() prometheus.Gatherer {
	if d.Registry == nil {
		return prometheus.DefaultGatherer
	}
	return d.Registry
}

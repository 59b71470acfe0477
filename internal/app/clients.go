package app

import (
	"context"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/platform/eccr"
	"github.com/adlnet/edlm-portal-backend/internal/platform/elrr"
	"github.com/adlnet/edlm-portal-backend/internal/platform/personcache"
	"github.com/adlnet/edlm-portal-backend/internal/platform/xds"
)

type Clients struct {
	ECCR eccr.Client
	XDS  xds.Client
	ELRR elrr.Client

	// Redis is nil when REDIS_ADDR is unset.
	Redis       *goredis.Client
	PersonCache personcache.Cache
}

func wireClients(log *logger.Logger, cfg Config, httpClient *http.Client) (Clients, error) {
	log.Info("Wiring clients...")

	eccrClient, err := eccr.New(log, cfg.External.ECCR, httpClient)
	if err != nil {
		return Clients{}, fmt.Errorf("init eccr client: %w", err)
	}
	xdsClient, err := xds.New(log, cfg.External.XDS, httpClient)
	if err != nil {
		return Clients{}, fmt.Errorf("init xds client: %w", err)
	}
	elrrClient, err := elrr.New(log, cfg.External.ELRR, httpClient)
	if err != nil {
		return Clients{}, fmt.Errorf("init elrr client: %w", err)
	}

	out := Clients{
		ECCR:        eccrClient,
		XDS:         xdsClient,
		ELRR:        elrrClient,
		PersonCache: personcache.Nop{},
	}

	// Redis
	rdb, err := personcache.Connect(context.Background(), cfg.PersonCache)
	switch {
	case err != nil:
		// the cache only saves ELRR person lookups; run without it
		log.Warn("redis unreachable; ELRR person cache disabled", "error", err)
	case rdb == nil:
		log.Info("REDIS_ADDR not set; ELRR person cache disabled")
	default:
		out.Redis = rdb
		out.PersonCache = personcache.NewWithClient(log, rdb, cfg.PersonCache)
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.PersonCache != nil {
		_ = c.PersonCache.Close()
	}
}

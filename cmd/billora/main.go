package main

import (
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/billora/internal/clock"
	"github.com/smallbiznis/billora/internal/config"
	"github.com/smallbiznis/billora/internal/migration"
	"github.com/smallbiznis/billora/internal/scheduler"
	"github.com/smallbiznis/billora/internal/seed"
	"github.com/smallbiznis/billora/internal/server"
	"github.com/smallbiznis/billora/pkg/db"
	"github.com/smallbiznis/billora/pkg/log"
	"github.com/smallbiznis/billora/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		log.Module,
		telemetry.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(RegisterRedis),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
		fx.Invoke(seed.EnsureCompany),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// RegisterRedis returns nil when no address is configured; consumers treat
// a nil client as single-node mode.
func RegisterRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

package throttle

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module provides the poll throttle guard.
var Module = fx.Provide(newGuard)

type guardParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newGuard(p guardParams) Guard {
	if p.Config.RedisAddress == "" {
		p.Logger.Info("redis address not configured, gateway polls are not throttled")
		return Unlimited{}
	}

	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddress})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("redis is unreachable, throttle will fail open", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisGuard(client, p.Config.PollThrottle)
}

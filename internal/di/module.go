package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	"github.com/polkiloo/checkout/internal/adapter/notify"
	"github.com/polkiloo/checkout/internal/adapter/throttle"
	"github.com/polkiloo/checkout/internal/app"
	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/logger"
	"github.com/polkiloo/checkout/internal/metrics"
	"github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/server/http/handlers"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
	"github.com/polkiloo/checkout/internal/server/http/router"
	"github.com/polkiloo/checkout/internal/storage/postgres"
	"github.com/polkiloo/checkout/internal/usecase"
)

// Module assembles the checkout service graph. Extra options are appended last
// so callers can replace any provided value.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		notify.Module,
		throttle.Module,
		usecase.Module,
		fx.Provide(
			func(c gateway.Client) usecase.PaymentGateway { return c },
			func(c gateway.Client) usecase.SignatureVerifier { return c },
			func(d notify.Dispatcher) usecase.Notifier { return d },
			func(g throttle.Guard) usecase.PollThrottle { return g },
			func(m *metrics.Metrics) usecase.Recorder { return m },
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.CheckoutFacade) handlers.CheckoutFacade { return f },
			func(s auth.Strategy) middleware.TokenParser { return s },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module exposes gateway client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if p.Config.GatewayWebhookSecret == "" {
		p.Logger.Warn("gateway webhook secret is empty, webhook signatures will not be verified")
	}
	return NewHTTPClient(p.Config.GatewayBaseURL, p.Config.GatewayAPIKey, p.Config.GatewayWebhookSecret, p.Config.GatewayTimeout, p.Logger)
}

package config

import "go.uber.org/fx"

// Module exposes configuration loaders for fx graphs.
var Module = fx.Provide(
	Load,
	func(cfg *Config) (*Policy, error) { return LoadPolicy(cfg.PolicyPath) },
)

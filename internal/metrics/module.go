package metrics

import "go.uber.org/fx"

// Module provides the metrics registry and collectors.
var Module = fx.Provide(NewRegistry, New)

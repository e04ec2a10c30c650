package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

// Module provides the notification dispatcher.
var Module = fx.Provide(newDispatcher)

type dispatcherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

var newSyncProducer = sarama.NewSyncProducer

func newDispatcher(p dispatcherParams) (Dispatcher, error) {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("kafka brokers not configured, notifications go to the log")
		return NewLogDispatcher(p.Logger), nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Timeout = p.Config.GatewayTimeout

	producer, err := newSyncProducer(p.Config.KafkaBrokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	d := NewKafkaDispatcher(producer, p.Config.NotificationTopic, p.Logger)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return d.Close()
		},
	})
	p.Logger.Info("kafka notification producer initialized", slog.Any("brokers", p.Config.KafkaBrokers))
	return d, nil
}

package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
)

// WorkerModule registers the NATS mail worker.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc         fx.Lifecycle
	Cfg        *config.Config
	NC         *nats.Conn `optional:"true"`
	Dispatcher *email.Dispatcher
	Log        *slog.Logger
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil || !p.Cfg.Email.Async {
		p.Log.Debug("mail_worker: disabled")
		return
	}

	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = startMailWorker(p.NC, p.Cfg.Nats, p.Dispatcher, p.Log)
			return err
		},
		OnStop: func(ctx context.Context) error {
			// Drain of the connection is handled by ProvideNatsClient.
			if sub != nil {
				return sub.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// mail_worker
// ---------------------------------------------------------------------------

func startMailWorker(nc *nats.Conn, cfg config.NatsConfig, d *email.Dispatcher, log *slog.Logger) (*nats.Subscription, error) {
	sub, err := email.Consume(nc, cfg.Subject, cfg.Queue, d, log)
	if err != nil {
		log.Error("mail_worker: subscribe failed", "subject", cfg.Subject, "err", err)
		return nil, err
	}
	log.Info("mail_worker: listening", "subject", sub.Subject, "queue", cfg.Queue)
	return sub, nil
}

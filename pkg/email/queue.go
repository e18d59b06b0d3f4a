package email

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "galaxy.mail.dispatch"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// QueuedMailer hands mail to a NATS subject for the mail worker. When
// publishing fails the mail is dispatched inline instead.
type QueuedMailer struct {
	pub     Publisher
	subject string
	inline  *Dispatcher
	log     *slog.Logger
}

var _ Mailer = (*QueuedMailer)(nil)

func NewQueuedMailer(pub Publisher, subject string, inline *Dispatcher, log *slog.Logger) *QueuedMailer {
	if subject == "" {
		subject = DefaultSubject
	}
	return &QueuedMailer{pub: pub, subject: subject, inline: inline, log: log}
}

func (q *QueuedMailer) Dispatch(ctx context.Context, m Mail) {
	data, err := json.Marshal(m)
	if err == nil {
		err = q.pub.Publish(q.subject, data)
	}
	if err == nil {
		return
	}

	q.log.WarnContext(ctx, "mail queue publish failed, sending inline",
		"subject", q.subject,
		"err", err,
	)
	q.inline.Dispatch(ctx, m)
}

// Consume subscribes d to the mail subject within a queue group so several
// workers share the load.
func Consume(nc *nats.Conn, subject, queue string, d *Dispatcher, log *slog.Logger) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	return nc.QueueSubscribe(subject, queue, QueueHandler(d, log))
}

func QueueHandler(d *Dispatcher, log *slog.Logger) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx := context.Background()
		var m Mail
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.WarnContext(ctx, "mail_worker: malformed payload", "subject", msg.Subject, "err", err)
			return
		}
		d.Dispatch(ctx, m)
	}
}

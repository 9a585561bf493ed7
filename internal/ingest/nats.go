package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/retry"
)

// Envelope is the JSON message body an upload service publishes to
// Consumer.Subject: both halves of a pyreport upload in one message, since
// JetStream gives no ordering guarantee across two separate subjects.
// encoding/json base64-encodes the two []byte fields automatically.
type Envelope struct {
	ReportJSON  []byte `json:"report_json"`
	ChunksBytes []byte `json:"chunks_bytes"`
}

// Consumer pulls Envelope messages off a durable JetStream consumer, for
// deployments where ingest happens over a message broker rather than a
// shared inbox directory.
type Consumer struct {
	URL         string
	Stream      string
	Subject     string
	DurableName string
	Job         *Job
	Retry       retry.Policy // drives the underlying connection's reconnect backoff
}

// Run connects to NATS, ensures the stream and a durable pull consumer
// exist, and consumes messages until ctx is cancelled. Messages that fail
// to parse as an Envelope are terminated without redelivery; messages whose
// Job.Run fails are nak'd for redelivery. No Envelope message is ever acked
// before its pair has committed.
func (c *Consumer) Run(ctx context.Context) error {
	nc, err := nats.Connect(c.URL,
		nats.ReconnectWait(c.Retry.Delay(1)),
		nats.MaxReconnects(c.Retry.MaxRetries),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats reconnected")
		}),
	)
	if err != nil {
		return coreerrors.IoError(fmt.Sprintf("connect to NATS at %s", c.URL), err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return coreerrors.IoError("create jetstream context", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     c.Stream,
		Subjects: []string{c.Subject},
	})
	if err != nil {
		return coreerrors.IoError(fmt.Sprintf("create/update stream %s", c.Stream), err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       c.DurableName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: c.Subject,
	})
	if err != nil {
		return coreerrors.IoError(fmt.Sprintf("create/update consumer %s", c.DurableName), err)
	}

	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return coreerrors.IoError("start jetstream consume", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg jetstream.Msg) {
	var env Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		slog.Error("malformed ingest envelope, dropping", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
		return
	}

	pair := Pair{Source: msg.Subject(), ReportJSON: env.ReportJSON, ChunksBytes: env.ChunksBytes}
	if _, err := c.Job.Run(ctx, pair); err != nil {
		slog.Error("ingest pair failed, nak for redelivery", "subject", msg.Subject(), "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

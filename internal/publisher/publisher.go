package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/metrics"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

const EventLoanPriced = "loan.priced"

// MsgPublisher is the part of nats.JetStreamContext the publisher needs.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher emits pricing events to NATS JetStream.
type Publisher struct {
	nc      *nats.Conn
	js      MsgPublisher
	subject string
	service string
	logger  *zap.Logger
}

// New creates a Publisher on a JetStream context of nc.
func New(nc *nats.Conn, subject, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	p := NewWithJetStream(js, subject, service, logger)
	p.nc = nc
	return p, nil
}

// NewWithJetStream creates a Publisher over an existing JetStream publisher.
func NewWithJetStream(js MsgPublisher, subject, service string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{js: js, subject: subject, service: service, logger: logger}
}

// PublishLoanPriced emits a loan.priced event for a completed pricing run.
func (p *Publisher) PublishLoanPriced(ctx context.Context, evt model.LoanPricedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", p.subject),
			zap.String("run_id", evt.RunID),
			zap.Error(err))
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{EventLoanPriced},
			"run_id":       []string{evt.RunID},
			"service":      []string{p.service},
			"content_type": []string{"application/json"},
		},
	}

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	metrics.ObserveDuration(metrics.NATSMessageLatency, start, p.subject)

	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", p.subject),
			zap.String("run_id", evt.RunID),
			zap.Error(err))
		metrics.IncNATSMessage(p.subject, "error")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", p.subject),
		zap.String("run_id", evt.RunID),
		zap.String("product", evt.Product))
	metrics.IncNATSMessage(p.subject, "ok")
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		_ = p.nc.Drain()
	}
}

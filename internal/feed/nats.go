// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

//go:build nats

package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/tidewatch/internal/logging"
)

// StreamName is the JetStream stream holding both topics.
const StreamName = "TIDEWATCH"

// ErrNATSDisabled is returned when the binary was built without NATS.
var ErrNATSDisabled = errors.New("feed: NATS support not enabled (build with -tags nats)")

// ErrNATSDisconnected is returned by Ping while the connection is down.
var ErrNATSDisconnected = errors.New("feed: NATS connection is down")

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	URL            string
	EmbeddedServer bool
	StoreDir       string
	MaxMemory      int64
	MaxStore       int64
	ReportsTopic   string
	AlertsTopic    string
	DurableName    string
	QueueGroup     string
}

// NATSTransport bundles the watermill publisher and subscriber bound to
// the Tidewatch stream, plus the embedded server when one was started.
type NATSTransport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	server *server.Server
	conn   *natsgo.Conn
}

// NewNATSTransport connects to NATS (starting an embedded server first
// when configured), makes sure the stream exists and creates the
// watermill publisher and subscriber.
func NewNATSTransport(ctx context.Context, cfg NATSConfig, logger watermill.LoggerAdapter) (*NATSTransport, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}
	if cfg.ReportsTopic == "" {
		cfg.ReportsTopic = DefaultReportsTopic
	}
	if cfg.AlertsTopic == "" {
		cfg.AlertsTopic = DefaultAlertsTopic
	}

	t := &NATSTransport{}
	url := cfg.URL

	if cfg.EmbeddedServer {
		ns, err := startEmbeddedServer(cfg)
		if err != nil {
			return nil, err
		}
		t.server = ns
		url = ns.ClientURL()
		logging.Info().Str("url", url).Msg("embedded NATS server started")
	}

	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	t.conn = nc

	if err := ensureStream(ctx, nc, cfg); err != nil {
		t.Close()
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	t.Publisher = pub

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: cfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(StreamName),
				natsgo.DeliverNew(),
				natsgo.AckWait(30 * time.Second),
			},
		},
	}, logger)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	t.Subscriber = sub

	return t, nil
}

func startEmbeddedServer(cfg NATSConfig) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName:         "tidewatch",
		Host:               "127.0.0.1",
		Port:               server.RANDOM_PORT,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		NoSigs:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}
	return ns, nil
}

func ensureStream(ctx context.Context, nc *natsgo.Conn, cfg NATSConfig) error {
	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{cfg.ReportsTopic, cfg.AlertsTopic},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", StreamName, err)
	}
	return nil
}

// Ping reports whether the NATS connection is up.
func (t *NATSTransport) Ping(_ context.Context) error {
	if t.conn == nil || !t.conn.IsConnected() {
		return ErrNATSDisconnected
	}
	return nil
}

// Close shuts everything down in reverse order of creation.
func (t *NATSTransport) Close() {
	if t.Subscriber != nil {
		if err := t.Subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing NATS subscriber")
		}
	}
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing NATS publisher")
		}
	}
	if t.conn != nil {
		t.conn.Close()
	}
	if t.server != nil {
		t.server.Shutdown()
		t.server.WaitForShutdown()
	}
}

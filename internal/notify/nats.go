package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

type Envelope struct {
	Kind      string   `json:"kind"`
	UserIDs   []string `json:"user_ids,omitempty"`
	ChannelID string   `json:"channel_id,omitempty"`
	Message   Message  `json:"message"`
}

const (
	EnvelopeDirect  = "direct"
	EnvelopeChannel = "channel"
)

// NATSNotifier publishes envelopes for the chat adapter, which owns actual delivery.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

func NewNATSNotifier(natsURL, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(natsURL, nats.Name("op-tourney-bot"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSNotifier{nc: nc, subject: subject}, nil
}

func (n *NATSNotifier) NotifyUsers(ctx context.Context, userIDs []string, msg Message) error {
	if len(userIDs) == 0 {
		return nil
	}
	return n.publish(ctx, Envelope{Kind: EnvelopeDirect, UserIDs: userIDs, Message: msg})
}

func (n *NATSNotifier) NotifyChannel(ctx context.Context, channelID string, msg Message) error {
	return n.publish(ctx, Envelope{Kind: EnvelopeChannel, ChannelID: channelID, Message: msg})
}

func (n *NATSNotifier) publish(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	return nil
}

func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}

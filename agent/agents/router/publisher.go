package router

import (
	"context"
	"errors"
	"strings"

	contractx "github.com/avelarsol/concierge/agent/contract"
	qstashx "github.com/avelarsol/concierge/pkg/qstash"
)

// QStashPublisher forwards router outcomes to the broader conversation
// pipeline through a QStash queue destination.
type QStashPublisher struct {
	client      *qstashx.Client
	destination string
}

func NewQStashPublisher(client *qstashx.Client, destination string) (*QStashPublisher, error) {
	if client == nil {
		return nil, errors.New("qstash client is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("pipeline destination url is required")
	}
	return &QStashPublisher{
		client:      client,
		destination: destination,
	}, nil
}

var _ contractx.PipelinePublisher = (*QStashPublisher)(nil)

func (p *QStashPublisher) PublishOutcome(ctx context.Context, outcome contractx.RouterOutcome) error {
	return p.client.Publish(ctx, p.destination, outcome)
}

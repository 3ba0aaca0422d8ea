package service

import (
	"context"

	"planp/internal/domain/entity"
)

// EventPublisher defines the interface for publishing account events to a message sink.
type EventPublisher interface {
	// PublishUserEvent publishes a single account event.
	PublishUserEvent(ctx context.Context, event *entity.UserEvent) error

	// Close releases any resources held by the publisher.
	Close() error
}

package service

import (
	"context"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// EventPublisher fans domain events out to subscribers after a successful
// persist. Delivery is best-effort and at-least-once: a publish failure is
// logged by the caller but never rolls the trip mutation back.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

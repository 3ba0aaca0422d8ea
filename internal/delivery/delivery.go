// Package delivery holds the inbound adapters of the service.
package delivery

import "context"

// Delivery is a long-running inbound adapter started by main and stopped through fx lifecycle hooks.
type Delivery interface {
	Serve(ctx context.Context) error
}

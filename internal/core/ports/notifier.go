package ports

import "context"

// Notifier delivers a message to the given recipient. A nil recipient
// targets the notifier's default destination.
type Notifier interface {
	Notify(ctx context.Context, to any, message string) error
}

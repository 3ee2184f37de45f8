// Package notifier delivers first-time keyword matches to the user: a
// persistent badge plus any configured notification channels.
package notifier

import (
	"context"

	"github.com/aleister1102/keywatch/internal/models"
)

// Surface is where the engine announces new matches.
type Surface interface {
	SetBadge(ctx context.Context, text, color string) error
	// CreateNotification shows n and returns its id. A non-nil error may
	// come with a valid id when only some channels failed.
	CreateNotification(ctx context.Context, n models.Notification) (string, error)
	// OnNotificationClicked resolves a notification id to the page to open.
	OnNotificationClicked(ctx context.Context, id string) (string, error)
}

// Channel is one delivery backend for notifications.
type Channel interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// KVStore is the subset of the local store the notifier needs.
type KVStore interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

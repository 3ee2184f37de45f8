package notifier

import (
	"context"
	"fmt"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/datastore"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher is the Surface used by the daemon. It owns the badge, remembers
// which page every notification points at and fans notifications out to
// its channels.
type Dispatcher struct {
	badge    *BadgeStore
	kv       KVStore
	channels []Channel
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(kv KVStore, channels []Channel, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		badge:    NewBadgeStore(kv),
		kv:       kv,
		channels: channels,
		logger:   logger.With().Str("component", "NotificationDispatcher").Logger(),
	}
}

// Badge exposes the badge store for status surfaces.
func (d *Dispatcher) Badge() *BadgeStore {
	return d.badge
}

// SetBadge implements Surface.
func (d *Dispatcher) SetBadge(ctx context.Context, text, color string) error {
	return d.badge.SetBadge(ctx, text, color)
}

// CreateNotification implements Surface. The click target is stored before
// any channel runs; channel failures are joined into the returned error.
func (d *Dispatcher) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	if err := d.kv.Set(ctx, map[string]string{datastore.KeyNotificationPrefix + n.ID: n.URL}); err != nil {
		return "", err
	}

	collector := &common.ErrorCollector{}
	for _, ch := range d.channels {
		if err := ch.Send(ctx, n); err != nil {
			collector.AddWithContext(err, ch.Name())
			continue
		}
		d.logger.Debug().Str("channel", ch.Name()).Str("id", n.ID).Msg("Notification delivered")
	}
	return n.ID, collector.Error()
}

// OnNotificationClicked implements Surface.
func (d *Dispatcher) OnNotificationClicked(ctx context.Context, id string) (string, error) {
	key := datastore.KeyNotificationPrefix + id
	values, err := d.kv.Get(ctx, key)
	if err != nil {
		return "", err
	}
	url, ok := values[key]
	if !ok || url == "" {
		return "", fmt.Errorf("notification %q: %w", id, common.ErrNotFound)
	}
	return url, nil
}

// Dismiss forgets a notification's click target.
func (d *Dispatcher) Dismiss(ctx context.Context, id string) error {
	return d.kv.Delete(ctx, datastore.KeyNotificationPrefix+id)
}

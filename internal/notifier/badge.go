package notifier

import (
	"context"

	"github.com/aleister1102/keywatch/internal/datastore"
)

// Badge is the small indicator shown by status surfaces.
type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// BadgeStore keeps the badge in the local store so every surface sees the
// same value.
type BadgeStore struct {
	kv KVStore
}

// NewBadgeStore creates a BadgeStore backed by kv.
func NewBadgeStore(kv KVStore) *BadgeStore {
	return &BadgeStore{kv: kv}
}

// SetBadge stores text and color.
func (b *BadgeStore) SetBadge(ctx context.Context, text, color string) error {
	return b.kv.Set(ctx, map[string]string{
		datastore.KeyBadgeText:  text,
		datastore.KeyBadgeColor: color,
	})
}

// Get returns the current badge. An unset badge is empty.
func (b *BadgeStore) Get(ctx context.Context) (Badge, error) {
	values, err := b.kv.Get(ctx, datastore.KeyBadgeText, datastore.KeyBadgeColor)
	if err != nil {
		return Badge{}, err
	}
	return Badge{Text: values[datastore.KeyBadgeText], Color: values[datastore.KeyBadgeColor]}, nil
}

// Clear blanks the badge text. The notification counter is untouched.
func (b *BadgeStore) Clear(ctx context.Context) error {
	return b.kv.Set(ctx, map[string]string{datastore.KeyBadgeText: ""})
}

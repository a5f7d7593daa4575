package out

import "context"

// KeyValueStore is durable client-side storage holding string values under fixed keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

package storage

import "context"

// ObjectStore is the bucket the photo ids live in.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
	PublicURL(key string) string
}

// Package storage keeps uploaded objects (gallery media, verification
// selfies) in named buckets and hands out public URLs for them.
package storage

import (
	"context"
	"errors"
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Buckets
const (
	BucketMedia         = "media"
	BucketVerifications = "verifications"
	BucketDeposits      = "deposit-proofs"
)

type PutOptions struct {
	ContentType  string
	CacheControl string
	// Upsert replaces an existing object instead of failing with ErrObjectExists.
	Upsert bool
}

// ObjectStore is the blob backend used by the media and verification flows.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

package state

import "context"

// Store is the durability interface the in-memory Manager depends on. It is
// satisfied by internal/store/postgres.Store and by an in-memory fake used
// in tests.
type Store interface {
	// Init performs idempotent schema creation/migration.
	Init(ctx context.Context) error
	// LoadAll returns every persisted channel, keyed by ChannelID, for
	// startup bootstrap.
	LoadAll(ctx context.Context) (map[[32]byte]*Channel, error)
	// Upsert durably writes the entire state of one channel in a single
	// atomic operation.
	Upsert(ctx context.Context, ch *Channel) error
	// FindByOwner returns the channel IDs owned by addr.
	FindByOwner(ctx context.Context, owner [20]byte) ([][32]byte, error)
	// FindExpiredBefore returns the channel IDs eligible for pruning: those
	// whose expiry timestamp is older than cutoff and which never settled
	// past sequence 0, plus every finalized channel regardless of expiry.
	FindExpiredBefore(ctx context.Context, cutoff int64) ([][32]byte, error)
	// Delete permanently removes a channel record.
	Delete(ctx context.Context, channelID [32]byte) error
}

package domain

import "context"

// MessageRepository is the persisted message cache.
type MessageRepository interface {
	Get(ctx context.Context, id MessageID) (Message, bool, error)
	Upsert(ctx context.Context, messages ...Message) error
	Remove(ctx context.Context, ids ...MessageID) error
	Replies(ctx context.Context, parentID MessageID) ([]Message, error)
	ListReplies(ctx context.Context, parentID MessageID, page Pagination) ([]Message, error)
}

// Package observer watches the local message store and turns committed writes
// into entity and list change descriptors.
package observer

import (
	"context"

	"github.com/skobkin/msgsync/internal/domain"
)

// Reader is the synchronous read side of the local store.
type Reader interface {
	Get(ctx context.Context, id domain.MessageID) (domain.Message, bool, error)
	Replies(ctx context.Context, parentID domain.MessageID) ([]domain.Message, error)
}

package connectors

import (
	"slices"

	"github.com/skobkin/msgsync/internal/domain"
)

// StoreChangeKind tells observers which write produced a store event.
type StoreChangeKind string

const (
	StoreChangeUpsert StoreChangeKind = "upsert"
	StoreChangeRemove StoreChangeKind = "remove"
)

// MessageStoreChange is published after a committed store write.
// ParentIDs lists the thread parents whose reply sets may have changed.
type MessageStoreChange struct {
	Kind       StoreChangeKind
	MessageIDs []domain.MessageID
	ParentIDs  []domain.MessageID
}

func (c MessageStoreChange) Touches(id domain.MessageID) bool {
	return slices.Contains(c.MessageIDs, id)
}

func (c MessageStoreChange) TouchesThread(parentID domain.MessageID) bool {
	return slices.Contains(c.ParentIDs, parentID)
}

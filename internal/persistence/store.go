package persistence

import (
	"context"
	"log/slog"

	"github.com/skobkin/msgsync/internal/bus"
	"github.com/skobkin/msgsync/internal/connectors"
	"github.com/skobkin/msgsync/internal/domain"
)

// Store is the observable local message cache. Every committed write is
// announced on connectors.TopicMessageStore.
type Store struct {
	repo   *MessageRepo
	bus    bus.MessageBus
	logger *slog.Logger
}

func NewStore(repo *MessageRepo, b bus.MessageBus, logger *slog.Logger) *Store {
	return &Store{repo: repo, bus: b, logger: logger}
}

func (s *Store) Get(ctx context.Context, id domain.MessageID) (domain.Message, bool, error) {
	return s.repo.Get(ctx, id)
}

func (s *Store) Replies(ctx context.Context, parentID domain.MessageID) ([]domain.Message, error) {
	return s.repo.Replies(ctx, parentID)
}

func (s *Store) ListReplies(ctx context.Context, parentID domain.MessageID, page domain.Pagination) ([]domain.Message, error) {
	return s.repo.ListReplies(ctx, parentID, page)
}

func (s *Store) Upsert(ctx context.Context, messages ...domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	previousParents, err := s.repo.ParentIDs(ctx, messageIDs(messages)...)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, messages...); err != nil {
		return err
	}

	change := connectors.MessageStoreChange{
		Kind:       connectors.StoreChangeUpsert,
		MessageIDs: messageIDs(messages),
		ParentIDs:  previousParents,
	}
	for _, m := range messages {
		if m.IsReply() {
			change.ParentIDs = appendUnique(change.ParentIDs, m.ParentID)
		}
	}
	s.publish(change)

	return nil
}

func (s *Store) Remove(ctx context.Context, ids ...domain.MessageID) error {
	if len(ids) == 0 {
		return nil
	}
	parents, err := s.repo.ParentIDs(ctx, ids...)
	if err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, ids...); err != nil {
		return err
	}
	s.publish(connectors.MessageStoreChange{
		Kind:       connectors.StoreChangeRemove,
		MessageIDs: ids,
		ParentIDs:  parents,
	})

	return nil
}

func (s *Store) publish(change connectors.MessageStoreChange) {
	s.logger.Debug("store committed", "kind", change.Kind, "messages", len(change.MessageIDs), "threads", len(change.ParentIDs))
	s.bus.Publish(connectors.TopicMessageStore, change)
}

func messageIDs(messages []domain.Message) []domain.MessageID {
	out := make([]domain.MessageID, 0, len(messages))
	for _, m := range messages {
		out = appendUnique(out, m.ID)
	}

	return out
}

func appendUnique(ids []domain.MessageID, id domain.MessageID) []domain.MessageID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}

	return append(ids, id)
}

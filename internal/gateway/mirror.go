// Package gateway provides controller.Gateway implementations.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/skobkin/msgsync/internal/domain"
)

// Mirror treats an upstream repository as the remote authority and copies
// every result into the local repository before returning.
type Mirror struct {
	upstream domain.MessageRepository
	local    domain.MessageRepository
	author   domain.UserID
	logger   *slog.Logger
	now      func() time.Time

	// Serializes read-modify-write cycles against upstream.
	mu sync.Mutex
}

func NewMirror(upstream, local domain.MessageRepository, author domain.UserID, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}

	return &Mirror{
		upstream: upstream,
		local:    local,
		author:   author,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Mirror) GetMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID) error {
	msg, err := m.authoritative(ctx, cid, id)
	if err != nil {
		return err
	}
	if err := m.local.Upsert(ctx, msg); err != nil {
		return fmt.Errorf("store message %s: %w", id, err)
	}
	m.logger.Debug("message fetched", "message_id", id, "channel_id", cid.String())

	return nil
}

func (m *Mirror) DeleteMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID) error {
	return m.update(ctx, cid, id, func(msg *domain.Message, now time.Time) {
		msg.DeletedAt = now
		msg.UpdatedAt = now
	})
}

func (m *Mirror) EditMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID, text string) error {
	return m.update(ctx, cid, id, func(msg *domain.Message, now time.Time) {
		msg.Text = text
		msg.UpdatedAt = now
	})
}

func (m *Mirror) FlagMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID, flag bool) error {
	return m.update(ctx, cid, id, func(msg *domain.Message, _ time.Time) {
		msg.Flagged = flag
	})
}

func (m *Mirror) CreateReply(ctx context.Context, cid domain.ChannelID, parentID domain.MessageID, text string, showInChannel bool, extraData json.RawMessage) (domain.MessageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, err := m.authoritative(ctx, cid, parentID)
	if err != nil {
		return "", err
	}
	now := m.timestamp()
	reply := domain.Message{
		ID:            domain.MessageID(ulid.Make().String()),
		AuthorID:      m.author,
		ChannelID:     cid,
		ParentID:      parentID,
		Text:          text,
		CreatedAt:     now,
		ShowInChannel: showInChannel,
		ExtraData:     append(json.RawMessage(nil), extraData...),
	}
	if len(reply.ExtraData) == 0 {
		reply.ExtraData = nil
	}
	parent.ReplyCount++
	parent.UpdatedAt = now

	if err := m.upstream.Upsert(ctx, reply, parent); err != nil {
		return "", fmt.Errorf("create reply to %s: %w", parentID, err)
	}
	if err := m.local.Upsert(ctx, reply, parent); err != nil {
		return "", fmt.Errorf("store reply %s: %w", reply.ID, err)
	}
	m.logger.Info("reply created", "reply_id", reply.ID, "parent_id", parentID)

	return reply.ID, nil
}

func (m *Mirror) LoadReplies(ctx context.Context, cid domain.ChannelID, parentID domain.MessageID, page domain.Pagination) error {
	page = page.Normalized()
	replies, err := m.upstream.ListReplies(ctx, parentID, page)
	if err != nil {
		return fmt.Errorf("list replies of %s: %w", parentID, err)
	}
	visible := replies[:0]
	for _, r := range replies {
		if r.ChannelID == cid {
			visible = append(visible, r)
		}
	}
	if err := m.local.Upsert(ctx, visible...); err != nil {
		return fmt.Errorf("store replies of %s: %w", parentID, err)
	}
	m.logger.Debug("replies page loaded", "parent_id", parentID, "pagination", page.Parameter.String(), "count", len(visible))

	return nil
}

func (m *Mirror) update(ctx context.Context, cid domain.ChannelID, id domain.MessageID, apply func(*domain.Message, time.Time)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, err := m.authoritative(ctx, cid, id)
	if err != nil {
		return err
	}
	apply(&msg, m.timestamp())
	if err := m.upstream.Upsert(ctx, msg); err != nil {
		return fmt.Errorf("update message %s: %w", id, err)
	}
	if err := m.local.Upsert(ctx, msg); err != nil {
		return fmt.Errorf("store message %s: %w", id, err)
	}

	return nil
}

// authoritative reads id from upstream. A miss leaves the local store untouched.
func (m *Mirror) authoritative(ctx context.Context, cid domain.ChannelID, id domain.MessageID) (domain.Message, error) {
	msg, ok, err := m.upstream.Get(ctx, id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch message %s: %w", id, err)
	}
	if !ok || msg.ChannelID != cid {
		return domain.Message{}, fmt.Errorf("fetch message %s: %w", id, domain.ErrMessageNotFound)
	}

	return msg, nil
}

// timestamp matches the millisecond precision of stored timestamps.
func (m *Mirror) timestamp() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

package controller

import (
	"context"

	"github.com/skobkin/msgsync/internal/domain"
)

// LoadPreviousReplies loads the page of replies older than before, or older than
// the oldest loaded reply when before is zero. With nothing loaded the newest
// page is requested. limit <= 0 uses the client page size.
func (c *MessageController) LoadPreviousReplies(before domain.MessageID, limit int, completion func(error)) {
	c.startObserving()

	cursor := before
	if cursor.IsZero() {
		if oldest, ok := c.loadedBoundary(-1); ok {
			cursor = oldest.ID
		}
	}
	var param domain.PaginationParameter
	if !cursor.IsZero() {
		param = domain.LessThan(cursor)
	}

	c.loadReplies(domain.Pagination{PageSize: c.pageSize(limit), Parameter: param}, completion)
}

// LoadNextReplies loads the page of replies newer than after, or newer than the
// newest loaded reply when after is zero. It fails with domain.ErrEmptyReplies
// when there is no anchor at all.
func (c *MessageController) LoadNextReplies(after domain.MessageID, limit int, completion func(error)) {
	c.startObserving()

	cursor := after
	if cursor.IsZero() {
		newest, ok := c.loadedBoundary(1)
		if !ok {
			c.client.executor.Enqueue("load_next_replies", func() {
				if completion != nil {
					completion(domain.ErrEmptyReplies)
				}
			})
			return
		}
		cursor = newest.ID
	}

	c.loadReplies(domain.Pagination{PageSize: c.pageSize(limit), Parameter: domain.GreaterThan(cursor)}, completion)
}

func (c *MessageController) loadReplies(page domain.Pagination, completion func(error)) {
	c.logger.Debug("load replies", "page_size", page.PageSize, "pagination", page.Parameter.String())
	runOperation(c, "load_replies", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.client.gateway.LoadReplies(ctx, c.channelID, c.messageID, page)
	}, func(_ struct{}, err error) {
		if completion != nil {
			completion(err)
		}
	})
}

// loadedBoundary returns the oldest (dir < 0) or newest (dir > 0) loaded reply
// regardless of the current ordering.
func (c *MessageController) loadedBoundary(dir int) (domain.Message, bool) {
	c.mu.Lock()
	replies := c.replies
	c.mu.Unlock()
	if replies == nil {
		return domain.Message{}, false
	}

	items := replies.Items()
	if len(items) == 0 {
		return domain.Message{}, false
	}
	best := items[0]
	for _, m := range items[1:] {
		if domain.CompareCreated(m, best)*dir > 0 {
			best = m
		}
	}

	return best, true
}

func (c *MessageController) pageSize(limit int) int {
	if limit > 0 {
		return limit
	}

	return c.client.pageSize
}

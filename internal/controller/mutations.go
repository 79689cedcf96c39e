package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skobkin/msgsync/internal/domain"
)

// DeleteMessage deletes the message remotely.
func (c *MessageController) DeleteMessage(completion func(error)) {
	c.perform("delete", func(ctx context.Context) error {
		return c.client.gateway.DeleteMessage(ctx, c.channelID, c.messageID)
	}, completion)
}

// EditMessage replaces the message text. Blank text is rejected without a gateway call.
func (c *MessageController) EditMessage(text string, completion func(error)) error {
	if err := validateText(text); err != nil {
		return err
	}
	c.perform("edit", func(ctx context.Context) error {
		return c.client.gateway.EditMessage(ctx, c.channelID, c.messageID, text)
	}, completion)

	return nil
}

func (c *MessageController) Flag(completion func(error)) {
	c.setFlag(true, completion)
}

func (c *MessageController) Unflag(completion func(error)) {
	c.setFlag(false, completion)
}

func (c *MessageController) setFlag(flag bool, completion func(error)) {
	op := "unflag"
	if flag {
		op = "flag"
	}
	c.perform(op, func(ctx context.Context) error {
		return c.client.gateway.FlagMessage(ctx, c.channelID, c.messageID, flag)
	}, completion)
}

// CreateNewReply posts a reply to this message. The completion receives the id
// assigned by the gateway; the stored reply shows up through RepliesChanged.
func (c *MessageController) CreateNewReply(text string, showInChannel bool, extraData json.RawMessage, completion func(domain.MessageID, error)) error {
	if err := validateText(text); err != nil {
		return err
	}
	if len(extraData) > 0 && !json.Valid(extraData) {
		return &domain.ValidationError{Field: "extra_data", Reason: "must be valid JSON"}
	}
	extra := append(json.RawMessage(nil), extraData...)
	if len(extra) == 0 {
		extra = nil
	}

	runOperation(c, "create_reply", func(ctx context.Context) (domain.MessageID, error) {
		return c.client.gateway.CreateReply(ctx, c.channelID, c.messageID, text, showInChannel, extra)
	}, completion)

	return nil
}

func (c *MessageController) perform(op string, call func(context.Context) error, completion func(error)) {
	runOperation(c, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	}, func(_ struct{}, err error) {
		if completion != nil {
			completion(err)
		}
	})
}

// runOperation calls the gateway on its own goroutine. Store changes caused by a
// successful call are queued before the completion. The controller stays
// registered as pending until the completion has run on the executor.
func runOperation[T any](c *MessageController, op string, call func(context.Context) (T, error), completion func(T, error)) {
	release := c.client.pending.retain(c)
	c.client.metrics.OperationStarted()

	go func() {
		result, err := call(c.client.ctx)
		c.client.metrics.GatewayCall(op, err)
		if err == nil {
			c.refreshObservers()
		} else {
			c.logger.Warn("operation failed", "op", op, "error", err)
			err = fmt.Errorf("message %s: %s: %w", c.messageID, op, err)
		}

		c.client.executor.Enqueue(op+"_completion", func() {
			defer func() {
				release()
				c.client.metrics.OperationFinished()
			}()
			if completion != nil {
				completion(result, err)
			}
		})
	}()
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	return nil
}

package controller

import (
	"fmt"

	"github.com/skobkin/msgsync/internal/domain"
)

// Synchronize starts local observation if needed and refreshes the message from
// the gateway. Calls made while a fetch is in flight share its outcome;
// completions run in call order after the state notification.
func (c *MessageController) Synchronize(completion func(error)) {
	c.startObserving()

	c.mu.Lock()
	if c.observeErr != nil {
		err := c.observeErr
		c.mu.Unlock()
		c.client.executor.Enqueue("synchronize_completion", func() {
			if completion != nil {
				completion(err)
			}
		})
		return
	}
	c.syncWaiters = append(c.syncWaiters, completion)
	if c.syncing {
		c.mu.Unlock()
		c.client.metrics.SynchronizeCoalesced()
		c.logger.Debug("synchronize coalesced with in-flight fetch")
		return
	}
	c.syncing = true
	c.mu.Unlock()

	go func() {
		err := c.client.gateway.GetMessage(c.client.ctx, c.channelID, c.messageID)
		c.client.metrics.GatewayCall("get_message", err)
		c.finishSynchronize(err)
	}()
}

func (c *MessageController) finishSynchronize(err error) {
	state := domain.RemoteDataFetched()
	if err != nil {
		err = fmt.Errorf("message %s: synchronize: %w", c.messageID, err)
		state = domain.RemoteDataFetchFailed(err)
		c.logger.Warn("synchronize failed", "error", err)
	} else {
		c.refreshObservers()
	}
	c.client.metrics.SynchronizeDone(err)

	c.mu.Lock()
	defer c.mu.Unlock()
	waiters := c.syncWaiters
	c.syncWaiters = nil
	c.syncing = false
	c.transitionLocked(state)
	c.client.executor.Enqueue("synchronize_completion", func() {
		for _, completion := range waiters {
			if completion != nil {
				completion(err)
			}
		}
	})
}

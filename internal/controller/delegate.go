package controller

import "github.com/skobkin/msgsync/internal/domain"

// Delegate receives controller notifications on the client's executor.
type Delegate interface {
	StateChanged(state domain.ControllerState)
	MessageChanged(change domain.EntityChange[domain.Message])
	RepliesChanged(changes []domain.ListChange[domain.Message])
}

// DelegateFuncs adapts plain functions to Delegate. Nil fields are skipped.
type DelegateFuncs struct {
	OnStateChange   func(state domain.ControllerState)
	OnMessageChange func(change domain.EntityChange[domain.Message])
	OnRepliesChange func(changes []domain.ListChange[domain.Message])
}

func (f DelegateFuncs) StateChanged(state domain.ControllerState) {
	if f.OnStateChange != nil {
		f.OnStateChange(state)
	}
}

func (f DelegateFuncs) MessageChanged(change domain.EntityChange[domain.Message]) {
	if f.OnMessageChange != nil {
		f.OnMessageChange(change)
	}
}

func (f DelegateFuncs) RepliesChanged(changes []domain.ListChange[domain.Message]) {
	if f.OnRepliesChange != nil {
		f.OnRepliesChange(changes)
	}
}

package domain

import "fmt"

type StateKind int

const (
	StateInitialized StateKind = iota
	StateLocalDataFetched
	StateRemoteDataFetched
	StateRemoteDataFetchFailed
)

func (k StateKind) String() string {
	switch k {
	case StateInitialized:
		return "initialized"
	case StateLocalDataFetched:
		return "local_data_fetched"
	case StateRemoteDataFetched:
		return "remote_data_fetched"
	case StateRemoteDataFetchFailed:
		return "remote_data_fetch_failed"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// ControllerState is the controller lifecycle. Err is set only for StateRemoteDataFetchFailed.
type ControllerState struct {
	Kind StateKind
	Err  error
}

func Initialized() ControllerState { return ControllerState{Kind: StateInitialized} }

func LocalDataFetched() ControllerState { return ControllerState{Kind: StateLocalDataFetched} }

func RemoteDataFetched() ControllerState { return ControllerState{Kind: StateRemoteDataFetched} }

func RemoteDataFetchFailed(err error) ControllerState {
	return ControllerState{Kind: StateRemoteDataFetchFailed, Err: err}
}

func (s ControllerState) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %v", s.Kind, s.Err)
	}

	return s.Kind.String()
}

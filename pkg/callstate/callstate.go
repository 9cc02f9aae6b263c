// Package callstate 一对一通话的状态迁移
//
//	ringing --answer--> connecting --connected--> connected
//	任一状态 --decline/end/failed/offline--> ended
package callstate

import (
	"errors"
	"fmt"
)

type State string

const (
	Ringing    State = "ringing"
	Connecting State = "connecting"
	Connected  State = "connected"
	Ended      State = "ended"
)

type Trigger string

const (
	Answer    Trigger = "answer"
	Establish Trigger = "connected"
	Hangup    Trigger = "hangup"
)

var ErrInvalidTransition = errors.New("invalid call state transition")

// Next 返回 trigger 作用后的状态，非法迁移返回 ErrInvalidTransition
func (s State) Next(t Trigger) (State, error) {
	switch {
	case t == Hangup && s != Ended:
		return Ended, nil
	case t == Answer && s == Ringing:
		return Connecting, nil
	case t == Establish && s == Connecting:
		return Connected, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, t, s)
}

func (s State) Active() bool {
	return s == Ringing || s == Connecting || s == Connected
}

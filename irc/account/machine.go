package account

import (
	"strings"

	"github.com/presbrey/suprachat/irc"
)

// State is a step of a handshake
type State int

const (
	StateInit State = iota
	StateNegotiatingCap
	StateNegotiatingSession
	StateAwaitingRegisterResult
	StateAwaitingVerifyResult
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateInit:                   "init",
	StateNegotiatingCap:         "negotiating_cap",
	StateNegotiatingSession:     "negotiating_session",
	StateAwaitingRegisterResult: "awaiting_register_result",
	StateAwaitingVerifyResult:   "awaiting_verify_result",
	StateSucceeded:              "succeeded",
	StateFailed:                 "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further input is expected
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Transition is what a machine wants done after consuming one line: frames
// to send, in order, and the final result once the handshake is over.
type Transition struct {
	Out    []*irc.Message
	Result *Result
}

// Terminal reports whether the transition ends the handshake
func (t Transition) Terminal() bool {
	return t.Result != nil
}

// Machine is a handshake expressed without any I/O. Start yields the opening
// frames, Step consumes one inbound line, and EOF yields the result for a
// peer that closed before the handshake reached a terminal state.
type Machine interface {
	Start() []*irc.Message
	Step(msg *irc.Message) Transition
	EOF() Result
	State() State
}

// machineBase carries the rules shared by every handshake
type machineBase struct {
	state     State
	lastError string
}

func (b *machineBase) State() State {
	return b.state
}

// common answers PINGs and detects a rejected WEBIRC password. ok is false
// when the line needs state-specific handling.
func (b *machineBase) common(msg *irc.Message) (t Transition, ok bool) {
	switch msg.Command {
	case irc.PING:
		return Transition{Out: []*irc.Message{irc.NewMessage(irc.PONG, msg.Params...)}}, true

	case irc.ERROR:
		reason := strings.Join(msg.Params, " ")
		b.lastError = reason
		if strings.Contains(reason, "incorrect password") {
			// The daemon is already closing the link, so no QUIT
			return b.finish(failed(WrongWebircPassword, "Wrong WebIRC password."), false), true
		}
		return Transition{}, true
	}
	return Transition{}, false
}

func (b *machineBase) finish(res Result, quit bool) Transition {
	if res.OK() {
		b.state = StateSucceeded
	} else {
		b.state = StateFailed
	}

	t := Transition{Result: &res}
	if quit {
		t.Out = []*irc.Message{irc.NewMessage(irc.QUIT)}
	}
	return t
}

func (b *machineBase) EOF() Result {
	b.state = StateFailed
	if b.lastError != "" {
		return failed(Disconnected, "Disconnected from IRC server: "+b.lastError)
	}
	return failed(Disconnected, "Disconnected from IRC server.")
}

func webircMessage(s Session) *irc.Message {
	gateway := s.Gateway
	if gateway == "" {
		gateway = "*"
	}
	ip := s.RemoteIP
	if strings.HasPrefix(ip, ":") {
		// "::1" would be read as a trailing parameter
		ip = "0" + ip
	}
	return irc.NewMessage(irc.WEBIRC, s.WebIRCPassword, gateway, ip, ip, irc.WebIRCFlags)
}

func registrationMessages(nick string) []*irc.Message {
	return []*irc.Message{
		irc.NewMessage(irc.NICK, nick),
		irc.NewMessage(irc.USER, nick, "*", "*", nick),
	}
}

package account

import "github.com/presbrey/suprachat/irc"

// probeMachine lists the daemon's capabilities and reports whether account
// registration is available. It never registers a nick.
type probeMachine struct {
	machineBase
	session Session
	neg     *negotiator
}

// newProbeMachine returns a handshake that only runs CAP LS
func newProbeMachine(session Session) *probeMachine {
	return &probeMachine{
		session: session,
		neg:     newNegotiator(""),
	}
}

// Caps returns the capabilities advertised so far
func (m *probeMachine) Caps() irc.CapSet {
	return m.neg.caps
}

func (m *probeMachine) Start() []*irc.Message {
	m.state = StateNegotiatingCap
	return append([]*irc.Message{webircMessage(m.session)}, m.neg.start()...)
}

func (m *probeMachine) Step(msg *irc.Message) Transition {
	if m.state.Terminal() {
		return Transition{}
	}
	if t, ok := m.common(msg); ok {
		return t
	}

	if _, done, _ := m.neg.step(msg); !done {
		return Transition{}
	}

	if !m.neg.caps.Has(irc.AccountRegistration) {
		return m.finish(failed(CapabilityUnavailable, "IRC server does not offer "+irc.AccountRegistration+"."), true)
	}
	return m.finish(succeeded(irc.AccountRegistration+"="+m.neg.caps.Value(irc.AccountRegistration)), true)
}

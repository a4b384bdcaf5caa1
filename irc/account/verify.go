package account

import "github.com/presbrey/suprachat/irc"

const verifiedMessage = "Verification successful."

// verifyMachine sends WEBIRC, CAP LS, NICK, USER and VERIFY up front and
// waits for VERIFY SUCCESS or a FAIL frame. No capability is requested.
type verifyMachine struct {
	machineBase
	session Session
	nick    string
	code    string
}

// NewVerifyMachine returns the verification handshake for one account
func NewVerifyMachine(session Session, nick, code string) Machine {
	return &verifyMachine{
		session: session,
		nick:    nick,
		code:    code,
	}
}

func (m *verifyMachine) Start() []*irc.Message {
	m.state = StateNegotiatingSession
	out := []*irc.Message{webircMessage(m.session)}
	out = append(out, newNegotiator("").start()...)
	out = append(out, registrationMessages(m.nick)...)

	m.state = StateAwaitingVerifyResult
	return append(out, irc.NewMessage(irc.VERIFY, m.nick, m.code))
}

func (m *verifyMachine) Step(msg *irc.Message) Transition {
	if m.state.Terminal() {
		return Transition{}
	}
	if t, ok := m.common(msg); ok {
		return t
	}
	if m.state != StateAwaitingVerifyResult {
		return Transition{}
	}

	switch msg.Command {
	case irc.VERIFY:
		if !msg.HasParam("SUCCESS") {
			return Transition{}
		}
		text := verifiedMessage
		// VERIFY SUCCESS <account> :<message>
		if len(msg.Params) >= 3 {
			text = msg.Trailing()
		}
		return m.finish(succeeded(text), true)

	case irc.FAIL:
		return m.finish(Result{
			Kind:    VerificationError,
			Code:    msg.Param(1),
			Message: msg.Trailing(),
		}, true)
	}

	return Transition{}
}

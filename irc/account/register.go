package account

import "github.com/presbrey/suprachat/irc"

const registeredMessage = "Registered successfully, awaiting verification."

// registerMachine runs WEBIRC, CAP negotiation for account-registration,
// NICK/USER, REGISTER and CAP END, then waits for the welcome numeric.
type registerMachine struct {
	machineBase
	session  Session
	nick     string
	email    string
	password string
	neg      *negotiator

	// text of a REGISTER SUCCESS / VERIFICATION_REQUIRED reply
	notice string
}

// NewRegisterMachine returns the registration handshake for one account
func NewRegisterMachine(session Session, nick, email, password string) Machine {
	return &registerMachine{
		session:  session,
		nick:     nick,
		email:    email,
		password: password,
		neg:      newNegotiator(irc.AccountRegistration),
	}
}

func (m *registerMachine) Start() []*irc.Message {
	m.state = StateNegotiatingCap
	return append([]*irc.Message{webircMessage(m.session)}, m.neg.start()...)
}

func (m *registerMachine) Step(msg *irc.Message) Transition {
	if m.state.Terminal() {
		return Transition{}
	}
	if t, ok := m.common(msg); ok {
		return t
	}

	switch m.state {
	case StateNegotiatingCap:
		out, done, res := m.neg.step(msg)
		if res != nil {
			return m.finish(*res, true)
		}
		if !done {
			return Transition{Out: out}
		}

		m.state = StateAwaitingRegisterResult
		out = registrationMessages(m.nick)
		out = append(out,
			irc.NewMessage(irc.REGISTER, "*", m.email, m.password),
			irc.NewMessage(irc.CAP, irc.CapEND),
		)
		return Transition{Out: out}

	case StateAwaitingRegisterResult:
		switch msg.Command {
		case irc.FAIL:
			if msg.Param(0) != irc.REGISTER || !IsRegisterErrorCode(msg.Param(1)) {
				return Transition{}
			}
			return m.finish(Result{
				Kind:    RegistrationError,
				Code:    msg.Param(1),
				Message: msg.Trailing(),
			}, true)

		case irc.REGISTER:
			// REGISTER <SUCCESS|VERIFICATION_REQUIRED> <account> :<message>
			if len(msg.Params) >= 3 {
				m.notice = msg.Trailing()
			}
			return Transition{}

		case irc.RplWelcome:
			text := registeredMessage
			if m.notice != "" {
				text = m.notice
			}
			return m.finish(succeeded(text), true)
		}
	}

	return Transition{}
}

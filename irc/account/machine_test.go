package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presbrey/suprachat/irc"
)

var testSession = Session{WebIRCPassword: "gatewaypass", RemoteIP: "203.0.113.7"}

func lines(msgs []*irc.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.String())
	}
	return out
}

func step(t *testing.T, m Machine, line string) Transition {
	t.Helper()
	msg := irc.ParseMessage(line)
	require.NotNil(t, msg, line)
	return m.Step(msg)
}

const (
	lsContinued = ":srv CAP * LS * :away-notify echo-message"
	lsFinal     = ":srv CAP * LS :draft/account-registration=before-connect sasl"
	ackLine     = ":srv CAP * ACK :draft/account-registration"
)

func TestRegisterMachineHappyPath(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	assert.Equal(t, StateInit, m.State())

	assert.Equal(t, []string{
		"WEBIRC gatewaypass * 203.0.113.7 203.0.113.7 secure",
		"CAP LS 302",
	}, lines(m.Start()))
	assert.Equal(t, StateNegotiatingCap, m.State())

	tr := step(t, m, lsContinued)
	assert.Empty(t, tr.Out)
	assert.False(t, tr.Terminal())

	tr = step(t, m, lsFinal)
	assert.Equal(t, []string{"CAP REQ draft/account-registration"}, lines(tr.Out))

	tr = step(t, m, ackLine)
	assert.Equal(t, []string{
		"NICK DeadOcean",
		"USER DeadOcean * * DeadOcean",
		"REGISTER * dead@ocean.example hunter2",
		"CAP END",
	}, lines(tr.Out))
	assert.Equal(t, StateAwaitingRegisterResult, m.State())

	tr = step(t, m, ":srv 001 DeadOcean :Welcome")
	require.True(t, tr.Terminal())
	assert.Equal(t, Success, tr.Result.Kind)
	assert.Equal(t, registeredMessage, tr.Result.Message)
	assert.Equal(t, []string{"QUIT"}, lines(tr.Out))
	assert.Equal(t, StateSucceeded, m.State())

	// Nothing happens after the terminal state
	assert.Equal(t, Transition{}, step(t, m, "PING :late"))
}

func TestRegisterMachineNotice(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()
	step(t, m, lsFinal)
	step(t, m, ackLine)

	tr := step(t, m, ":srv REGISTER VERIFICATION_REQUIRED DeadOcean :Check your email")
	assert.False(t, tr.Terminal())

	tr = step(t, m, ":srv 001 DeadOcean :Welcome")
	require.True(t, tr.Terminal())
	assert.Equal(t, "Check your email", tr.Result.Message)
}

func TestRegisterMachineFail(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()
	step(t, m, lsFinal)
	step(t, m, ackLine)

	// Unknown codes and other commands are not terminal
	assert.False(t, step(t, m, "FAIL REGISTER SOMETHING_NEW :huh").Terminal())
	assert.False(t, step(t, m, "FAIL CHATHISTORY INVALID_TARGET :nope").Terminal())

	tr := step(t, m, "FAIL REGISTER USERNAME_EXISTS :nickname already taken")
	require.True(t, tr.Terminal())
	assert.Equal(t, Result{Kind: RegistrationError, Code: CodeUsernameExists, Message: "nickname already taken"}, *tr.Result)
	assert.Equal(t, []string{"QUIT"}, lines(tr.Out))
	assert.Equal(t, StateFailed, m.State())
}

func TestRegisterMachineCapabilityMissing(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()

	tr := step(t, m, ":srv CAP * LS :sasl echo-message")
	require.True(t, tr.Terminal())
	assert.Equal(t, CapabilityUnavailable, tr.Result.Kind)
	assert.Equal(t, []string{"QUIT"}, lines(tr.Out))
}

func TestRegisterMachineNAK(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()
	step(t, m, lsFinal)

	tr := step(t, m, ":srv CAP * NAK :draft/account-registration")
	require.True(t, tr.Terminal())
	assert.Equal(t, CapabilityUnavailable, tr.Result.Kind)
}

func TestRegisterMachineAckWithoutRequest(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()

	// An ACK before the capability was advertised must not start registration
	tr := step(t, m, ackLine)
	assert.Empty(t, tr.Out)
	assert.Equal(t, StateNegotiatingCap, m.State())
}

func TestRegisterMachineAckForOtherCap(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()
	step(t, m, lsFinal)

	tr := step(t, m, ":srv CAP * ACK :sasl")
	require.True(t, tr.Terminal())
	assert.Equal(t, CapabilityUnavailable, tr.Result.Kind)
}

func TestWrongWebircPassword(t *testing.T) {
	machines := map[string]Machine{
		"register": NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2"),
		"verify":   NewVerifyMachine(testSession, "DeadOcean", "code123"),
		"probe":    newProbeMachine(testSession),
	}

	for name, m := range machines {
		t.Run(name, func(t *testing.T) {
			m.Start()
			tr := step(t, m, "ERROR :Closing link: (ident@host) [Bad password? incorrect password]")
			require.True(t, tr.Terminal())
			assert.Equal(t, WrongWebircPassword, tr.Result.Kind)
			assert.Empty(t, tr.Out, "no QUIT after the daemon closed the link")
			assert.Equal(t, StateFailed, m.State())
		})
	}
}

func TestEOFAfterError(t *testing.T) {
	m := NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
	m.Start()

	tr := step(t, m, "ERROR :Closing link: throttled")
	assert.False(t, tr.Terminal())

	res := m.EOF()
	assert.Equal(t, Disconnected, res.Kind)
	assert.Equal(t, "Disconnected from IRC server: Closing link: throttled", res.Message)
	assert.Equal(t, StateFailed, m.State())
}

func TestEOFWithoutError(t *testing.T) {
	m := NewVerifyMachine(testSession, "DeadOcean", "code123")
	m.Start()

	res := m.EOF()
	assert.Equal(t, Disconnected, res.Kind)
	assert.Equal(t, "Disconnected from IRC server.", res.Message)
}

// pingSequences drives each machine through every non-terminal state,
// checking that a PING at that point is answered with exactly one PONG
func TestPingAnsweredInEveryState(t *testing.T) {
	sequences := map[string]struct {
		machine func() Machine
		lines   []string
	}{
		"register": {
			machine: func() Machine {
				return NewRegisterMachine(testSession, "DeadOcean", "dead@ocean.example", "hunter2")
			},
			lines: []string{lsContinued, lsFinal, ackLine},
		},
		"verify": {
			machine: func() Machine { return NewVerifyMachine(testSession, "DeadOcean", "code123") },
			lines:   []string{lsFinal},
		},
		"probe": {
			machine: func() Machine { return newProbeMachine(testSession) },
			lines:   []string{lsContinued},
		},
	}

	for name, seq := range sequences {
		t.Run(name, func(t *testing.T) {
			// A PING before Start
			m := seq.machine()
			tr := step(t, m, "PING abc")
			assert.Equal(t, []string{"PONG abc"}, lines(tr.Out))

			m = seq.machine()
			m.Start()
			for i := 0; i <= len(seq.lines); i++ {
				before := m.State()

				tr := step(t, m, "PING abc")
				assert.Equal(t, []string{"PONG abc"}, lines(tr.Out), "state %s", before)
				assert.False(t, tr.Terminal())
				assert.Equal(t, before, m.State(), "PING must not change state")

				if i < len(seq.lines) {
					step(t, m, seq.lines[i])
				}
			}
		})
	}
}

func TestPingKeepsTrailing(t *testing.T) {
	m := NewVerifyMachine(testSession, "DeadOcean", "code123")
	m.Start()

	tr := step(t, m, "PING :irc.example.com token")
	assert.Equal(t, []string{"PONG :irc.example.com token"}, lines(tr.Out))
}

func TestVerifyMachine(t *testing.T) {
	m := NewVerifyMachine(testSession, "DeadOcean", "code123")
	assert.Equal(t, []string{
		"WEBIRC gatewaypass * 203.0.113.7 203.0.113.7 secure",
		"CAP LS 302",
		"NICK DeadOcean",
		"USER DeadOcean * * DeadOcean",
		"VERIFY DeadOcean code123",
	}, lines(m.Start()))
	assert.Equal(t, StateAwaitingVerifyResult, m.State())

	// Capability listings are ignored
	assert.Empty(t, step(t, m, lsFinal).Out)

	tr := step(t, m, "VERIFY DeadOcean SUCCESS")
	require.True(t, tr.Terminal())
	assert.Equal(t, Success, tr.Result.Kind)
	assert.Equal(t, verifiedMessage, tr.Result.Message)
	assert.Equal(t, []string{"QUIT"}, lines(tr.Out))
}

func TestVerifyMachineSuccessMessage(t *testing.T) {
	m := NewVerifyMachine(testSession, "DeadOcean", "code123")
	m.Start()

	tr := step(t, m, ":srv VERIFY SUCCESS DeadOcean :Account verification successful")
	require.True(t, tr.Terminal())
	assert.Equal(t, "Account verification successful", tr.Result.Message)
}

func TestVerifyMachineFail(t *testing.T) {
	m := NewVerifyMachine(testSession, "DeadOcean", "code123")
	m.Start()

	assert.False(t, step(t, m, ":srv VERIFY PENDING DeadOcean").Terminal())

	tr := step(t, m, ":srv FAIL VERIFY INVALID_CODE DeadOcean :Invalid verification code")
	require.True(t, tr.Terminal())
	assert.Equal(t, Result{Kind: VerificationError, Code: CodeInvalidCode, Message: "Invalid verification code"}, *tr.Result)
	assert.Equal(t, []string{"QUIT"}, lines(tr.Out))
}

func TestProbeMachine(t *testing.T) {
	m := newProbeMachine(testSession)
	m.Start()

	assert.False(t, step(t, m, lsContinued).Terminal())
	tr := step(t, m, lsFinal)
	require.True(t, tr.Terminal())
	assert.Equal(t, Success, tr.Result.Kind)
	assert.Equal(t, "draft/account-registration=before-connect", tr.Result.Message)
	assert.Equal(t, []string{"QUIT"}, lines(tr.Out))
	assert.Equal(t, []string{"away-notify", "draft/account-registration", "echo-message", "sasl"}, m.Caps().Names())
}

func TestProbeMachineUnavailable(t *testing.T) {
	m := newProbeMachine(testSession)
	m.Start()

	tr := step(t, m, ":srv CAP * LS :sasl")
	require.True(t, tr.Terminal())
	assert.Equal(t, CapabilityUnavailable, tr.Result.Kind)
}

func TestWebircMessage(t *testing.T) {
	msg := webircMessage(Session{WebIRCPassword: "pw", RemoteIP: "::1", Gateway: "suprachat"})
	assert.Equal(t, "WEBIRC pw suprachat 0::1 0::1 secure", msg.String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting_register_result", StateAwaitingRegisterResult.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateInit.Terminal())
}

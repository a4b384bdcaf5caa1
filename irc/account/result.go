package account

import "fmt"

// Kind classifies the outcome of a handshake
type Kind int

const (
	Success Kind = iota
	ConnectFailed
	WrongWebircPassword
	CapabilityUnavailable
	RegistrationError
	VerificationError
	Disconnected
	Timeout
	InvalidInput
)

var kindNames = map[Kind]string{
	Success:               "success",
	ConnectFailed:         "connect_failed",
	WrongWebircPassword:   "wrong_webirc_password",
	CapabilityUnavailable: "capability_unavailable",
	RegistrationError:     "registration_error",
	VerificationError:     "verification_error",
	Disconnected:          "disconnected",
	Timeout:               "timeout",
	InvalidInput:          "invalid_input",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether repeating the whole handshake may succeed
func (k Kind) Retryable() bool {
	switch k {
	case ConnectFailed, Disconnected, Timeout:
		return true
	}
	return false
}

// Fatal reports whether the failure points at gateway misconfiguration
// rather than at the end user's input
func (k Kind) Fatal() bool {
	return k == WrongWebircPassword
}

// Result is the single outcome of Register, Verify or Probe
type Result struct {
	Kind    Kind
	Code    string // FAIL code sent by the daemon, if any
	Message string
}

// OK reports whether the handshake succeeded
func (r Result) OK() bool {
	return r.Kind == Success
}

// Err returns nil for a successful result and a *Failure otherwise
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Failure{Kind: r.Kind, Code: r.Code, Message: r.Message}
}

func (r Result) String() string {
	if r.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", r.Kind, r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// Failure is the error form of an unsuccessful Result
type Failure struct {
	Kind    Kind
	Code    string
	Message string
}

func (f *Failure) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("account: %s (%s): %s", f.Kind, f.Code, f.Message)
	}
	return fmt.Sprintf("account: %s: %s", f.Kind, f.Message)
}

func succeeded(message string) Result {
	return Result{Kind: Success, Message: message}
}

func failed(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

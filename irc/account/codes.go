package account

// FAIL codes the daemon may return for REGISTER
const (
	CodeInvalidUsername   = "INVALID_USERNAME"
	CodeDisallowed        = "DISALLOWED"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeUsernameExists    = "USERNAME_EXISTS"
	CodeInvalidPassword   = "INVALID_PASSWORD"
	CodeUnacceptableEmail = "UNACCEPTABLE_EMAIL"
	CodeUnknownError      = "UNKNOWN_ERROR"
	CodeInvalidCode       = "INVALID_CODE"
)

type codeSet map[string]struct{}

func (s codeSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

var registerErrorCodes = codeSet{
	CodeInvalidUsername:   {},
	CodeDisallowed:        {},
	CodeAlreadyRegistered: {},
	CodeInvalidEmail:      {},
	CodeUsernameExists:    {},
	CodeInvalidPassword:   {},
	CodeUnacceptableEmail: {},
	CodeUnknownError:      {},
}

var verifyErrorCodes = codeSet{
	CodeDisallowed:        {},
	CodeAlreadyRegistered: {},
	CodeInvalidCode:       {},
	CodeUnknownError:      {},
}

// IsRegisterErrorCode reports whether code is a known REGISTER failure
func IsRegisterErrorCode(code string) bool {
	return registerErrorCodes.Contains(code)
}

// IsVerifyErrorCode reports whether code is a known VERIFY failure
func IsVerifyErrorCode(code string) bool {
	return verifyErrorCodes.Contains(code)
}

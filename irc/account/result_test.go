package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/presbrey/suprachat/irc/account"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "wrong_webirc_password", account.WrongWebircPassword.String())
	assert.Equal(t, "kind(99)", account.Kind(99).String())

	assert.True(t, account.Disconnected.Retryable())
	assert.False(t, account.VerificationError.Retryable())
	assert.True(t, account.WrongWebircPassword.Fatal())
	assert.False(t, account.Timeout.Fatal())
}

func TestResult(t *testing.T) {
	ok := account.Result{Kind: account.Success, Message: "done"}
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())
	assert.Equal(t, "success: done", ok.String())

	fail := account.Result{Kind: account.RegistrationError, Code: "INVALID_EMAIL", Message: "bad email"}
	assert.False(t, fail.OK())
	assert.EqualError(t, fail.Err(), "account: registration_error (INVALID_EMAIL): bad email")
	assert.Equal(t, "registration_error [INVALID_EMAIL]: bad email", fail.String())

	assert.EqualError(t, account.Result{Kind: account.Timeout, Message: "slow"}.Err(), "account: timeout: slow")
}

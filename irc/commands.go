package irc

import "github.com/lrstanley/girc"

// Commands and numerics used by the account handshake. Standard names come
// from girc so the spelling matches every other client built on it.
const (
	CAP         = girc.CAP
	CapLS       = girc.CAP_LS
	CapREQ      = girc.CAP_REQ
	CapACK      = girc.CAP_ACK
	CapNAK      = girc.CAP_NAK
	CapEND      = girc.CAP_END
	ERROR       = girc.ERROR
	NICK        = girc.NICK
	USER        = girc.USER
	PING        = girc.PING
	PONG        = girc.PONG
	QUIT        = girc.QUIT
	RplWelcome  = girc.RPL_WELCOME
	CapVersion  = "302"
	WEBIRC      = "WEBIRC"
	REGISTER    = "REGISTER"
	VERIFY      = "VERIFY"
	FAIL        = "FAIL"
	WebIRCFlags = "secure"
)

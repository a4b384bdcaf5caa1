package ircdtest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/presbrey/suprachat/irc"
)

// registerDefaultHooks registers the default command handlers
func (s *Server) registerDefaultHooks() {
	s.RegisterHook(irc.WEBIRC, handleWebIRC)
	s.RegisterHook(irc.CAP, handleCAP)
	s.RegisterHook(irc.NICK, handleNick)
	s.RegisterHook(irc.USER, handleUser)
	s.RegisterHook(irc.REGISTER, handleRegister)
	s.RegisterHook(irc.VERIFY, handleVerify)
	s.RegisterHook(irc.PING, handlePing)
	s.RegisterHook(irc.QUIT, handleQuit)
}

func handleWebIRC(params *HookParams) error {
	client := params.Client
	msg := params.Message

	want := params.Server.config.WebIRCPassword
	if want != "" && msg.Param(0) != want {
		client.Quit(fmt.Sprintf("Closing link: (%s@%s) [Bad password? incorrect password]", "ident", client.IP))
		return ErrQuit
	}

	client.WebIRC = true
	if ip := msg.Param(2); ip != "" {
		client.IP = ip
	}
	return nil
}

// handleCAP handles CAP LS, REQ and END
func handleCAP(params *HookParams) error {
	client := params.Client
	msg := params.Message

	switch strings.ToUpper(msg.Param(0)) {
	case irc.CapLS:
		client.Negotiating = true
		client.Ping()
		sendCapLS(client, params.Server.config)

	case irc.CapREQ:
		client.Ping()
		handleCapREQ(client, params.Server.config, msg.Trailing())

	case irc.CapEND:
		client.Negotiating = false
		client.CapEnded = true
		if params.Server.config.CloseOnCapEnd {
			client.Hangup()
			return ErrQuit
		}
		tryCompleteRegistration(client)
	}
	return nil
}

func sendCapLS(client *Client, cfg Config) {
	perLine := cfg.CapsPerLine
	if perLine <= 0 {
		perLine = len(cfg.Caps)
	}

	caps := cfg.Caps
	for len(caps) > perLine {
		client.SendMessage(irc.CAP, client.Target(), irc.CapLS, "*", strings.Join(caps[:perLine], " "))
		caps = caps[perLine:]
	}
	client.SendMessage(irc.CAP, client.Target(), irc.CapLS, strings.Join(caps, " "))
}

func handleCapREQ(client *Client, cfg Config, list string) {
	offered := irc.ParseCapList(strings.Join(cfg.Caps, " "))
	requested := strings.Fields(list)

	for _, name := range requested {
		if !offered.Has(strings.TrimPrefix(name, "-")) {
			client.SendMessage(irc.CAP, client.Target(), irc.CapNAK, list)
			return
		}
	}

	for _, name := range requested {
		if strings.HasPrefix(name, "-") {
			delete(client.Caps, name[1:])
		} else {
			client.Caps[name] = struct{}{}
		}
	}
	client.SendMessage(irc.CAP, client.Target(), irc.CapACK, list)
}

func handleNick(params *HookParams) error {
	params.Client.Nickname = params.Message.Param(0)
	tryCompleteRegistration(params.Client)
	return nil
}

func handleUser(params *HookParams) error {
	params.Client.Username = params.Message.Param(0)
	tryCompleteRegistration(params.Client)
	return nil
}

// tryCompleteRegistration welcomes the client once NICK and USER are known
// and capability negotiation, if started, has ended
func tryCompleteRegistration(client *Client) {
	if client.Registered || client.Nickname == "" || client.Username == "" || client.Negotiating {
		return
	}
	client.Registered = true
	cfg := client.Server.config
	client.SendMessage(irc.RplWelcome, client.Nickname,
		fmt.Sprintf("Welcome to the %s IRC Network %s", cfg.Network, client.Nickname))
}

// handleRegister handles REGISTER <account> <email> <password>
func handleRegister(params *HookParams) error {
	client := params.Client
	msg := params.Message
	client.Ping()

	nick := msg.Param(0)
	if nick == "*" {
		nick = client.Nickname
	}
	email, password := msg.Param(1), msg.Param(2)

	if _, ok := client.Caps[irc.AccountRegistration]; !ok {
		client.SendMessage(irc.FAIL, irc.REGISTER, "DISALLOWED", client.Target(), "Account registration is not enabled")
		return nil
	}
	if nick == "" {
		client.SendMessage(irc.FAIL, irc.REGISTER, "INVALID_USERNAME", client.Target(), "Send NICK before REGISTER")
		return nil
	}
	if !strings.Contains(email, "@") {
		client.SendMessage(irc.FAIL, irc.REGISTER, "INVALID_EMAIL", nick, "Invalid email address")
		return nil
	}
	if password == "" {
		client.SendMessage(irc.FAIL, irc.REGISTER, "INVALID_PASSWORD", nick, "Invalid password")
		return nil
	}

	created := false
	client.Server.updateAccount(nick, func(acct *Account, exists bool) *Account {
		if exists {
			return nil
		}
		created = true
		return &Account{
			Nick:     nick,
			Email:    email,
			Password: password,
			Code:     strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		}
	})
	if !created {
		client.SendMessage(irc.FAIL, irc.REGISTER, "USERNAME_EXISTS", nick, "Username is already registered")
		return nil
	}

	client.SendMessage(irc.REGISTER, "VERIFICATION_REQUIRED", nick,
		fmt.Sprintf("Account created, pending verification; verification code has been sent to %s", email))
	return nil
}

// handleVerify handles VERIFY <account> <code>
func handleVerify(params *HookParams) error {
	client := params.Client
	nick, code := params.Message.Param(0), params.Message.Param(1)
	client.Ping()

	acct, ok := client.Server.Account(nick)
	switch {
	case !ok:
		client.SendMessage(irc.FAIL, irc.VERIFY, "INVALID_CODE", nick, "Invalid verification code")
	case acct.Verified:
		client.SendMessage(irc.FAIL, irc.VERIFY, "ALREADY_REGISTERED", nick, "Account is already verified")
	case acct.Code != code:
		client.SendMessage(irc.FAIL, irc.VERIFY, "INVALID_CODE", nick, "Invalid verification code")
	default:
		client.Server.updateAccount(nick, func(a *Account, exists bool) *Account {
			a.Verified = true
			return a
		})
		client.SendMessage(irc.VERIFY, "SUCCESS", nick, "Account verification successful")
	}
	return nil
}

func handlePing(params *HookParams) error {
	params.Client.SendMessage(irc.PONG, params.Message.Params...)
	return nil
}

func handleQuit(params *HookParams) error {
	params.Client.Quit("Quit: " + params.Message.Trailing())
	return ErrQuit
}

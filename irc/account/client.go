package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/presbrey/suprachat/irc"
)

// Endpoint used when Connect is given an empty host or a zero port
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6667
)

// Client registers or verifies one account over one connection. A Client is
// single use: the connection is closed when the first handshake ends.
type Client struct {
	session Session
	dial    irc.DialOptions
	logger  *slog.Logger

	conn *irc.Conn
	err  error
}

// Option configures a Client
type Option func(*Client)

// WithDialOptions overrides connect and read timeouts, TLS and read size
func WithDialOptions(opts irc.DialOptions) Option {
	return func(c *Client) {
		c.dial = opts
	}
}

// WithLogger sets the logger used for handshake tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client acting for the end user described by session
func NewClient(session Session, opts ...Option) *Client {
	c := &Client{
		session: session,
		dial:    irc.DefaultDialOptions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the connection to the daemon. It returns false when the
// daemon cannot be reached; Err then holds the cause.
func (c *Client) Connect(ctx context.Context, host string, port int) bool {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := irc.Dial(ctx, addr, c.dial)
	if err != nil {
		c.err = err
		ConnectFailures.Inc()
		c.logger.Warn("Error connecting to IRC server", "addr", addr, "error", err)
		return false
	}

	c.conn = conn
	c.err = nil
	return true
}

// Err returns the error of the last failed Connect
func (c *Client) Err() error {
	return c.err
}

// Close releases the connection if a handshake never ran
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Register creates the account nick with the given email and password using
// draft/account-registration
func (c *Client) Register(ctx context.Context, nick, email, password string) Result {
	if res := check(c.session, registerInput{Nick: nick, Email: email, Password: password}); res != nil {
		return c.reject("register", *res)
	}
	return c.run(ctx, "register", NewRegisterMachine(c.session, nick, email, password))
}

// Verify confirms a registered account with the code the daemon emailed
func (c *Client) Verify(ctx context.Context, nick, code string) Result {
	if res := check(c.session, verifyInput{Nick: nick, Code: code}); res != nil {
		return c.reject("verify", *res)
	}
	return c.run(ctx, "verify", NewVerifyMachine(c.session, nick, code))
}

// Probe lists the daemon's capabilities and succeeds when account
// registration is offered
func (c *Client) Probe(ctx context.Context) (irc.CapSet, Result) {
	if res := check(c.session); res != nil {
		return nil, c.reject("probe", *res)
	}
	m := newProbeMachine(c.session)
	res := c.run(ctx, "probe", m)
	return m.Caps(), res
}

func (c *Client) reject(operation string, res Result) Result {
	c.Close()
	observe(operation, res, 0)
	c.logger.Info("handshake rejected", "operation", operation, "message", res.Message)
	return res
}

// run drives m over the connection until it produces a result. The
// connection is closed on every return path.
func (c *Client) run(ctx context.Context, operation string, m Machine) (res Result) {
	start := time.Now()
	log := c.logger.With("operation", operation, "session", uuid.NewString())

	defer func() {
		observe(operation, res, time.Since(start).Seconds())
		log.Info("handshake finished",
			"result", res.Kind.String(),
			"code", res.Code,
			"message", res.Message,
			"state", m.State().String(),
		)
	}()

	if c.conn == nil || c.conn.Closed() {
		return failed(ConnectFailed, "Not connected to IRC server.")
	}
	conn := c.conn
	defer conn.Close()

	if err := c.send(log, conn, m.Start()); err != nil {
		return c.ioFailure(m, err)
	}

	for {
		msgs, readErr := conn.ReadMessages(ctx)
		for _, msg := range msgs {
			log.Debug("<", "line", msg.String())

			t := m.Step(msg)
			err := c.send(log, conn, t.Out)
			if t.Result != nil {
				if err != nil {
					log.Debug("final frames not delivered", "error", err)
				}
				return *t.Result
			}
			if err != nil {
				return c.ioFailure(m, err)
			}
		}
		if readErr != nil {
			return c.ioFailure(m, readErr)
		}
	}
}

func (c *Client) send(log *slog.Logger, conn *irc.Conn, msgs []*irc.Message) error {
	for _, msg := range msgs {
		log.Debug(">", "line", redact(msg))
		if err := conn.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// ioFailure maps a transport error to a result
func (c *Client) ioFailure(m Machine, err error) Result {
	switch {
	case errors.Is(err, io.EOF):
		return m.EOF()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return failed(Timeout, "Timed out waiting for IRC server.")
	case errors.Is(err, context.Canceled):
		return failed(Timeout, "Handshake canceled.")
	default:
		return failed(Disconnected, "Disconnected from IRC server: "+err.Error())
	}
}

// redact hides secrets in outgoing lines before they are logged
func redact(msg *irc.Message) string {
	secret := -1
	switch msg.Command {
	case irc.WEBIRC:
		secret = 0
	case irc.REGISTER:
		secret = 2
	case irc.VERIFY:
		secret = 1
	}
	if secret < 0 || secret >= len(msg.Params) {
		return msg.String()
	}

	params := append([]string(nil), msg.Params...)
	params[secret] = "***"
	return irc.NewMessage(msg.Command, params...).String()
}

// Run connects a fresh client to host:port and hands it to fn. A failed
// connect yields a ConnectFailed result without calling fn.
func Run(ctx context.Context, host string, port int, session Session, fn func(ctx context.Context, c *Client) Result, opts ...Option) Result {
	c := NewClient(session, opts...)
	if !c.Connect(ctx, host, port) {
		res := failed(ConnectFailed, "Error connecting to IRC server.")
		if c.Err() != nil {
			res.Message = "Error connecting to IRC server: " + c.Err().Error()
		}
		return res
	}
	defer c.Close()
	return fn(ctx, c)
}

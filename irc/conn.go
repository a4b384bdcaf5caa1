package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by operations on a connection that was closed locally
var ErrClosed = errors.New("irc: connection closed")

// DialOptions configures an outgoing connection to an IRC daemon
type DialOptions struct {
	Timeout     time.Duration // TCP (and TLS) connect timeout
	ReadTimeout time.Duration // Upper bound for a single Receive, 0 disables
	ReadSize    int           // Bytes requested per read

	TLS       bool
	TLSConfig *tls.Config
}

// DefaultDialOptions returns the options used when none are given
func DefaultDialOptions() DialOptions {
	return DialOptions{
		Timeout:     10 * time.Second,
		ReadTimeout: 15 * time.Second,
		ReadSize:    1024,
	}
}

// Conn is a single line-oriented session with an IRC daemon. It is not safe
// for concurrent use; one handshake owns one Conn.
type Conn struct {
	conn        net.Conn
	dec         Decoder
	readTimeout time.Duration
	readSize    int

	closed    atomic.Bool
	closeOnce sync.Once
}

// Dial connects to addr ("host:port")
func Dial(ctx context.Context, addr string, opts DialOptions) (*Conn, error) {
	dialer := &net.Dialer{Timeout: opts.Timeout}

	var nc net.Conn
	var err error
	if opts.TLS {
		cfg := opts.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.MinVersion == 0 {
			cfg.MinVersion = tls.VersionTLS12
		}
		td := &tls.Dialer{NetDialer: dialer, Config: cfg}
		nc, err = td.DialContext(ctx, "tcp", addr)
	} else {
		nc, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("irc: dial %s: %w", addr, err)
	}

	return NewConn(nc, opts), nil
}

// NewConn wraps an established net.Conn
func NewConn(nc net.Conn, opts DialOptions) *Conn {
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultDialOptions().ReadSize
	}
	return &Conn{
		conn:        nc,
		readTimeout: opts.ReadTimeout,
		readSize:    opts.ReadSize,
	}
}

// Write writes all of b, looping over short writes
func (c *Conn) Write(b []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	written := 0
	for written < len(b) {
		n, err := c.conn.Write(b[written:])
		written += n
		if err != nil {
			return written, fmt.Errorf("irc: write: %w", err)
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Send serializes and writes a message
func (c *Conn) Send(msg *Message) error {
	_, err := c.Write(msg.Bytes())
	return err
}

// Receive performs one read of at most max bytes. It returns io.EOF when the
// peer has closed the connection. The read is bounded by the connection read
// timeout and by ctx; when ctx ends first its error is returned.
func (c *Conn) Receive(ctx context.Context, max int) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	var deadline time.Time
	if c.readTimeout > 0 {
		deadline = time.Now().Add(c.readTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("irc: set read deadline: %w", err)
	}

	// Unblock the read as soon as the caller gives up
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, max)
	n, err := c.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("irc: read: %w", err)
}

// ReadMessages blocks until at least one complete message has been framed,
// the peer closes (io.EOF) or the read fails.
func (c *Conn) ReadMessages(ctx context.Context) ([]*Message, error) {
	for {
		data, err := c.Receive(ctx, c.readSize)
		if err != nil {
			return nil, err
		}

		msgs, err := c.dec.Push(data)
		if err != nil {
			return msgs, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}
	}
}

// Close closes the connection. Calling it more than once, or after the peer
// has gone away, is a no-op.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}

// Closed reports whether Close has been called
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// RemoteAddr returns the daemon's address
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

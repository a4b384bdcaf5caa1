package ircdtest

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presbrey/suprachat/irc"
)

// Client represents one connection to the test daemon
type Client struct {
	ID       string
	Server   *Server
	Conn     net.Conn
	Nickname string
	Username string
	IP       string

	WebIRC      bool
	Negotiating bool
	CapEnded    bool
	Registered  bool
	Caps        map[string]struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewClient creates a new client
func NewClient(server *Server, conn net.Conn) *Client {
	ip, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	return &Client{
		ID:     uuid.New().String(),
		Server: server,
		Conn:   conn,
		IP:     ip,
		Caps:   make(map[string]struct{}),
	}
}

// Handle reads lines until the connection ends or a hook asks to quit
func (c *Client) Handle() {
	defer c.cleanup()

	reader := bufio.NewReader(c.Conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		c.Server.record(line)

		if c.Server.config.Silent {
			continue
		}

		msg := irc.ParseMessage(line)
		if msg == nil {
			continue
		}

		params := &HookParams{
			Server:  c.Server,
			Client:  c,
			Message: msg,
		}
		if err := c.Server.RunHooks(msg.Command, params); err != nil {
			return
		}
	}
}

// SendRaw sends a raw line, adding CRLF. With ChunkSize set the line is
// written in pieces so the peer sees fragmented reads.
func (c *Client) SendRaw(line string) {
	if !strings.HasSuffix(line, "\r\n") {
		line += "\r\n"
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	size := c.Server.config.ChunkSize
	if size <= 0 {
		c.Conn.Write([]byte(line))
		return
	}
	for len(line) > 0 {
		n := size
		if n > len(line) {
			n = len(line)
		}
		if _, err := c.Conn.Write([]byte(line[:n])); err != nil {
			return
		}
		line = line[n:]
		time.Sleep(time.Millisecond)
	}
}

// SendMessage sends a message prefixed with the server name
func (c *Client) SendMessage(command string, params ...string) {
	msg := &irc.Message{
		Prefix:  c.Server.config.Name,
		Command: command,
		Params:  params,
	}
	c.SendRaw(msg.String())
}

// Target is the nick used in replies, "*" before NICK
func (c *Client) Target() string {
	if c.Nickname == "" {
		return "*"
	}
	return c.Nickname
}

// Ping sends the configured PING token, if any
func (c *Client) Ping() {
	if token := c.Server.config.PingToken; token != "" {
		c.SendMessage(irc.PING, token)
	}
}

// Quit sends ERROR with the reason and hangs up
func (c *Client) Quit(reason string) {
	c.SendRaw("ERROR :" + reason)
	c.Hangup()
}

// Hangup half-closes the connection and discards input until the peer
// closes too, so unread input never turns the close into a reset.
func (c *Client) Hangup() {
	if tc, ok := c.Conn.(*net.TCPConn); ok {
		tc.CloseWrite()
		tc.SetReadDeadline(time.Now().Add(time.Second))
		io.Copy(io.Discard, tc)
	}
	c.Close()
}

// Close closes the connection once
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.Conn.Close()
	})
}

func (c *Client) cleanup() {
	c.Server.clients.Delete(c.ID)
	c.Close()
}

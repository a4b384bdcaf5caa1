// Package ircdtest runs a small in-process IRC daemon that speaks WEBIRC, CAP
// negotiation and draft/account-registration, for exercising account
// clients over real TCP in tests.
package ircdtest

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/presbrey/suprachat/irc"
)

// Config controls how the daemon behaves
type Config struct {
	Name           string   // server name used as message prefix
	Network        string   // network name in the welcome numeric
	WebIRCPassword string   // required WEBIRC password, any is accepted when empty
	Caps           []string // advertised capabilities, "name" or "name=value"
	CapsPerLine    int      // split CAP LS into continuation lines of this many caps
	PingToken      string   // when set, PING the client before each reply stage
	ChunkSize      int      // when > 0, write replies in chunks of this many bytes
	Silent         bool     // record input but never answer
	CloseOnCapEnd  bool     // drop the connection instead of welcoming after CAP END
}

// DefaultConfig advertises account registration among a few common caps
func DefaultConfig() Config {
	return Config{
		Name:    "ircd.test",
		Network: "TestNet",
		Caps: []string{
			"away-notify",
			"draft/account-registration=before-connect,email-required",
			"echo-message",
			"sasl=PLAIN",
		},
	}
}

// Account is a registration held by the daemon
type Account struct {
	Nick     string
	Email    string
	Password string
	Code     string
	Verified bool
}

// Hook handles one command for one client. Returning ErrQuit (or any error)
// ends the client's connection.
type Hook func(params *HookParams) error

// HookParams contains context information for hooks
type HookParams struct {
	Server  *Server
	Client  *Client
	Message *irc.Message
}

// ErrQuit tells the read loop to close the connection
var ErrQuit = errors.New("ircdtest: client quit")

// Server is the test daemon
type Server struct {
	config   Config
	listener net.Listener
	hooks    map[string][]Hook
	clients  sync.Map // map[string]*Client
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.Mutex
	received []string
	accounts map[string]*Account
}

// NewServer creates a daemon; call Start to listen
func NewServer(cfg Config) *Server {
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	if cfg.Network == "" {
		cfg.Network = DefaultConfig().Network
	}

	s := &Server{
		config:   cfg,
		hooks:    make(map[string][]Hook),
		quit:     make(chan struct{}),
		accounts: make(map[string]*Account),
	}
	s.registerDefaultHooks()
	return s
}

// Start listens on a random loopback port and accepts connections
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptConnections()
	return nil
}

// Stop closes the listener and every client connection. Only the first
// call has any effect.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			err = s.listener.Close()
		}

		s.clients.Range(func(key, value interface{}) bool {
			value.(*Client).Close()
			return true
		})

		s.wg.Wait()
	})
	return err
}

// Addr returns host:port of the listener
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Host returns the listener host
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

// Port returns the listener port
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	p, _ := strconv.Atoi(port)
	return p
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				continue
			}
		}

		client := NewClient(s, conn)
		s.clients.Store(client.ID, client)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			client.Handle()
		}()
	}
}

// RegisterHook appends a hook for a command
func (s *Server) RegisterHook(command string, hook Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[command] = append(s.hooks[command], hook)
}

// SetHook replaces every hook for a command
func (s *Server) SetHook(command string, hook Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[command] = []Hook{hook}
}

// RunHooks runs all hooks for a command
func (s *Server) RunHooks(command string, params *HookParams) error {
	s.mu.Lock()
	hooks := s.hooks[command]
	s.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(params); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) record(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, line)
}

// Received returns every line received from clients, in arrival order
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Commands returns the command of every received line, in arrival order
func (s *Server) Commands() []string {
	lines := s.Received()
	commands := make([]string, 0, len(lines))
	for _, line := range lines {
		if msg := irc.ParseMessage(line); msg != nil {
			commands = append(commands, msg.Command)
		}
	}
	return commands
}

// AddAccount stores an account as if it had been registered earlier
func (s *Server) AddAccount(acct Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := acct
	s.accounts[acct.Nick] = &a
}

// Account returns a copy of a stored account
func (s *Server) Account(nick string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[nick]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

func (s *Server) updateAccount(nick string, fn func(acct *Account, exists bool) *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[nick]
	if next := fn(acct, ok); next != nil {
		s.accounts[nick] = next
	}
}

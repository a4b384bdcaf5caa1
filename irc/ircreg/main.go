package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/presbrey/suprachat/irc"
	"github.com/presbrey/suprachat/irc/account"
	"github.com/presbrey/suprachat/irc/config"
	"github.com/presbrey/suprachat/irc/logger"
)

// Exit statuses
const (
	exitFailure       = 1
	exitMisconfigured = 2
)

type options struct {
	configPath     string
	host           string
	port           int
	webircPassword string
	remoteIP       string
	timeout        time.Duration
	retries        int
	metricsFile    string
	logLevel       string
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}

	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ircreg",
		Short:         "Register and verify IRC accounts through WEBIRC",
		Long:          `Registers and verifies accounts on an IRC daemon that offers the draft/account-registration capability, acting as a WEBIRC gateway for the end user's address.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file or URL (yaml, toml or json)")
	flags.StringVar(&opts.host, "host", "", "IRC daemon host (overrides config)")
	flags.IntVar(&opts.port, "port", 0, "IRC daemon port (overrides config)")
	flags.StringVar(&opts.webircPassword, "webirc-password", "", "WEBIRC password (overrides config)")
	flags.StringVar(&opts.remoteIP, "remote-ip", "127.0.0.1", "end user address sent in WEBIRC")
	flags.DurationVar(&opts.timeout, "timeout", 0, "overall handshake timeout (overrides config)")
	flags.IntVar(&opts.retries, "retries", 0, "attempts for retryable failures (overrides config)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	flags.StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (overrides config)")

	registerCmd := &cobra.Command{
		Use:   "register <nick> <email> <password>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			nick, email, password := args[0], args[1], args[2]
			return execute(cmd.Context(), opts, "register", func(ctx context.Context, c *account.Client) account.Result {
				return c.Register(ctx, nick, email, password)
			})
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <nick> <code>",
		Short: "Verify a registered account with the emailed code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nick, code := args[0], args[1]
			return execute(cmd.Context(), opts, "verify", func(ctx context.Context, c *account.Client) account.Result {
				return c.Verify(ctx, nick, code)
			})
		},
	}

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the daemon offers account registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), opts, "probe", func(ctx context.Context, c *account.Client) account.Result {
				caps, res := c.Probe(ctx)
				if caps != nil {
					fmt.Printf("capabilities: %s\n", caps)
				}
				return res
			})
		},
	}

	rootCmd.AddCommand(registerCmd, verifyCmd, probeCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitFailure)
	}
}

// loadConfig reads the config source and applies command line overrides
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.host != "" {
		cfg.IRCd.Host = opts.host
	}
	if opts.port != 0 {
		cfg.IRCd.Port = opts.port
	}
	if opts.webircPassword != "" {
		cfg.WebIRC.Password = opts.webircPassword
	}
	if opts.timeout != 0 {
		cfg.Timeouts.Handshake = config.Duration(opts.timeout)
	}
	if opts.retries != 0 {
		cfg.Retry.Attempts = opts.retries
	}
	if opts.metricsFile != "" {
		cfg.Metrics.Textfile = opts.metricsFile
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	return cfg, cfg.Validate()
}

func execute(ctx context.Context, opts *options, operation string, fn func(ctx context.Context, c *account.Client) account.Result) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return &exitError{code: exitMisconfigured, err: fmt.Errorf("invalid configuration: %w", err)}
	}

	log, closer := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer closer.Close()

	if cfg.Timeouts.Handshake > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeouts.Handshake.Std())
		defer cancel()
	}

	session := account.Session{
		WebIRCPassword: cfg.WebIRC.Password,
		RemoteIP:       opts.remoteIP,
		Gateway:        cfg.WebIRC.Gateway,
	}
	clientOpts := []account.Option{
		account.WithDialOptions(dialOptions(cfg)),
		account.WithLogger(log),
	}
	policy := account.RetryPolicy{
		Attempts: cfg.Retry.Attempts,
		Strategy: account.NewBackoffStrategy(cfg.Retry.Initial.Std(), cfg.Retry.Multiplier, cfg.Retry.Max.Std(), cfg.Retry.Jitter),
	}

	res := account.Retry(ctx, policy, func(ctx context.Context) account.Result {
		return account.Run(ctx, cfg.IRCd.Host, cfg.IRCd.Port, session, fn, clientOpts...)
	})

	if cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, account.Registry); err != nil {
			log.Warn("failed to write metrics", "file", cfg.Metrics.Textfile, "error", err)
		}
	}

	return report(log, operation, res)
}

func dialOptions(cfg *config.Config) irc.DialOptions {
	opts := irc.DefaultDialOptions()
	opts.Timeout = cfg.Timeouts.Dial.Std()
	opts.ReadTimeout = cfg.Timeouts.Read.Std()
	opts.TLS = cfg.IRCd.TLS
	if cfg.IRCd.TLS {
		opts.TLSConfig = &tls.Config{
			ServerName:         cfg.IRCd.Host,
			InsecureSkipVerify: cfg.IRCd.InsecureSkipVerify,
		}
	}
	return opts
}

func report(log *slog.Logger, operation string, res account.Result) error {
	if res.OK() {
		fmt.Println(res.Message)
		return nil
	}

	if res.Kind.Fatal() {
		log.Error("IRC daemon rejected the gateway credentials", "operation", operation)
		return &exitError{code: exitMisconfigured, err: res.Err()}
	}
	return &exitError{code: exitFailure, err: res.Err()}
}

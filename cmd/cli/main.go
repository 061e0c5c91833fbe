// Command hs is a command-line client for the home-services marketplace.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/app"
	"github.com/and161185/homeservices/internal/config"
	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/logging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, cleanup := newRootCommand(os.Stdin, os.Stdout)
	err := cmd.ExecuteContext(ctx)
	if cerr := cleanup(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", errs.Message(err, err.Error()))
		stop()
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand.
type cli struct {
	in  io.Reader
	out io.Writer

	configPath string
	apiURL     string
	backend    string
	sessionDir string
	logLevel   string
	caCert     string
	insecure   bool

	app *app.App
	log *zap.Logger
}

// newRootCommand builds the command tree. cleanup closes whatever start opened
// and must run after Execute whether or not the command failed.
func newRootCommand(in io.Reader, out io.Writer) (cmd *cobra.Command, cleanup func() error) {
	c := &cli{in: in, out: out}
	cmd = &cobra.Command{
		Use:               "hs",
		Short:             "Home-services marketplace client",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.start,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	f := cmd.PersistentFlags()
	f.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	f.StringVar(&c.apiURL, "api-url", "", "backend API root, e.g. http://localhost:5000/api")
	f.StringVar(&c.backend, "session-backend", "", "session store: file, redis or memory")
	f.StringVar(&c.sessionDir, "session-dir", "", "directory of the file session store")
	f.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&c.caCert, "cacert", "", "extra CA certificate (PEM)")
	f.BoolVar(&c.insecure, "insecure", false, "skip certificate verification (dev)")

	cmd.AddCommand(
		newVersionCommand(),
		newLoginCommand(c),
		newRegisterCommand(c),
		newLogoutCommand(c),
		newWhoAmICommand(c),
		newRefreshCommand(c),
		newOpenCommand(c),
		newServicesCommand(c),
		newRequestsCommand(c),
		newNotificationsCommand(c),
		newProfessionalsCommand(c),
		newCustomersCommand(c),
		newAdminCommand(c),
	)
	return cmd, c.stop
}

// start loads configuration and builds the client. Flags override file and environment.
func (c *cli) start(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cfg, err := config.Load(cmd.Context(), c.configPath, nil)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("api-url") {
		cfg.APIBaseURL = c.apiURL
	}
	if f.Changed("session-backend") {
		cfg.Session.Backend = c.backend
	}
	if f.Changed("session-dir") {
		cfg.Session.Dir = c.sessionDir
	}
	if f.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if f.Changed("cacert") {
		cfg.CACert = c.caCert
	}
	if f.Changed("insecure") {
		cfg.Insecure = c.insecure
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.log, err = logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		return err
	}
	c.app, err = app.New(cmd.Context(), cfg, c.log)
	return err
}

func (c *cli) stop() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	_ = c.log.Sync()
	c.app = nil
	return err
}

// ---- utils ----

// readAll reads p, or stdin when p is "-".
func (c *cli) readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(p)
}

// password returns the flag value or, with --password-stdin, the first line of stdin.
func (c *cli) password(flag string, fromStdin bool) (string, error) {
	if !fromStdin {
		return flag, nil
	}
	b, err := c.readAll("-")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimRight(line, "\r"), nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hs %s (%s)\n", version, buildDate)
			return err
		},
	}
}

// hermes-urls is started by the OS when a registered link is activated. It relays the
// link to the running server for its scheme, or launches the registered command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/world-in-progress/hermes/client"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/handler"
	"github.com/world-in-progress/hermes/osreg"
	"github.com/world-in-progress/hermes/store"
	"go.uber.org/multierr"
)

const logFileName = "hermes.log"

var (
	newIntegrator = osreg.Default
	executable    = os.Executable
)

type (
	options struct {
		configFile string
		verbose    bool
		debug      bool
		console    bool
	}

	app struct {
		v       *viper.Viper
		opts    options
		handler *handler.Handler
		store   store.Store
		logFile *os.File
	}
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "hermes-urls:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{v: viper.New()}
	root := newRootCmd(a, out)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		logger.Error("%v", err)
	}
	return multierr.Append(err, a.close(ctx))
}

func newRootCmd(a *app, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "hermes-urls",
		Short:         osreg.DisplayName,
		Long:          osreg.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "use verbose logging")
	flags.BoolVar(&a.opts.debug, "debug", false, "use debug logging, even more verbose than --verbose")
	flags.BoolVar(&a.opts.console, "console", false, "log to stderr as well as the log file")
	flags.StringVar(&a.opts.configFile, "config", "", "config file (default hermes.yaml in the working or state directory)")
	flags.String("state-dir", "", "directory holding registrations and discovery records")
	flags.String("store", "", `registration store: "file" or "mongo"`)
	flags.String("log-file", "", "log file (default hermes.log next to the executable)")
	_ = a.v.BindPFlag("state_dir", flags.Lookup("state-dir"))
	_ = a.v.BindPFlag("store", flags.Lookup("store"))
	_ = a.v.BindPFlag("log.file", flags.Lookup("log-file"))

	root.AddCommand(
		newOpenCmd(a),
		newRegisterCmd(a),
		newRegisterHostnameCmd(a),
		newUnregisterCmd(a),
		newUnregisterHostnameCmd(a),
		newListCmd(a, out),
	)
	return root
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <url>",
		Short: "Dispatch the given URL to the running editor (or launch it, if needed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.handler.Open(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to open url %s: %w", args[0], err)
			}
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var withDebugging bool
	cmd := &cobra.Command{
		Use:   "register <protocol> [-- command...]",
		Short: "Register this executable as a URL protocol handler",
		Long: "Register this executable as the handler for <protocol>://. The optional command line is\n" +
			"launched when no server is running; %1 is replaced by the link.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handler.Register(cmd.Context(), args[0], args[1:], withDebugging)
		},
	}
	cmd.Flags().BoolVar(&withDebugging, "register-with-debugging", false, "enable debug logging for this registration")
	return cmd
}

func newRegisterHostnameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register-hostname <protocol> <hostname> -- <commandline...>",
		Short: "Register a specific hostname (and, if needed, this executable as a URL protocol handler)",
		Long:  "The command line handles links to <protocol>://<hostname>/; %1 is replaced by the link path.",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.handler.RegisterHostname(cmd.Context(), args[0], args[1], args[2:]); err != nil {
				return fmt.Errorf("failed to register host for %s://%s: %w", args[0], args[1], err)
			}
			return nil
		},
	}
}

func newUnregisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <protocol>",
		Short: "Remove the URL protocol handler and all of its hostnames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handler.Unregister(cmd.Context(), args[0])
		},
	}
}

func newUnregisterHostnameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister-hostname <protocol> <hostname>",
		Short: "Unregister a specific hostname",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handler.UnregisterHostname(cmd.Context(), args[0], args[1])
		},
	}
}

func newListCmd(a *app, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered protocols and hostnames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			protocols, err := a.handler.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range protocols {
				line := p.Name + "://"
				if len(p.Command) > 0 {
					line += " " + strings.Join(p.Command, " ")
				}
				if p.Debug {
					line += " (debug)"
				}
				fmt.Fprintln(out, line)

				hosts := make([]string, 0, len(p.Hosts))
				for host := range p.Hosts {
					hosts = append(hosts, host)
				}
				sort.Strings(hosts)
				for _, host := range hosts {
					fmt.Fprintf(out, "  %s: %s\n", host, strings.Join(p.Hosts[host], " "))
				}
			}
			return nil
		},
	}
}

func (a *app) setup(ctx context.Context) error {
	if err := config.Init(a.v, a.opts.configFile); err != nil {
		return err
	}

	logCfg := config.LoadLogConfig(a.v)
	path := logCfg.File
	if path == "" {
		var err error
		if path, err = logger.ExeRelativePath(logFileName); err != nil {
			return err
		}
	}
	f, err := logger.UseFile(path, a.opts.console)
	if err != nil {
		return err
	}
	a.logFile = f
	logger.SetFormat(logCfg.Format)
	switch {
	case a.opts.debug:
		logger.SetLevel("trace")
	case a.opts.verbose:
		logger.SetLevel("debug")
	default:
		logger.SetLevel(logCfg.Level)
	}
	logger.Trace("command line: %q", os.Args)

	cfg := config.LoadHandlerConfig(a.v)
	a.store, err = handler.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	exe, err := executable()
	if err != nil {
		return err
	}

	a.handler = &handler.Handler{
		Store:      a.store,
		Integrator: newIntegrator(),
		Relay:      client.NewClient(cfg.Relay),
		Runner:     handler.ExecRunner{},
		StateDir:   cfg.StateDir,
		Executable: exe,
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	var err error
	if a.store != nil {
		err = multierr.Append(err, a.store.Close(ctx))
	}
	if a.logFile != nil {
		logger.SetOutput(os.Stderr)
		err = multierr.Append(err, a.logFile.Close())
	}
	return err
}

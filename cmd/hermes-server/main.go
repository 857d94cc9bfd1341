// hermes-server owns a URI scheme for one project: it registers the scheme, answers links
// relayed by hermes-urls and serves the content endpoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/content"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/handler"
	"github.com/world-in-progress/hermes/osreg"
	"github.com/world-in-progress/hermes/scheme"
	"github.com/world-in-progress/hermes/server"
	"github.com/world-in-progress/hermes/uri"
	"go.uber.org/multierr"
)

const (
	logFileName = "hermes-server.log"
	// launchPathPrefix is how an editor command line carries the link it was started for.
	launchPathPrefix = "-HermesPath="
)

type app struct {
	v          *viper.Viper
	configFile string
	console    bool
	verbose    bool
	launchPath string

	logFile *os.File
	closers []func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hermes-server:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	args, launchPath := splitLaunchPath(args)
	a := &app{v: viper.New(), launchPath: launchPath}
	root := newRootCmd(a, out)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		logger.Error("%v", err)
	}
	return multierr.Append(err, a.close(ctx))
}

// splitLaunchPath removes -HermesPath=<path> from args, which is not a flag pflag can parse.
func splitLaunchPath(args []string) ([]string, string) {
	rest := make([]string, 0, len(args))
	path := ""
	for _, arg := range args {
		if strings.HasPrefix(arg, launchPathPrefix) {
			path = strings.Trim(strings.TrimPrefix(arg, launchPathPrefix), `"`)
			continue
		}
		rest = append(rest, arg)
	}
	return rest, path
}

func newRootCmd(a *app, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "hermes-server",
		Short:         "Serve Hermes links for a project",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default hermes.yaml in the working or state directory)")
	flags.BoolVar(&a.console, "console", true, "log to stderr as well as the log file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "use verbose logging")
	flags.String("state-dir", "", "directory holding settings, registrations and discovery records")
	flags.String("log-file", "", "log file (default hermes-server.log next to the executable)")
	flags.String("project-name", "", "project name, used for the default scheme")
	flags.String("branch", "", "derive the scheme from this branch name")
	_ = a.v.BindPFlag("state_dir", flags.Lookup("state-dir"))
	_ = a.v.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = a.v.BindPFlag("project.name", flags.Lookup("project-name"))
	_ = a.v.BindPFlag("branch.name", flags.Lookup("branch"))

	root.AddCommand(newServeCmd(a), newURICmd(a, out), newSchemeCmd(a, out))
	return root
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [project-file]",
		Short: "Register the project's scheme and dispatch links until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.v.Set("project.file", args[0])
			}
			if path, _ := cmd.Flags().GetString("path"); path != "" {
				a.launchPath = path
			}
			return a.serve(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.String("path", "", "path to dispatch once started, like -HermesPath=")
	flags.String("host", "", "listen address (default 127.0.0.1)")
	flags.Int("port", 0, "listen port (default: any free port)")
	flags.String("default-scheme", "", "scheme to use when no provider picks one")
	flags.String("content-root", "", "content directory served by the content endpoint")
	flags.String("registrar", "", `how schemes are registered: "exec" runs the helper, "store" registers in-process`)
	_ = a.v.BindPFlag("server.host", flags.Lookup("host"))
	_ = a.v.BindPFlag("server.port", flags.Lookup("port"))
	_ = a.v.BindPFlag("default_uri_scheme", flags.Lookup("default-scheme"))
	_ = a.v.BindPFlag("content.root", flags.Lookup("content-root"))
	_ = a.v.BindPFlag("registrar", flags.Lookup("registrar"))
	return cmd
}

func newURICmd(a *app, out io.Writer) *cobra.Command {
	var edit bool
	cmd := &cobra.Command{
		Use:   "uri <endpoint> [path...]",
		Short: "Print links to the given endpoint paths, one per line",
		Long: "Print links to the given endpoint paths, one per line. Without paths the content\n" +
			"endpoint lists every package under the configured content root.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig(a.v)
			if err != nil {
				return err
			}
			name, err := currentScheme(cfg)
			if err != nil {
				return err
			}

			endpoint, paths := args[0], args[1:]
			if len(paths) == 0 && endpoint == content.Name && cfg.Content.Root != "" {
				// every indexed package
				idx, err := content.BuildIndex(cfg.Content.Root)
				if err != nil {
					return err
				}
				paths = idx.Packages()
			}
			if len(paths) == 0 {
				paths = []string{""}
			}
			if endpoint == content.Name {
				fmt.Fprintln(out, content.URIs(name, paths, edit))
				return nil
			}
			suffix := ""
			if edit {
				suffix = content.EditSuffix
			}
			fmt.Fprintln(out, uri.JoinURIs(name, endpoint, paths, suffix))
			return nil
		},
	}
	cmd.Flags().BoolVar(&edit, "edit", false, "link to editing instead of revealing")
	return cmd
}

func newSchemeCmd(a *app, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "scheme",
		Short: "Show which scheme the configuration resolves to",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := config.LoadServerConfig(a.v)
			if err != nil {
				return err
			}
			if cfg.Branch.Name != "" {
				preview := newBranchSupport(cfg).Preview()
				fmt.Fprintf(out, "Branch:  %s\n", preview.Branch)
				fmt.Fprintf(out, "Scheme:  %s\n", preview.Scheme)
				fmt.Fprintf(out, "Example: %s\n", preview.ExampleURI)
				return nil
			}
			name, err := currentScheme(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Scheme:  %s\n", name)
			return nil
		},
	}
}

func (a *app) setup() error {
	if err := config.Init(a.v, a.configFile); err != nil {
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
	f, err := logger.UseFile(path, a.console)
	if err != nil {
		return err
	}
	a.logFile = f
	logger.SetFormat(logCfg.Format)
	if a.verbose {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel(logCfg.Level)
	}
	return nil
}

func (a *app) serve(ctx context.Context) error {
	cfg, err := config.LoadServerConfig(a.v)
	if err != nil {
		return err
	}
	settings, err := config.OpenSettings(cfg.StateDir)
	if err != nil {
		return err
	}

	branch := newBranchSupport(cfg)
	providers := scheme.NewProviders()
	providers.Register(branch)

	registrar, err := a.newRegistrar(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Config:    cfg,
		Settings:  settings,
		Providers: providers,
		Registrar: registrar,
	})

	if cfg.Content.Root != "" {
		ep := content.NewEndpoint(content.NewCommandActions(
			cfg.Content.EditCommand,
			cfg.Content.RevealCommand,
			cfg.Content.FocusCommand,
		))
		srv.Register(content.Name, ep)
		ep.Load(cfg.Content.Root, nil)
	} else {
		logger.Warn("no content root configured, the %s endpoint is disabled", content.Name)
	}

	srv.WatchConfig(a.v, branch.apply)
	return srv.Run(ctx, a.launchPath)
}

func (a *app) newRegistrar(ctx context.Context, cfg config.ServerConfig) (server.Registrar, error) {
	launch := launchCommand(cfg, a.configFile)
	switch cfg.Registrar {
	case "", "exec":
		return server.NewExecRegistrar(cfg.HelperPath, launch), nil
	case "store":
		hcfg := config.LoadHandlerConfig(a.v)
		st, err := handler.OpenStore(ctx, hcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return &server.StoreRegistrar{
			Handler: &handler.Handler{
				Store:      st,
				Integrator: osreg.Default(),
				StateDir:   hcfg.StateDir,
				Executable: cfg.HelperPath,
			},
			Launch: launch,
		}, nil
	default:
		return nil, fmt.Errorf("unknown registrar %q", cfg.Registrar)
	}
}

// launchCommand starts the configured editor, or this server when there is none.
func launchCommand(cfg config.ServerConfig, configFile string) []string {
	if cfg.EditorPath != "" {
		return server.LaunchCommand(cfg.EditorPath, cfg.ProjectFile)
	}
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	cmd := []string{exe, "serve"}
	if configFile != "" {
		cmd = append(cmd, "--config", configFile)
	}
	if cfg.ProjectFile != "" {
		cmd = append(cmd, cfg.ProjectFile)
	}
	return append(cmd, launchPathPrefix+osreg.Placeholder)
}

// currentScheme resolves the scheme the way a starting server would.
func currentScheme(cfg config.ServerConfig) (string, error) {
	settings, err := config.OpenSettings(cfg.StateDir)
	if err != nil {
		return "", err
	}
	providers := scheme.NewProviders()
	providers.Register(newBranchSupport(cfg))
	picker := scheme.Picker{
		Providers: providers,
		Default:   scheme.DefaultScheme(cfg.DefaultUriScheme, cfg.ProjectName),
	}
	return picker.Pick(false, settings.LastScheme()), nil
}

func (a *app) close(ctx context.Context) error {
	var err error
	for _, closer := range a.closers {
		err = multierr.Append(err, closer(ctx))
	}
	if a.logFile != nil {
		logger.SetOutput(os.Stderr)
		err = multierr.Append(err, a.logFile.Close())
	}
	return err
}

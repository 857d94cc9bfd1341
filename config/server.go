package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type (
	// ServerConfig configures the editor-side dispatch server.
	ServerConfig struct {
		StateDir string
		Host     string
		Port     int

		ProjectName string
		ProjectFile string
		EditorPath  string
		HelperPath  string

		DefaultUriScheme string
		Debug            bool
		// Registrar is "exec" to run the helper binary, or "store" to register in-process.
		Registrar string

		Workers WorkerConfig
		Branch  BranchConfig
		Content ContentConfig
	}

	WorkerConfig struct {
		Max    int
		Spawn  int
		Buffer int
	}

	TokenReplacement struct {
		Token       string `mapstructure:"token" yaml:"token"`
		Replacement string `mapstructure:"replacement" yaml:"replacement"`
	}

	BranchConfig struct {
		Enabled      bool
		Name         string
		Replacements []TokenReplacement
	}

	ContentConfig struct {
		Root          string
		EditCommand   []string
		RevealCommand []string
		FocusCommand  []string
	}
)

func LoadServerConfig(v *viper.Viper) (ServerConfig, error) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.workers.max", runtime.NumCPU()*2)
	v.SetDefault("server.workers.spawn", 1)
	v.SetDefault("server.workers.buffer", 64)
	v.SetDefault("project.name", "")
	v.SetDefault("debug", false)
	v.SetDefault("default_uri_scheme", "")
	v.SetDefault("helper", defaultHelperPath())
	v.SetDefault("registrar", "exec")

	cfg := ServerConfig{
		StateDir:         stateDir(v),
		Host:             v.GetString("server.host"),
		Port:             v.GetInt("server.port"),
		ProjectName:      v.GetString("project.name"),
		ProjectFile:      v.GetString("project.file"),
		EditorPath:       v.GetString("project.editor"),
		HelperPath:       v.GetString("helper"),
		DefaultUriScheme: v.GetString("default_uri_scheme"),
		Debug:            v.GetBool("debug"),
		Registrar:        v.GetString("registrar"),
		Workers: WorkerConfig{
			Max:    v.GetInt("server.workers.max"),
			Spawn:  v.GetInt("server.workers.spawn"),
			Buffer: v.GetInt("server.workers.buffer"),
		},
		Branch: BranchConfig{
			Enabled: v.GetBool("branch.enabled"),
			Name:    v.GetString("branch.name"),
		},
		Content: ContentConfig{
			Root:          v.GetString("content.root"),
			EditCommand:   v.GetStringSlice("content.edit_command"),
			RevealCommand: v.GetStringSlice("content.reveal_command"),
			FocusCommand:  v.GetStringSlice("content.focus_command"),
		},
	}

	if err := v.UnmarshalKey("branch.replacements", &cfg.Branch.Replacements); err != nil {
		return cfg, err
	}
	if cfg.ProjectName == "" && cfg.ProjectFile != "" {
		base := filepath.Base(cfg.ProjectFile)
		cfg.ProjectName = base[:len(base)-len(filepath.Ext(base))]
	}
	return cfg, nil
}

// defaultHelperPath looks for hermes-urls next to the running executable.
func defaultHelperPath() string {
	name := "hermes-urls"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

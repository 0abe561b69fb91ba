package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crucible-build/crucible/app"
)

var (
	cfgFile string
	engine  *app.Engine
	version string
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "A source-based native-code package manager and build orchestrator",
	Long: `
Crucible resolves a project's declared dependencies against a package
index, lowers the resolved closure into a build plan against a
realized toolchain, and executes that plan incrementally across a
parallel worker pool.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateBasicFlags(); err != nil {
			return err
		}
		return engine.Open()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(); it only needs to happen once.
func Execute(e *app.Engine, v string) error {
	engine = e
	version = v

	return RootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.crucible.yaml)")

	RootCmd.PersistentFlags().StringP(
		"project-manifest",
		"m",
		"crucible.json",
		"Path to the project manifest.",
	)

	RootCmd.PersistentFlags().StringP(
		"toolchain-file",
		"t",
		filepath.Join(os.Getenv("HOME"), ".crucible", "toolchains", "default.toml"),
		"Path to a toolchain definition file.",
	)

	RootCmd.PersistentFlags().StringP(
		"work-dir",
		"w",
		".crucible-out",
		"Path to the build output directory.",
	)

	RootCmd.PersistentFlags().StringP(
		"index-dir",
		"i",
		filepath.Join(os.Getenv("HOME"), ".crucible", "index"),
		"Path to the local package index directory.",
	)

	RootCmd.PersistentFlags().StringP(
		"cache-dir",
		"c",
		filepath.Join(os.Getenv("HOME"), ".crucible", "cache"),
		"Path to the fingerprint database and candidate cache directory.",
	)

	RootCmd.PersistentFlags().IntP(
		"jobs",
		"j",
		0,
		"Number of parallel worker tasks; zero means determine based on CPU count.",
	)

	RootCmd.PersistentFlags().BoolP(
		"warnings",
		"W",
		false,
		"Enable compiler warning flags.",
	)

	RootCmd.PersistentFlags().StringP(
		"metrics",
		"M",
		"",
		"Path to a CSV file to store phase timing metrics into.",
	)

	RootCmd.PersistentFlags().BoolP(
		"verbose",
		"V",
		false,
		"Enable verbose output.",
	)

	viper.BindPFlags(RootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	initViper(viper.GetViper())
}

func initViper(v *viper.Viper) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	v.SetEnvPrefix("CRUCIBLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetConfigName(".crucible")
	v.AddConfigPath("$HOME")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		if v == viper.GetViper() {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

func validateBasicFlags() error {
	engine.Options.ProjectManifest = viper.GetString("project-manifest")
	engine.Options.ToolchainFile = viper.GetString("toolchain-file")
	engine.Options.OutputDir = viper.GetString("work-dir")
	engine.Options.IndexDir = viper.GetString("index-dir")
	engine.Options.CacheDir = viper.GetString("cache-dir")
	engine.Options.Jobs = viper.GetInt("jobs")
	engine.Options.WarningsOn = viper.GetBool("warnings")
	engine.Options.Metrics = viper.GetString("metrics")
	engine.Options.Verbose = viper.GetBool("verbose")

	if engine.Options.Jobs < 1 {
		engine.Options.Jobs = runtime.NumCPU() + 2
	}

	return absolutePaths(
		&engine.Options.ProjectManifest,
		&engine.Options.ToolchainFile,
		&engine.Options.OutputDir,
		&engine.Options.IndexDir,
		&engine.Options.CacheDir,
	)
}

func absolutePaths(paths ...*string) error {
	for _, path := range paths {
		if *path == "" {
			continue
		}
		absPath, err := absolutePath(*path)
		if err != nil {
			return err
		}
		*path = absPath
	}
	return nil
}

func absolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("error getting absolute path for %s: %w", path, err)
	}
	return abs, nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/canonroute/canonroute/internal/config"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "canonroute",
		Short:        "Canonical URL redirect gateway",
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// configFlags are shared by every command that loads a configuration file.
type configFlags struct {
	path    string
	envFile string
	set     []string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Apply CANONROUTE_* overrides from a dotenv file")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "Override a setting, e.g. --set redirect.enable.toLowerCase=false")
}

// load reads the config file and applies overrides in order: env file,
// process environment, then --set flags. The result is validated.
func (f *configFlags) load() (*config.Config, error) {
	if f.path == "" {
		return nil, errors.New("config path is required")
	}
	cfg, err := config.Load(f.path)
	if err != nil {
		return nil, err
	}

	if f.envFile != "" {
		values, err := config.LoadEnvFile(f.envFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(values); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if len(f.set) > 0 {
		values := make(map[string]string, len(f.set))
		for _, raw := range f.set {
			key, value, err := config.ParseAssignment(raw)
			if err != nil {
				return nil, err
			}
			values[key] = value
		}
		if err := cfg.ApplyDotted(values); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidateCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a canonroute configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := flags.load(); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "config ok"); err != nil {
				return err
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s buildDate=%s\n", version, commit, buildDate)
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-batch-generator/internal/config"
	"go-batch-generator/internal/console"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check the environment, print or write a default config file.",
	Long: `setup reports which config file, output root and history database a run
would use. --example prints every default setting as YAML and --write saves
it to --path, refusing to replace an existing file unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		f := cmd.Flags()

		if example, _ := f.GetBool("example"); example {
			body, err := config.DefaultYAML()
			if err != nil {
				return err
			}
			_, err = out.Write(body)
			return err
		}

		if write, _ := f.GetBool("write"); write {
			path, _ := f.GetString("path")
			force, _ := f.GetBool("force")
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote default configuration to %s\n", path)
			return nil
		}

		cfg, err := config.Load(cfgFile, f)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, console.RenderChecks(environmentChecks(cfg)))
		return nil
	},
}

func environmentChecks(cfg *config.Config) []console.Check {
	checks := []console.Check{{
		Setting: "config file",
		OK:      cfg.File != "",
		Detail:  cfg.File,
	}}
	if cfg.File == "" {
		checks[0].Detail = "defaults and " + config.EnvPrefix + "_* environment; run 'batchgen setup --write'"
	}

	info, err := os.Stat(cfg.Generation.OutputRoot)
	checks = append(checks, console.Check{
		Setting: "output root",
		OK:      err == nil && info.IsDir(),
		Detail:  cfg.Generation.OutputRoot,
	})

	if cfg.State.HistoryEnabled {
		_, dbErr := os.Stat(cfg.State.HistoryDB)
		checks = append(checks, console.Check{Setting: "history db", OK: dbErr == nil, Detail: cfg.State.HistoryDB})
	}

	checks = append(checks, console.Check{
		Setting: "workers",
		OK:      true,
		Detail:  fmt.Sprintf("%d (%s)", cfg.Generation.Workers, cfg.Generation.Mode),
	})
	return checks
}

func init() {
	f := setupCmd.Flags()
	f.BoolP("example", "e", false, "Print the default configuration as YAML")
	f.Bool("write", false, "Write the default configuration to --path")
	f.String("path", config.DefaultFileName, "Config file written by --write")
	f.Bool("force", false, "Replace an existing config file")
	f.StringP("output", "o", "output", "Output root directory")
	f.Bool("history", false, "Check the SQLite history database")
	f.String("history-db", "batchgen.db", "SQLite history database path")
}

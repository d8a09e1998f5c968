package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/pipeline"
	"github.com/spf13/cobra"
)

var loadFlags struct {
	dir    string
	entity string
	file   string
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Replace raw tables from CSV files",
	Long: `Load every raw entity from <dir>/<entity>.csv in dependency order, or a
single entity with --entity and --file. Each entity is replaced atomically; a
malformed file leaves that entity's previous contents in place.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFlags.dir, "dir", "", "directory of <entity>.csv files (defaults to DATA_DIR)")
	loadCmd.Flags().StringVar(&loadFlags.entity, "entity", "", "load only this entity")
	loadCmd.Flags().StringVar(&loadFlags.file, "file", "", "source file for --entity")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, wh, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer wh.Close()

	var results []pipeline.LoadResult
	switch {
	case loadFlags.entity != "":
		if loadFlags.file == "" {
			return errors.New("--file is required with --entity")
		}
		f, err := os.Open(loadFlags.file)
		if err != nil {
			return fmt.Errorf("open %s source: %w", loadFlags.entity, err)
		}
		defer f.Close()
		res, err := p.LoadEntity(ctx, loadFlags.entity, f)
		if err != nil {
			return err
		}
		results = append(results, res)
	default:
		dir := loadFlags.dir
		if dir == "" {
			dir = env.cfg.DataDir
		}
		results, err = p.LoadDir(ctx, dir)
		// Entities loaded before a failure are still reported.
		printLoadResults(cmd, results)
		return err
	}

	printLoadResults(cmd, results)
	return nil
}

func printLoadResults(cmd *cobra.Command, results []pipeline.LoadResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%-20s %8d rows  %s\n", r.Entity, r.Rows, r.Duration.Round(time.Millisecond))
	}
}

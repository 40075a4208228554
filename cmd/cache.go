/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/codextran/internal/artifact"
)

var cacheOutputDir string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the artifact freshness index",
	Long: `Inspect and clear the SQLite artifact index. Clearing the index does
not delete artifact files; it only forces the next run to redo every
stage and rewrite them.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show artifact index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := artifact.Open(cacheOutputDir)
		if err != nil {
			return fmt.Errorf("failed to open output directory: %w", err)
		}
		defer store.Close()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Units:     %d\n", stats.Units)
		fmt.Printf("Artifacts: %d\n", stats.Artifacts)
		if len(stats.PerStage) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tARTIFACTS")
			for _, stage := range []string{"extract", "translate", "keywords", "render"} {
				if n, ok := stats.PerStage[stage]; ok {
					fmt.Fprintf(w, "%s\t%d\n", stage, n)
				}
			}
			return w.Flush()
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the artifact index",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := artifact.Open(cacheOutputDir)
		if err != nil {
			return fmt.Errorf("failed to open output directory: %w", err)
		}
		defer store.Close()

		n, err := store.ClearArtifacts(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
		fmt.Printf("Cleared %d artifact entries.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheCmd.PersistentFlags().StringVarP(&cacheOutputDir, "output", "o", "out", "Output directory of the processed document")
}

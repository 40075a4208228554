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
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/codextran/internal/artifact"
)

var unitsOutputDir string

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Inspect the chapter units of a processed document",
}

var unitsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all units with their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := artifact.Open(unitsOutputDir)
		if err != nil {
			return fmt.Errorf("failed to open output directory: %w", err)
		}
		defer store.Close()

		units, err := store.LoadUnits(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load units: %w", err)
		}
		if len(units) == 0 {
			fmt.Println("No units recorded. Run \"codextran run extract\" first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NUM\tTITLE\tSTATUS\tKEYWORDS")
		for _, u := range units {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", u.Number, u.Title, u.Status, len(u.Keywords))
		}
		return w.Flush()
	},
}

var unitsShowCmd = &cobra.Command{
	Use:   "show <number>",
	Short: "Show one unit's details and keywords",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid unit number: %s", args[0])
		}

		store, err := artifact.Open(unitsOutputDir)
		if err != nil {
			return fmt.Errorf("failed to open output directory: %w", err)
		}
		defer store.Close()

		units, err := store.LoadUnits(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load units: %w", err)
		}

		for _, u := range units {
			if u.Number != number {
				continue
			}
			fmt.Printf("Unit:    %d\n", u.Number)
			fmt.Printf("Title:   %s\n", u.Title)
			fmt.Printf("Slug:    %s\n", u.Slug)
			fmt.Printf("Status:  %s\n", u.Status)
			fmt.Printf("Source:  %s\n", store.SourceTextPath(u))
			fmt.Printf("Target:  %s\n", store.TargetTextPath(u))
			if len(u.Keywords) > 0 {
				fmt.Println("Keywords:")
				for _, k := range u.Keywords {
					fmt.Printf("  %-30s %s (score %.2f)\n", k.SourcePhrase, k.TargetPhrase, k.Score)
				}
			}
			return nil
		}
		return fmt.Errorf("unit %d not found", number)
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	unitsCmd.AddCommand(unitsListCmd)
	unitsCmd.AddCommand(unitsShowCmd)

	unitsCmd.PersistentFlags().StringVarP(&unitsOutputDir, "output", "o", "out", "Output directory of the processed document")
}

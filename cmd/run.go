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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/codextran/internal"
	"github.com/valpere/codextran/internal/artifact"
	"github.com/valpere/codextran/internal/detector"
	"github.com/valpere/codextran/internal/logging"
	"github.com/valpere/codextran/internal/pipeline"
	"github.com/valpere/codextran/internal/translator"
)

var runCmd = &cobra.Command{
	Use:   "run <stage>",
	Short: "Run pipeline stages over a document",
	Long: `Run one pipeline stage, or all of them in order.

Stages:
  extract     Split the input into chapter units and clean each body
  translate   Translate each unit through the selected service
  keywords    Extract ranked keywords and annotate the translations
  render      Render per-chapter pages and the compiled HTML document
  all         Every stage, in order

Artifacts land under the output directory. A stage skips units whose
artifacts are already valid for the current inputs; use --force to redo
them. The command exits non-zero when any unit fails.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"all", "extract", "translate", "keywords", "render"},
	RunE: func(cmd *cobra.Command, args []string) error {
		stages, err := pipeline.ParseStages(args[0])
		if err != nil {
			return err
		}

		inputFile := viper.GetString("input")
		outputDir := viper.GetString("output")
		sourceLang := viper.GetString("source")
		targetLang := viper.GetString("target")

		if needsInput(stages) && inputFile == "" {
			return fmt.Errorf("--input is required for the extract stage")
		}
		if needsTarget(stages) && targetLang == "" {
			return fmt.Errorf("--target is required")
		}

		log, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer log.Sync()

		// Auto-detect source language from the input document.
		if sourceLang == "auto" && inputFile != "" {
			if text, err := os.ReadFile(inputFile); err == nil {
				det := detector.New()
				if detected, ok := det.DetectISO(string(text)); ok {
					sourceLang = detected
					fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
				}
			}
		}

		svc, err := buildService(
			viper.GetString("service"),
			viper.GetString("credentials"),
			viper.GetString("ollama-url"),
			viper.GetString("ollama-model"),
			viper.GetString("mymemory-email"),
		)
		if err != nil {
			return err
		}

		engine := translator.NewEngine(svc, translator.EngineConfig{
			SourceLang:  sourceLang,
			TargetLang:  targetLang,
			MaxAttempts: viper.GetInt("retries"),
		})
		defer engine.Close()

		store, err := artifact.Open(outputDir)
		if err != nil {
			return fmt.Errorf("opening output directory: %w", err)
		}
		defer store.Close()

		title := viper.GetString("title")
		if title == "" && inputFile != "" {
			base := filepath.Base(inputFile)
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		p := pipeline.New(pipeline.Config{
			InputPath:  inputFile,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			TopK:       viper.GetInt("top-k"),
			Workers:    viper.GetInt("workers"),
			Force:      viper.GetBool("force"),
			DocTitle:   title,
		}, store, engine, log)

		report, runErr := p.Run(cmd.Context(), stages)
		fmt.Print(report.String())
		if runErr != nil {
			return runErr
		}
		if report.HasFailures() {
			return fmt.Errorf("%d unit(s) failed", len(report.Failed))
		}
		return nil
	},
}

// needsInput reports whether the input document itself is read.
func needsInput(stages []internal.Stage) bool {
	for _, s := range stages {
		if s == internal.StageExtract {
			return true
		}
	}
	return false
}

// needsTarget reports whether a target language is required.
func needsTarget(stages []internal.Stage) bool {
	for _, s := range stages {
		if s == internal.StageTranslate || s == internal.StageKeywords {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Input text file (required for extract)")
	runCmd.Flags().StringP("output", "o", "out", "Output directory for artifacts")
	runCmd.Flags().StringP("source", "s", "auto", "Source language code")
	runCmd.Flags().StringP("target", "t", "", "Target language code")
	runCmd.Flags().String("service", "google", "Translation service: google, ollama or mymemory")
	runCmd.Flags().StringP("credentials", "c", "", "Path to Google Cloud credentials")
	runCmd.Flags().String("ollama-url", "http://localhost:11434", "Ollama base URL")
	runCmd.Flags().String("ollama-model", "llama3.2", "Ollama model name")
	runCmd.Flags().String("mymemory-email", "", "MyMemory email (for higher limits)")
	runCmd.Flags().Int("top-k", 10, "Keywords to retain per chapter")
	runCmd.Flags().Int("workers", 4, "Cleanup worker count")
	runCmd.Flags().Int("retries", 3, "Attempts per chunk on transient translation errors")
	runCmd.Flags().Bool("force", false, "Redo work even when artifacts are still valid")
	runCmd.Flags().String("title", "", "Compiled document title (default: input file name)")

	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		panic(err)
	}
}

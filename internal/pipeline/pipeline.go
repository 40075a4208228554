// Package pipeline orchestrates the processing stages over a document:
// extract, translate, keywords, render. Stages run in a fixed order, each
// consuming the durable artifacts of the previous one, so any stage can be
// re-run on its own. Per-unit failures are isolated: a failed unit is
// marked and skipped by later stages of the run while the remaining units
// continue.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/codextran/internal"
	"github.com/valpere/codextran/internal/artifact"
	"github.com/valpere/codextran/internal/cleaner"
	"github.com/valpere/codextran/internal/keywords"
	"github.com/valpere/codextran/internal/renderer"
	"github.com/valpere/codextran/internal/segmenter"
	"github.com/valpere/codextran/internal/validator"
)

// Translator is the shared translation resource for a run. It is satisfied
// by *translator.Engine.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
	TranslateText(ctx context.Context, text string) (string, error)
}

// LanguageChecker verifies that translated text is in the expected
// language. Satisfied by *validator.Validator.
type LanguageChecker interface {
	IsValid(translatedText, targetLang string) (bool, error)
}

// Config carries the run parameters.
type Config struct {
	InputPath  string
	SourceLang string
	TargetLang string
	TopK       int
	Workers    int
	Force      bool
	DocTitle   string
}

// Pipeline drives the stages. Strategy, Renderer and Checker are
// initialized to defaults by New and may be replaced before Run.
type Pipeline struct {
	Strategy segmenter.Strategy
	Renderer renderer.Renderer
	Checker  LanguageChecker

	cfg        Config
	store      *artifact.Store
	translator Translator
	log        *zap.Logger
}

// New builds a Pipeline over an opened artifact store.
func New(cfg Config, store *artifact.Store, tr Translator, log *zap.Logger) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = keywords.DefaultTopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		Strategy:   segmenter.NewNumberedStrategy(),
		Renderer:   renderer.NewHTML(cfg.DocTitle),
		Checker:    validator.New(),
		cfg:        cfg,
		store:      store,
		translator: tr,
		log:        log,
	}
}

// Run executes the requested stages in canonical order and returns the
// per-stage report. A document-level failure (unreadable input, heading
// detection) aborts the run with an error; per-unit failures are recorded
// in the report instead.
func (p *Pipeline) Run(ctx context.Context, stages []internal.Stage) (*Report, error) {
	report := NewReport(uuid.NewString())
	log := p.log.With(zap.String("run_id", report.RunID))

	for _, stage := range orderStages(stages) {
		log.Info("stage starting", zap.String("stage", string(stage)))

		var err error
		switch stage {
		case internal.StageExtract:
			err = p.runExtract(ctx, report)
		case internal.StageTranslate:
			err = p.runTranslate(ctx, report)
		case internal.StageKeywords:
			err = p.runKeywords(ctx, report)
		case internal.StageRender:
			err = p.runRender(ctx, report)
		default:
			err = fmt.Errorf("unknown stage %q", stage)
		}

		count := report.Stages[stage]
		if saveErr := p.store.SaveRun(ctx, report.RunID, stage, count.Attempted, count.Succeeded, count.Failed); saveErr != nil {
			log.Warn("recording run row failed", zap.Error(saveErr))
		}
		if err != nil {
			return report, fmt.Errorf("stage %s: %w", stage, err)
		}
		log.Info("stage finished",
			zap.String("stage", string(stage)),
			zap.Int("attempted", count.Attempted),
			zap.Int("succeeded", count.Succeeded),
			zap.Int("failed", count.Failed))
	}
	return report, nil
}

// orderStages normalizes the requested stages to canonical execution order
// and drops duplicates.
func orderStages(requested []internal.Stage) []internal.Stage {
	want := make(map[internal.Stage]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}
	ordered := make([]internal.Stage, 0, len(want))
	for _, s := range internal.Stages {
		if want[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// runExtract segments the input document, strips recurring page furniture,
// cleans each unit body and persists the source-language artifacts.
// Cleaning runs on a bounded worker pool; everything else is sequential.
func (p *Pipeline) runExtract(ctx context.Context, report *Report) error {
	raw, err := os.ReadFile(p.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	units, err := segmenter.Segment(string(raw), p.Strategy)
	if err != nil {
		return err
	}

	rawTexts := make([]string, len(units))
	for i, u := range units {
		rawTexts[i] = u.RawText
	}
	rawTexts = cleaner.StripRecurring(rawTexts)
	for i := range units {
		units[i].RawText = rawTexts[i]
		units[i].Slug = internal.Slugify(units[i].Title)
		units[i].Status = internal.StatusPending
	}

	if err := p.store.SaveUnits(ctx, units); err != nil {
		return fmt.Errorf("saving units: %w", err)
	}

	cleaned := make([]string, len(units))
	cleanErrs := make([]error, len(units))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)
	for i := range units {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			cleaned[i], cleanErrs[i] = cleaner.Clean(units[i].RawText)
		}(i)
	}
	wg.Wait()

	for i, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cleanErrs[i] != nil {
			p.failUnit(ctx, report, internal.StageExtract, u.Number, cleanErrs[i])
			continue
		}

		hash := artifact.InputHash(u.RawText)
		path := p.store.SourceTextPath(u)
		fresh, err := p.store.ValidArtifact(ctx, internal.StageExtract, u.Number, hash)
		if err != nil {
			return err
		}
		if fresh && !p.cfg.Force {
			report.addSuccess(internal.StageExtract)
			continue
		}

		if err := artifact.WriteFileAtomic(path, []byte(cleaned[i])); err != nil {
			p.failUnit(ctx, report, internal.StageExtract, u.Number, err)
			continue
		}
		if err := p.store.RecordArtifact(ctx, internal.StageExtract, u.Number, path, hash); err != nil {
			return err
		}
		if err := p.store.SetStatus(ctx, u.Number, internal.StatusExtracted); err != nil {
			return err
		}
		report.addSuccess(internal.StageExtract)
	}
	return nil
}

// runTranslate translates each extracted unit through the shared engine.
// A wrong-language detection on the result is logged as a warning, not a
// failure.
func (p *Pipeline) runTranslate(ctx context.Context, report *Report) error {
	units, err := p.store.LoadUnits(ctx)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("no units recorded; run extract first")
	}

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if report.skip(u.Number) {
			continue
		}

		src, err := os.ReadFile(p.store.SourceTextPath(u))
		if err != nil {
			p.failUnit(ctx, report, internal.StageTranslate, u.Number, fmt.Errorf("source artifact: %w", err))
			continue
		}

		hash := artifact.InputHash(string(src), p.cfg.SourceLang, p.cfg.TargetLang, p.translator.Name())
		fresh, err := p.store.ValidArtifact(ctx, internal.StageTranslate, u.Number, hash)
		if err != nil {
			return err
		}
		if fresh && !p.cfg.Force {
			report.addSuccess(internal.StageTranslate)
			continue
		}

		translated, err := p.translator.TranslateText(ctx, string(src))
		if err != nil {
			p.failUnit(ctx, report, internal.StageTranslate, u.Number, err)
			continue
		}

		if ok, verr := p.Checker.IsValid(translated, p.cfg.TargetLang); !ok {
			p.log.Warn("translated text may not match target language",
				zap.Int("unit", u.Number), zap.Error(verr))
		}

		path := p.store.TargetTextPath(u)
		if err := artifact.WriteFileAtomic(path, []byte(translated)); err != nil {
			p.failUnit(ctx, report, internal.StageTranslate, u.Number, err)
			continue
		}
		if err := p.store.RecordArtifact(ctx, internal.StageTranslate, u.Number, path, hash); err != nil {
			return err
		}
		if err := p.store.SetStatus(ctx, u.Number, internal.StatusTranslated); err != nil {
			return err
		}
		report.addSuccess(internal.StageTranslate)
	}
	return nil
}

// runKeywords extracts ranked keywords from the cleaned source text,
// translates them, persists the pairs and appends the annotation line to
// the translated artifact.
func (p *Pipeline) runKeywords(ctx context.Context, report *Report) error {
	units, err := p.store.LoadUnits(ctx)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("no units recorded; run extract first")
	}

	gen := keywords.NewGenerator(p.translator, keywords.Config{TopK: p.cfg.TopK})

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if report.skip(u.Number) {
			continue
		}

		src, err := os.ReadFile(p.store.SourceTextPath(u))
		if err != nil {
			p.failUnit(ctx, report, internal.StageKeywords, u.Number, fmt.Errorf("source artifact: %w", err))
			continue
		}
		targetPath := p.store.TargetTextPath(u)
		target, err := os.ReadFile(targetPath)
		if err != nil {
			p.failUnit(ctx, report, internal.StageKeywords, u.Number, fmt.Errorf("translated artifact: %w", err))
			continue
		}

		hash := artifact.InputHash(string(src), p.cfg.TargetLang, strconv.Itoa(p.cfg.TopK))
		fresh, err := p.store.ValidArtifact(ctx, internal.StageKeywords, u.Number, hash)
		if err != nil {
			return err
		}
		if fresh && !p.cfg.Force {
			report.addSuccess(internal.StageKeywords)
			continue
		}

		pairs, err := gen.Generate(ctx, u.Number, string(src))
		if err != nil {
			p.failUnit(ctx, report, internal.StageKeywords, u.Number, err)
			continue
		}

		if err := p.store.SaveKeywords(ctx, u.Number, pairs); err != nil {
			return err
		}
		annotated := keywords.Annotate(string(target), pairs)
		if err := artifact.WriteFileAtomic(targetPath, []byte(annotated)); err != nil {
			p.failUnit(ctx, report, internal.StageKeywords, u.Number, err)
			continue
		}
		if err := p.store.RecordArtifact(ctx, internal.StageKeywords, u.Number, targetPath, hash); err != nil {
			return err
		}
		if err := p.store.SetStatus(ctx, u.Number, internal.StatusAnnotated); err != nil {
			return err
		}
		report.addSuccess(internal.StageKeywords)
	}
	return nil
}

// runRender renders each annotated unit to its own page, then assembles
// the compiled document when every unit made it through.
func (p *Pipeline) runRender(ctx context.Context, report *Report) error {
	units, err := p.store.LoadUnits(ctx)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("no units recorded; run extract first")
	}

	rendered := make([]internal.ChapterUnit, 0, len(units))
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if report.skip(u.Number) {
			continue
		}

		target, err := os.ReadFile(p.store.TargetTextPath(u))
		if err != nil {
			p.failUnit(ctx, report, internal.StageRender, u.Number, fmt.Errorf("translated artifact: %w", err))
			continue
		}
		u.TranslatedText = string(target)

		hash := artifact.InputHash(u.TranslatedText, u.Title)
		fresh, err := p.store.ValidArtifact(ctx, internal.StageRender, u.Number, hash)
		if err != nil {
			return err
		}
		if fresh && !p.cfg.Force {
			report.addSuccess(internal.StageRender)
			rendered = append(rendered, u)
			continue
		}

		page, err := p.Renderer.RenderUnit(u)
		if err != nil {
			p.failUnit(ctx, report, internal.StageRender, u.Number, err)
			continue
		}
		path := p.store.RenderPath(u)
		if err := artifact.WriteFileAtomic(path, page); err != nil {
			p.failUnit(ctx, report, internal.StageRender, u.Number, err)
			continue
		}
		if err := p.store.RecordArtifact(ctx, internal.StageRender, u.Number, path, hash); err != nil {
			return err
		}
		if err := p.store.SetStatus(ctx, u.Number, internal.StatusRendered); err != nil {
			return err
		}
		report.addSuccess(internal.StageRender)
	}

	// The compiled document only makes sense when every unit is present.
	if len(report.Failed) > 0 || len(rendered) != len(units) {
		p.log.Warn("skipping compiled document", zap.Int("failed_units", len(report.Failed)))
		return nil
	}
	sort.Slice(rendered, func(i, j int) bool { return rendered[i].Number < rendered[j].Number })
	doc, err := p.Renderer.RenderCompiled(rendered)
	if err != nil {
		return err
	}
	return artifact.WriteFileAtomic(p.store.CompiledPath(), doc)
}

// failUnit records a per-unit stage failure in both the report and the
// unit's durable status, and logs it.
func (p *Pipeline) failUnit(ctx context.Context, report *Report, stage internal.Stage, number int, cause error) {
	report.addFailure(stage, number)
	p.log.Error("unit failed",
		zap.Int("unit", number),
		zap.String("stage", string(stage)),
		zap.Error(cause))
	if err := p.store.SetStatus(ctx, number, internal.FailedStatus(stage)); err != nil {
		p.log.Warn("recording failed status", zap.Int("unit", number), zap.Error(err))
	}
}

// describeStages is a human-readable list for error messages.
func describeStages() string {
	names := make([]string, len(internal.Stages))
	for i, s := range internal.Stages {
		names[i] = string(s)
	}
	return strings.Join(names, "|")
}

// ParseStages maps a CLI stage argument to the stages to run. "all" means
// every stage in order.
func ParseStages(arg string) ([]internal.Stage, error) {
	if arg == "all" {
		return internal.Stages, nil
	}
	for _, s := range internal.Stages {
		if string(s) == arg {
			return []internal.Stage{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown stage %q (want all|%s)", arg, describeStages())
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finreport_analyzer/pkg/core/calc"
	"finreport_analyzer/pkg/core/ingest"
	"finreport_analyzer/pkg/core/llm"
	"finreport_analyzer/pkg/core/narrative"
	"finreport_analyzer/pkg/core/prompt"
	"finreport_analyzer/pkg/core/store"

	"github.com/rs/zerolog"
)

// ExtractionMode selects which passes read numbers out of a document.
type ExtractionMode string

const (
	// ExtractAuto runs the table pass and the text pass; table values win.
	ExtractAuto ExtractionMode = "auto"
	// ExtractTables uses classified statement tables only.
	ExtractTables ExtractionMode = "tables"
	// ExtractText uses the regex text pass only.
	ExtractText ExtractionMode = "text"
)

// LLMMode selects how the narrative is refined by a language model.
type LLMMode string

const (
	LLMOff LLMMode = "off"
	// LLMSections asks for a full analysis, then one focused call per
	// section.
	LLMSections LLMMode = "sections"
	// LLMStructured asks for all sections in one JSON response.
	LLMStructured LLMMode = "structured"
)

// Config tunes a run.
type Config struct {
	Extraction ExtractionMode `json:"extraction"`
	LLM        LLMMode        `json:"llm"`
	// Strict rejects documents where two labels resolve to the same field.
	Strict bool `json:"strict"`
	// MaxPromptTokens bounds the document text sent for summarization.
	MaxPromptTokens int `json:"max_prompt_tokens"`
	// LLMTimeout bounds all model calls of one run together.
	LLMTimeout time.Duration `json:"llm_timeout"`
}

// DefaultConfig returns auto extraction with per-section refinement.
func DefaultConfig() Config {
	return Config{
		Extraction:      ExtractAuto,
		LLM:             LLMSections,
		MaxPromptTokens: 3000,
		LLMTimeout:      3 * time.Minute,
	}
}

// PromptExecutor routes a conversation to the model configured for an
// agent type. *agent.Manager implements it.
type PromptExecutor interface {
	ExecutePrompt(ctx context.Context, agentType string, messages []llm.Message) (string, error)
}

// Orchestrator runs documents through extraction, ratio derivation, the
// rule-based narrative, optional LLM refinement and persistence.
type Orchestrator struct {
	cfg       Config
	llm       PromptExecutor
	prompts   *prompt.Registry
	repo      store.ReportRepository
	observer  Observer
	evaluator *narrative.Evaluator
	log       zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLLM enables model refinement through exec.
func WithLLM(exec PromptExecutor) Option {
	return func(o *Orchestrator) { o.llm = exec }
}

// WithPrompts replaces the global prompt registry.
func WithPrompts(r *prompt.Registry) Option {
	return func(o *Orchestrator) { o.prompts = r }
}

// WithRepository persists every successful run.
func WithRepository(repo store.ReportRepository) Option {
	return func(o *Orchestrator) { o.repo = repo }
}

// WithObserver reports stage durations and failures.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

func New(cfg Config, log zerolog.Logger, opts ...Option) *Orchestrator {
	def := DefaultConfig()
	if cfg.Extraction == "" {
		cfg.Extraction = def.Extraction
	}
	if cfg.LLM == "" {
		cfg.LLM = def.LLM
	}
	if cfg.MaxPromptTokens <= 0 {
		cfg.MaxPromptTokens = def.MaxPromptTokens
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = def.LLMTimeout
	}

	o := &Orchestrator{
		cfg:       cfg,
		evaluator: narrative.NewEvaluator(),
		log:       log.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.prompts == nil {
		o.prompts = prompt.Get()
	}
	return o
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// run carries the state of one analysis through the stages.
type run struct {
	result *Result
	doc    *ingest.Document
	store  *calc.MetricStore
	ratios calc.Ratios
	view   narrative.View
	log    zerolog.Logger
}

func (r *run) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.result.Warnings = append(r.result.Warnings, msg)
	r.log.Warn().Msg(msg)
}

// stage times fn, logs its outcome and reports it to the observer.
func (o *Orchestrator) stage(r *run, s Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	r.result.Timings = append(r.result.Timings, StageTiming{Stage: s, Millis: float64(elapsed.Microseconds()) / 1000})
	if o.observer != nil {
		o.observer.ObserveStage(s, elapsed, err)
	}
	if err != nil {
		r.log.Error().Err(err).Str("stage", string(s)).Dur("elapsed", elapsed).Msg("stage failed")
		return stageErr(s, err)
	}
	r.log.Debug().Str("stage", string(s)).Dur("elapsed", elapsed).Msg("stage complete")
	return nil
}

func (o *Orchestrator) newRun(source, format string) *run {
	return &run{
		result: &Result{Source: source, Format: format},
		log:    o.log.With().Str("source", source).Logger(),
	}
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// RunDocument analyzes an uploaded file of any supported format.
func (o *Orchestrator) RunDocument(ctx context.Context, name string, data []byte) (*Result, error) {
	format, err := ingest.FormatOf(name)
	if err != nil {
		return nil, stageErr(StageParse, err)
	}
	r := o.newRun(name, format)
	r.log.Info().Str("format", format).Int("bytes", len(data)).Msg("analysis started")

	if err := o.stage(r, StageParse, func() error {
		doc, err := ingest.Load(name, data)
		if err != nil {
			return err
		}
		r.doc = doc
		r.result.Pages = doc.Pages
		return nil
	}); err != nil {
		return nil, err
	}

	if err := o.stage(r, StageExtract, func() error { return o.extract(r) }); err != nil {
		return nil, err
	}
	return o.analyze(ctx, r)
}

// RunText analyzes pasted statement text with the text pass.
func (o *Orchestrator) RunText(ctx context.Context, text string) (*Result, error) {
	return o.RunDocument(ctx, "input.txt", []byte(text))
}

// RunMetrics analyzes an already extracted label → value mapping. Labels
// go through alias resolution like table rows do.
func (o *Orchestrator) RunMetrics(ctx context.Context, metrics map[string]float64) (*Result, error) {
	r := o.newRun("metrics", "metrics")
	if err := o.stage(r, StageExtract, func() error {
		if o.cfg.Strict {
			s, err := calc.NewStrictMetricStoreFromMap(metrics)
			if err != nil {
				return err
			}
			r.store = s
		} else {
			r.store = calc.NewMetricStoreFromMap(metrics)
		}
		r.result.Unrecognized = r.store.Unrecognized()
		return nil
	}); err != nil {
		return nil, err
	}
	return o.analyze(ctx, r)
}

// =============================================================================
// EXTRACTION
// =============================================================================

func (o *Orchestrator) extract(r *run) error {
	var tableEntries, textEntries []calc.Entry

	if o.cfg.Extraction != ExtractText {
		entries, statements, err := tablePass(r.doc)
		switch {
		case err == nil:
			tableEntries = entries
			r.result.Statements = statements
		case o.cfg.Extraction == ExtractTables:
			return err
		default:
			r.log.Debug().Err(err).Msg("table pass produced nothing")
		}
	}

	if o.cfg.Extraction != ExtractTables && r.doc.Text != "" {
		x := ingest.ExtractText(r.doc.Text)
		textEntries = x.Entries()
		for _, skipped := range x.Skipped {
			r.warn("無法解析 %s 的數值：%q", skipped.Field, skipped.Raw)
		}
	}

	if o.cfg.Strict && len(tableEntries) > 0 {
		if _, err := calc.NewStrictMetricStore(tableEntries); err != nil {
			return err
		}
	}

	// table rows come last so they win over the text pass
	r.store = calc.NewMetricStore(append(textEntries, tableEntries...))
	r.result.Unrecognized = r.store.Unrecognized()

	if o.cfg.Extraction == ExtractAuto && len(tableEntries) == 0 && len(textEntries) > 0 {
		r.warn("未能辨識財務報表表格，僅使用文字擷取結果")
	}
	r.log.Info().
		Int("table_entries", len(tableEntries)).
		Int("text_entries", len(textEntries)).
		Int("canonical", r.store.CanonicalCount()).
		Msg("extraction complete")
	return nil
}

func tablePass(doc *ingest.Document) ([]calc.Entry, []string, error) {
	statements, err := ingest.ClassifyTables(doc.Tables)
	if err != nil {
		return nil, nil, err
	}
	var names []string
	for _, st := range ingest.StatementTypes {
		if _, ok := statements[st]; ok {
			names = append(names, st.String())
		}
	}
	return ingest.Entries(statements), names, nil
}

// =============================================================================
// ANALYSIS
// =============================================================================

func (o *Orchestrator) analyze(ctx context.Context, r *run) (*Result, error) {
	if err := o.stage(r, StageRatios, func() error {
		ratios, err := calc.NewEngine(r.store).Compute()
		r.ratios = ratios
		var insufficient *calc.InsufficientDataError
		if errors.As(err, &insufficient) {
			r.warn("未能提取任何可辨識的財務數據，分析結果以預設值呈現")
			return nil
		}
		return err
	}); err != nil {
		return nil, err
	}
	r.view = narrative.NewView(r.store, r.ratios)
	r.result.Indicators = map[string]float64(r.view)

	_ = o.stage(r, StageNarrative, func() error {
		report := o.evaluator.Evaluate(r.view)
		r.result.Report = report
		r.result.Verdict = report.Verdict
		r.result.Defaulted = report.Defaulted()
		return nil
	})
	_ = o.stage(r, StageSummary, func() error {
		r.result.FinancialSummary = narrative.Summary(r.view)
		r.result.Summary = r.result.FinancialSummary
		return nil
	})

	if o.llm != nil && o.cfg.LLM != LLMOff {
		if err := o.refine(ctx, r); err != nil {
			return nil, err
		}
	}

	r.result.Analysis = r.result.Report.Analysis()
	r.result.Rendered = r.result.Report.Render()

	if o.repo != nil {
		if err := o.stage(r, StagePersist, func() error { return o.persist(ctx, r) }); err != nil {
			return nil, err
		}
	}

	r.log.Info().
		Str("id", r.result.ID).
		Str("verdict", string(r.result.Verdict)).
		Int("warnings", len(r.result.Warnings)).
		Msg("analysis complete")
	return r.result, nil
}

func (o *Orchestrator) persist(ctx context.Context, r *run) error {
	rec := store.NewRecord()
	r.result.ID = rec.ID
	r.result.CreatedAt = rec.CreatedAt

	body, err := json.Marshal(r.result)
	if err != nil {
		r.result.ID, r.result.CreatedAt = "", time.Time{}
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	rec.FileName = r.result.Source
	rec.Format = r.result.Format
	rec.Verdict = string(r.result.Verdict)
	rec.Provider = r.result.Provider
	rec.Warnings = r.result.Warnings
	rec.Report = body
	if err := o.repo.Save(ctx, rec); err != nil {
		r.result.ID, r.result.CreatedAt = "", time.Time{}
		return err
	}
	return nil
}

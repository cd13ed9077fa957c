// Package analyze serves the report endpoints: document upload, pasted text,
// pre-extracted metrics and stored report lookup.
package analyze

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"finreport_analyzer/pkg/api/respond"
	"finreport_analyzer/pkg/core/ingest"
	"finreport_analyzer/pkg/core/narrative"
	"finreport_analyzer/pkg/core/pipeline"
	"finreport_analyzer/pkg/core/store"
	"finreport_analyzer/pkg/core/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultMaxUpload bounds multipart uploads.
const DefaultMaxUpload = 32 << 20

// Analyzer runs one analysis. *pipeline.Orchestrator implements it.
type Analyzer interface {
	RunDocument(ctx context.Context, name string, data []byte) (*pipeline.Result, error)
	RunText(ctx context.Context, text string) (*pipeline.Result, error)
	RunMetrics(ctx context.Context, metrics map[string]float64) (*pipeline.Result, error)
}

type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

type MetricsRequest struct {
	Metrics map[string]float64 `json:"metrics" validate:"required,min=1"`
}

// Response is the body of a successful analysis.
type Response struct {
	ID         string             `json:"id,omitempty"`
	Summary    string             `json:"summary"`
	Indicators map[string]float64 `json:"indicators"`
	Analysis   map[string]string  `json:"analysis"`
	// AnalysisHTML holds the sections rendered from markdown, on ?format=html.
	AnalysisHTML map[string]string      `json:"analysis_html,omitempty"`
	Report       string                 `json:"report"`
	Verdict      narrative.Verdict      `json:"verdict"`
	Provider     string                 `json:"provider,omitempty"`
	Defaulted    []string               `json:"defaulted,omitempty"`
	Unrecognized []string               `json:"unrecognized,omitempty"`
	Warnings     []string               `json:"warnings"`
	Timings      []pipeline.StageTiming `json:"timings,omitempty"`
}

// Handler holds dependencies for the analysis endpoints
type Handler struct {
	analyzer  Analyzer
	reports   store.ReportRepository
	validate  *validator.Validate
	maxUpload int64
	log       zerolog.Logger
}

// NewHandler creates a handler. reports may be nil, in which case report
// lookup answers 404.
func NewHandler(analyzer Analyzer, reports store.ReportRepository, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		reports:   reports,
		validate:  validator.New(),
		maxUpload: DefaultMaxUpload,
		log:       log.With().Str("component", "analyze").Logger(),
	}
}

// WithMaxUpload sets the upload limit in bytes.
func (h *Handler) WithMaxUpload(n int64) *Handler {
	if n > 0 {
		h.maxUpload = n
	}
	return h
}

// Routes mounts the handlers on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/analyze", h.HandleUpload)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", h.HandleUpload)
		r.Post("/analyze/text", h.HandleText)
		r.Post("/analyze/metrics", h.HandleMetrics)
		r.Get("/reports", h.HandleListReports)
		r.Get("/reports/{id}", h.HandleGetReport)
	})
}

// =============================================================================
// ANALYSIS
// =============================================================================

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respond.Error(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}

	// a file part sent with filename="" is parsed as a plain form value
	if r.MultipartForm != nil && len(r.MultipartForm.File["file"]) == 0 {
		if _, ok := r.MultipartForm.Value["file"]; ok {
			respond.Error(w, http.StatusBadRequest, "FILE_MISSING", "未選擇檔案")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "FILE_MISSING", "未找到檔案")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
		respond.Error(w, http.StatusBadRequest, "UNSUPPORTED_FILE", "請上傳 PDF 檔案")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}
	h.log.Info().Str("file", header.Filename).Int("bytes", len(data)).Msg("document received")

	res, err := h.analyzer.RunDocument(r.Context(), header.Filename, data)
	h.reply(w, r, res, err)
}

func (h *Handler) HandleText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.analyzer.RunText(r.Context(), req.Text)
	h.reply(w, r, res, err)
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.analyzer.RunMetrics(r.Context(), req.Metrics)
	h.reply(w, r, res, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := respond.Decode(r, v); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return false
	}
	return true
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, res *pipeline.Result, err error) {
	if err != nil {
		status, code := classify(err)
		h.log.Error().Err(err).Int("status", status).Str("code", code).Msg("analysis failed")
		respond.Error(w, status, code, err.Error())
		return
	}

	resp := Response{
		ID:           res.ID,
		Summary:      res.Summary,
		Indicators:   res.Indicators,
		Analysis:     res.Analysis,
		Report:       res.Rendered,
		Verdict:      res.Verdict,
		Provider:     res.Provider,
		Defaulted:    res.Defaulted,
		Unrecognized: res.Unrecognized,
		Warnings:     res.Warnings,
		Timings:      res.Timings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if r.URL.Query().Get("format") == "html" {
		resp.AnalysisHTML = make(map[string]string, len(res.Analysis))
		for key, text := range res.Analysis {
			html, err := utils.RenderHTML(text)
			if err != nil {
				h.log.Warn().Err(err).Str("section", key).Msg("markdown render failed")
				continue
			}
			resp.AnalysisHTML[key] = html
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}

// classify maps a pipeline failure to a status and error code. Problems
// with the input are client errors; everything downstream is a 500.
func classify(err error) (int, string) {
	var stageErr *pipeline.StageError
	var docErr *ingest.DocumentError
	var unrecognized *ingest.UnrecognizedStatementError
	switch {
	case errors.Is(err, ingest.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT"
	case errors.As(err, &unrecognized):
		return http.StatusBadRequest, "UNRECOGNIZED_STATEMENT"
	case errors.As(err, &docErr):
		return http.StatusInternalServerError, "PARSE_FAILED"
	case errors.As(err, &stageErr):
		return http.StatusInternalServerError, strings.ToUpper(string(stageErr.Stage)) + "_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", "report storage is disabled")
		return
	}
	rec, err := h.reports.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrInvalidID):
		respond.Error(w, http.StatusBadRequest, "INVALID_ID", err.Error())
	case errors.Is(err, store.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case err != nil:
		h.log.Error().Err(err).Msg("report lookup failed")
		respond.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
	default:
		respond.JSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respond.JSON(w, http.StatusOK, []store.Record{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}
	recs, err := h.reports.List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("report listing failed")
		respond.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	respond.JSON(w, http.StatusOK, recs)
}

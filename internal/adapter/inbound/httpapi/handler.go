// Package httpapi serves conversions over plain HTTP next to the MCP SSE
// endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/i2y/camelconv/internal/domain"
	"github.com/i2y/camelconv/internal/usecase"
)

// maxBodySize bounds request documents.
const maxBodySize = 8 << 20

// Converter runs a conversion. *usecase.ConvertUseCase satisfies it.
type Converter interface {
	Execute(ctx context.Context, req usecase.ConvertRequest) (usecase.ConversionReport, error)
}

// ArtifactCache reads back and clears artifacts saved by earlier conversions.
type ArtifactCache interface {
	Get(ctx context.Context, name string) (domain.Artifact, error)
	List(ctx context.Context) ([]domain.Artifact, error)
	Reset()
}

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	converter Converter
	artifacts ArtifactCache
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers struct. artifacts may be nil, in which
// case the /artifacts routes are not registered.
func NewHandlers(converter Converter, artifacts ArtifactCache, logger *slog.Logger) *Handlers {
	return &Handlers{
		converter: converter,
		artifacts: artifacts,
		logger:    logger.With("component", "httpapi_handler"),
	}
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /convert", h.handleConvert)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.artifacts != nil {
		mux.HandleFunc("GET /artifacts", h.handleListArtifacts)
		mux.HandleFunc("GET /artifacts/{name}", h.handleGetArtifact)
		mux.HandleFunc("DELETE /artifacts", h.handleResetArtifacts)
	}
}

// ConvertRequest is the JSON form of POST /convert.
type ConvertRequest struct {
	XML     string   `json:"xml"`
	Targets []string `json:"targets"`
}

// ArtifactBody is one rendered artifact in a JSON response.
type ArtifactBody struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Content   string `json:"content"`
}

// ConvertResponse is the JSON answer to a JSON POST /convert.
type ConvertResponse struct {
	usecase.ConversionReport
	Rendered []ArtifactBody `json:"rendered"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleConvert implements POST /convert. An XML body renders the single
// target named by the "target" query parameter and answers with the artifact
// itself; a JSON body may request several targets and gets a report back.
func (h *Handlers) handleConvert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.logger.Warn("Failed to read convert request body", slog.Any("error", err))
		h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		h.convertJSON(w, r, body)
		return
	}
	h.convertXML(w, r, body)
}

func (h *Handlers) convertXML(w http.ResponseWriter, r *http.Request, body []byte) {
	name := r.URL.Query().Get("target")
	if name == "" {
		name = string(usecase.TargetJava)
	}
	target, err := usecase.ParseTarget(name)
	if err == nil && target == usecase.TargetAll {
		err = fmt.Errorf("target %q needs a JSON request", name)
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body) == 0 && target != usecase.TargetSkeleton {
		h.writeError(w, http.StatusBadRequest, usecase.ErrEmptySource)
		return
	}

	log := h.logger.With(slog.String("target", string(target)))
	log.Info("Received convert request", slog.Int("bytes", len(body)))

	report, err := h.converter.Execute(r.Context(), usecase.ConvertRequest{Data: body, Targets: []usecase.Target{target}})
	if err != nil {
		log.Warn("Conversion failed", slog.Any("error", err))
		h.writeError(w, statusFor(err), err)
		return
	}
	if len(report.Rendered) == 0 {
		h.writeError(w, http.StatusInternalServerError, errors.New("conversion produced no output"))
		return
	}

	a := report.Rendered[0]
	setReportHeaders(w, report)
	w.Header().Set("Content-Type", a.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Content)
}

func (h *Handlers) convertJSON(w http.ResponseWriter, r *http.Request, body []byte) {
	var req ConvertRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("Failed to decode convert request body", slog.Any("error", err))
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	targets := make([]usecase.Target, 0, len(req.Targets))
	for _, name := range req.Targets {
		target, err := usecase.ParseTarget(name)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		targets = []usecase.Target{usecase.TargetAll}
	}

	var data []byte
	if req.XML != "" {
		data = []byte(req.XML)
	}
	report, err := h.converter.Execute(r.Context(), usecase.ConvertRequest{Data: data, Targets: targets})
	if err != nil {
		h.logger.Warn("Conversion failed", slog.Any("error", err))
		h.writeError(w, statusFor(err), err)
		return
	}

	resp := ConvertResponse{ConversionReport: report, Rendered: make([]ArtifactBody, 0, len(report.Rendered))}
	for _, a := range report.Rendered {
		resp.Rendered = append(resp.Rendered, ArtifactBody{Name: a.Name, MediaType: a.MediaType, Content: string(a.Content)})
	}
	setReportHeaders(w, report)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.artifacts.List(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"artifacts": names})
}

func (h *Handlers) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := h.artifacts.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		if errors.Is(err, usecase.ErrArtifactNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", a.MediaType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Content)
}

func (h *Handlers) handleResetArtifacts(w http.ResponseWriter, _ *http.Request) {
	h.artifacts.Reset()
	h.logger.Info("Cleared stored artifacts")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps conversion errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnknownTarget), errors.Is(err, usecase.ErrEmptySource):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDocumentMalformed),
		errors.Is(err, domain.ErrMissingSource),
		errors.Is(err, domain.ErrMissingRequiredChild),
		errors.Is(err, domain.ErrInvalidEndpointFormat):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func setReportHeaders(w http.ResponseWriter, report usecase.ConversionReport) {
	w.Header().Set("X-Camelconv-Routes", strconv.Itoa(report.RoutesParsed))
	if report.Recovered() {
		w.Header().Set("X-Camelconv-Failures", strconv.Itoa(len(report.Failures)))
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response", slog.Any("error", err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

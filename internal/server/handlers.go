package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/avelar/sitegauge/internal/metrics"
	"github.com/avelar/sitegauge/internal/pipeline"
	"github.com/avelar/sitegauge/internal/store"
	"github.com/avelar/sitegauge/internal/types"
)

// RouteInput is one route of a run request.
type RouteInput struct {
	ID   string `json:"id"`
	Path string `json:"path" validate:"required"`
	Name string `json:"name,omitempty"`
}

// RunRequest represents the request body for /api/runs
type RunRequest struct {
	URL        string       `json:"url" validate:"required,url"`
	Strategy   string       `json:"strategy,omitempty" validate:"omitempty,oneof=mobile desktop"`
	Routes     []RouteInput `json:"routes,omitempty" validate:"dive"`
	Screenshot bool         `json:"screenshot,omitempty"`
}

// Validate validates the RunRequest using the validator.
func (r *RunRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

func (r *RunRequest) runOptions(delay time.Duration) pipeline.RunOptions {
	routes := make([]types.RouteConfig, 0, len(r.Routes))
	for _, in := range r.Routes {
		id := in.ID
		if id == "" {
			id = strings.Trim(strings.ReplaceAll(in.Path, "/", "-"), "-")
			if id == "" {
				id = "home"
			}
		}
		routes = append(routes, types.RouteConfig{ID: id, Path: in.Path, Name: in.Name})
	}
	return pipeline.RunOptions{
		BaseURL:    r.URL,
		Strategy:   types.Strategy(r.Strategy),
		Routes:     routes,
		Delay:      delay,
		Screenshot: r.Screenshot,
	}
}

// ResultsResponse wraps a result list with the tier that served it.
type ResultsResponse struct {
	Results []types.RunResult `json:"results"`
	Origin  store.Origin      `json:"origin"`
}

// handleCreateRun runs a full audit synchronously and returns the
// aggregated result. Clients wanting progress use the stream variant.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run request: "+err.Error())
		return
	}

	out, err := s.runner.Run(r.Context(), req.runOptions(s.auditDelay))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, out)
}

// handleRunStream runs an audit while streaming progress over SSE.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run request: "+err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := req.runOptions(s.auditDelay)
	opts.OnProgress = func(ev pipeline.ProgressEvent) {
		sse.WriteEvent("progress", ev) //nolint:errcheck
	}

	out, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(out)
}

// handleListResults returns stored results, optionally filtered by the
// domain query parameter, newest first.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")

	results, origin, err := s.store.GetResultsByDomain(r.Context(), domain)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if results == nil {
		results = []types.RunResult{}
	}
	s.jsonResponse(w, http.StatusOK, ResultsResponse{Results: results, Origin: origin})
}

// handleGetResult returns one stored result by id.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.errorResponse(w, http.StatusBadRequest, "Result ID is required")
		return
	}

	res, origin, err := s.store.GetResultByID(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"result": res, "origin": origin})
}

// handleListDomains returns the distinct audited domains.
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, origin, err := s.store.GetAllDomains(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if domains == nil {
		domains = []string{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"domains": domains, "origin": origin})
}

// ComparedResult is one non-base run in a comparison, with its score
// deltas against the base run.
type ComparedResult struct {
	Result *types.RunResult   `json:"result"`
	Deltas metrics.ScoreDelta `json:"deltas"`
}

// CompareResponse holds a base run and the runs compared against it.
type CompareResponse struct {
	Base   *types.RunResult `json:"base"`
	Others []ComparedResult `json:"others"`
}

// handleCompare diffs the average scores of two or more stored runs,
// given as ?ids=<base>,<other>[,...]. Deltas are relative to the first.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	if len(ids) < 2 {
		s.errorResponse(w, http.StatusBadRequest, "ids must name at least two result ids, comma separated")
		return
	}
	for _, id := range ids {
		if id == "" {
			s.errorResponse(w, http.StatusBadRequest, "ids must not contain empty entries")
			return
		}
	}

	base, _, err := s.store.GetResultByID(r.Context(), ids[0])
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp := CompareResponse{Base: base, Others: make([]ComparedResult, 0, len(ids)-1)}
	for _, id := range ids[1:] {
		other, _, err := s.store.GetResultByID(r.Context(), id)
		if err != nil {
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		resp.Others = append(resp.Others, ComparedResult{
			Result: other,
			Deltas: metrics.Diff(base.AvgScores, other.AvgScores),
		})
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetRaw serves the stored raw audit response for one route.
func (s *Server) handleGetRaw(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		s.errorResponse(w, http.StatusNotFound, "artifact storage not configured")
		return
	}
	id, route := r.PathValue("id"), r.PathValue("route")

	raw, err := s.artifacts.GetRaw(r.Context(), id, route)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "raw response not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw) //nolint:errcheck
}

// handleGetScreenshot serves the run's preview image.
func (s *Server) handleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		s.errorResponse(w, http.StatusNotFound, "artifact storage not configured")
		return
	}

	png, err := s.artifacts.GetScreenshot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "screenshot not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png) //nolint:errcheck
}

// handlePageMeta fetches title/description metadata for ?url=.
func (s *Server) handlePageMeta(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	if s.meta == nil {
		s.errorResponse(w, http.StatusNotFound, "page metadata not available")
		return
	}

	meta, err := s.meta.Fetch(r.Context(), url)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, meta)
}

// handleStorageStatus probes the remote store and reports why it is
// unusable, if it is.
func (s *Server) handleStorageStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	s.jsonResponse(w, http.StatusOK, s.store.TestConnection(ctx))
}

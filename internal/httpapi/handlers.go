package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/newsrank/internal/db"
	"horse.fit/newsrank/internal/engine"
	"horse.fit/newsrank/internal/globaltime"
	payloadschema "horse.fit/newsrank/schema"
)

type rankResponse struct {
	Results []engine.RankedArticle `json:"results"`
	Report  engine.Report          `json:"report"`
}

func (s *Server) handleRank(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Failed to read request body", nil)
	}

	batch, err := payloadschema.ValidateArticleBatch(json.RawMessage(body))
	if err != nil {
		return failValidation(c, map[string]string{"payload": err.Error()})
	}

	opts := engine.DefaultOptions()
	opts.Preset = s.opts.DefaultPreset
	opts.Limit = s.opts.DefaultLimit
	opts.DiversityCap = s.opts.DiversityCap

	if preset := strings.TrimSpace(c.QueryParam("preset")); preset != "" {
		opts.Preset = preset
	}
	opts.Limit, err = parseBoundedInt(c.QueryParam("limit"), opts.Limit, 1, s.opts.MaxLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	opts.Offset, err = parseBoundedInt(c.QueryParam("offset"), 0, 0, 1<<30)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}
	opts.DiversityCap, err = parseBoundedInt(c.QueryParam("diversity_cap"), opts.DiversityCap, 0, 1000)
	if err != nil {
		return failValidation(c, map[string]string{"diversity_cap": err.Error()})
	}

	ranked, report, err := s.engine.Rank(c.Request().Context(), batch.EngineArticles(), opts)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownPreset) {
			return failValidation(c, map[string]string{"preset": err.Error()})
		}
		s.logger.Error().Err(err).Msg("ranking run failed")
		return internalError(c, "Ranking failed")
	}

	s.auditRun(c, report)

	if ranked == nil {
		ranked = []engine.RankedArticle{}
	}
	return success(c, rankResponse{Results: ranked, Report: report})
}

// auditRun persists the run report when a database is configured.
// Audit failures are logged, never surfaced to the caller.
func (s *Server) auditRun(c echo.Context, report engine.Report) {
	if s.pool == nil {
		return
	}
	if _, err := s.pool.InsertRankingRun(c.Request().Context(), report); err != nil {
		s.logger.Error().Err(err).Msg("ranking run audit failed")
	}
}

type presetItem struct {
	Name    string               `json:"name"`
	Weights engine.PresetWeights `json:"weights"`
}

func (s *Server) handlePresets(c echo.Context) error {
	presets := s.engine.Presets()
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]presetItem, 0, len(names))
	for _, name := range names {
		items = append(items, presetItem{Name: name, Weights: presets[name]})
	}
	return success(c, map[string]any{
		"items":   items,
		"default": s.opts.DefaultPreset,
	})
}

func (s *Server) handleSources(c echo.Context) error {
	if s.registry == nil {
		return success(c, map[string]any{"items": []any{}})
	}

	var items any
	switch strings.TrimSpace(c.QueryParam("filter")) {
	case "", "all":
		items = s.registry.All()
	case "active":
		items = s.registry.Active()
	default:
		tier := strings.TrimSpace(c.QueryParam("filter"))
		items = s.registry.ByTier(tier)
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleSourceStats(c echo.Context) error {
	if s.registry == nil {
		return success(c, map[string]any{})
	}
	return success(c, s.registry.Stats())
}

func (s *Server) handleReactivate(c echo.Context) error {
	if s.registry == nil {
		return failNotFound(c, "Source registry is not configured")
	}

	sourceID := strings.TrimSpace(c.Param("source_id"))
	if sourceID == "" {
		return failValidation(c, map[string]string{"source_id": "must not be empty"})
	}
	if !s.registry.Reactivate(sourceID) {
		return failNotFound(c, "Source not found or blacklisted")
	}

	src, _ := s.registry.Get(sourceID)
	if s.pool != nil {
		if err := s.pool.SaveSourceHealth(c.Request().Context(), src); err != nil {
			s.logger.Error().Err(err).Str("source_id", sourceID).Msg("persisting source health failed")
		}
	}
	return success(c, src)
}

func (s *Server) handleRuns(c echo.Context) error {
	if s.pool == nil {
		return failNotFound(c, "Run auditing requires a configured database")
	}

	limit, err := parseBoundedInt(c.QueryParam("limit"), 20, 1, 500)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	runs, err := s.pool.RecentRankingRuns(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("listing ranking runs failed")
		return internalError(c, "Failed to list ranking runs")
	}
	if runs == nil {
		runs = []db.RankingRun{}
	}
	return success(c, map[string]any{"items": runs})
}

func (s *Server) handleHealth(c echo.Context) error {
	data := map[string]any{
		"service": "newsrank",
		"time":    globaltime.UTC(),
	}
	if s.pool != nil {
		if err := s.pool.Ping(c.Request().Context()); err != nil {
			data["database"] = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, jsendResponse{
				Status:  "error",
				Message: "database unreachable",
				Data:    data,
				Code:    http.StatusServiceUnavailable,
			})
		}
		data["database"] = "ok"
	}
	return success(c, data)
}

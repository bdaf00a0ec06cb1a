package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-seo-audit-backend/internal/domain"
	"github.com/tbourn/go-seo-audit-backend/internal/llm"
	"github.com/tbourn/go-seo-audit-backend/internal/notify"
	"github.com/tbourn/go-seo-audit-backend/internal/repo"
	"github.com/tbourn/go-seo-audit-backend/internal/scrape"
)

// serpResultLimit is how many search results stage two analyzes.
const serpResultLimit = 10

// Scraper fetches page content for stage one.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Page, error)
}

// Searcher fetches live search results for stage two.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]scrape.SearchResult, error)
}

// Service runs the audit pipeline end to end.
type Service struct {
	DB       *gorm.DB
	Backend  llm.Backend
	Scraper  Scraper
	Searcher Searcher
	Hub      *notify.Hub
	Retrier  *llm.Retrier
}

// NewService wires a pipeline service from its collaborators.
func NewService(db *gorm.DB, backend llm.Backend, scraper Scraper, searcher Searcher, hub *notify.Hub, retrier *llm.Retrier) *Service {
	return &Service{
		DB:       db,
		Backend:  backend,
		Scraper:  scraper,
		Searcher: searcher,
		Hub:      hub,
		Retrier:  retrier,
	}
}

// Run executes the full pipeline for rawURL under requestID. It persists the
// audit record, streams progress events for requestID, and returns the
// final result. Terminal events (audit_completed or audit_error) are
// published before Run returns.
func (s *Service) Run(ctx context.Context, requestID, rawURL string) (*Result, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx = notify.WithRequestID(ctx, requestID)
	lg := log.With().Str("request_id", requestID).Str("url", target).Logger()

	if _, err := repo.CreateAudit(ctx, s.DB, requestID, target); err != nil {
		return nil, fmt.Errorf("create audit record: %w", err)
	}
	if err := repo.MarkAuditRunning(ctx, s.DB, requestID); err != nil {
		return nil, fmt.Errorf("mark audit running: %w", err)
	}
	s.Hub.Emit(ctx, "", notify.EventAuditStarted, map[string]any{"url": target})
	lg.Info().Msg("audit started")

	result, runErr := s.runStages(ctx, target)
	if runErr != nil {
		lg.Error().Err(runErr).Msg("audit failed")
		auditsTotal.WithLabelValues(domain.AuditStatusError).Inc()
		if derr := repo.MarkAuditError(ctx, s.DB, requestID, runErr.Error()); derr != nil {
			lg.Error().Err(derr).Msg("record audit failure")
		}
		s.Hub.Emit(ctx, "", notify.EventAuditError, map[string]any{"message": runErr.Error()})
		return nil, runErr
	}

	if err := repo.MarkAuditSuccess(ctx, s.DB, requestID, result.Title, result.Summary, result.Report); err != nil {
		lg.Error().Err(err).Msg("record audit success")
	}
	auditsTotal.WithLabelValues(domain.AuditStatusSuccess).Inc()
	s.Hub.Emit(ctx, "", notify.EventAuditCompleted, map[string]any{
		"title":   result.Title,
		"summary": result.Summary,
	})
	lg.Info().Msg("audit completed")
	return result, nil
}

// runStages performs the three model stages against the normalized URL.
func (s *Service) runStages(ctx context.Context, target string) (*Result, error) {
	pageAudit, err := s.auditPage(ctx, target)
	if err != nil {
		return nil, err
	}

	serp, err := s.analyzeSerp(ctx, target, pageAudit.TargetKeywords.PrimaryKeyword)
	if err != nil {
		return nil, err
	}

	report, err := s.advise(ctx, pageAudit, serp)
	if err != nil {
		return nil, err
	}

	return &Result{
		URL:             target,
		Title:           AuditTitle(pageAudit.TargetKeywords.PrimaryKeyword, target),
		Report:          report,
		Summary:         ExtractSummary(report),
		Recommendations: ExtractRecommendations(report),
		PageAudit:       *pageAudit,
		Serp:            *serp,
	}, nil
}

// auditPage scrapes the target and runs the page audit stage.
func (s *Service) auditPage(ctx context.Context, target string) (*PageAudit, error) {
	start := time.Now()
	defer func() {
		auditStageDuration.WithLabelValues(StagePageAuditor).Observe(time.Since(start).Seconds())
	}()

	page, err := s.Scraper.Scrape(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", target, err)
	}

	input, err := json.Marshal(map[string]any{
		"url":      target,
		"markdown": page.Markdown,
		"html":     page.HTML,
		"links":    page.Links,
		"metadata": page.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var out PageAudit
	err = s.Retrier.Do(ctx, StagePageAuditor, func(ctx context.Context) error {
		resp, gerr := s.Backend.Generate(ctx, llm.GenerateRequest{
			Instruction:    pageAuditorInstruction,
			Input:          string(input),
			ResponseSchema: pageAuditSchema,
		})
		if gerr != nil {
			return gerr
		}
		return json.Unmarshal([]byte(resp.Text), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("page audit stage: %w", err)
	}
	if strings.TrimSpace(out.TargetKeywords.PrimaryKeyword) == "" {
		return nil, errors.New("page audit stage: model returned no primary keyword")
	}
	return &out, nil
}

// analyzeSerp searches for the primary keyword and runs the SERP stage.
func (s *Service) analyzeSerp(ctx context.Context, target, keyword string) (*SerpAnalysis, error) {
	start := time.Now()
	defer func() {
		auditStageDuration.WithLabelValues(StageSerpAnalyst).Observe(time.Since(start).Seconds())
	}()

	hits, err := s.Searcher.Search(ctx, keyword, serpResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}

	ranked := make([]SerpResult, 0, len(hits))
	for i, h := range hits {
		ranked = append(ranked, SerpResult{Rank: i + 1, Title: h.Title, URL: h.URL, Snippet: h.Snippet})
	}

	input, err := json.Marshal(map[string]any{
		"audited_url": target,
		"keyword":     keyword,
		"results":     ranked,
	})
	if err != nil {
		return nil, err
	}

	var out SerpAnalysis
	err = s.Retrier.Do(ctx, StageSerpAnalyst, func(ctx context.Context) error {
		resp, gerr := s.Backend.Generate(ctx, llm.GenerateRequest{
			Instruction:    serpAnalystInstruction,
			Input:          string(input),
			ResponseSchema: serpAnalysisSchema,
		})
		if gerr != nil {
			return gerr
		}
		return json.Unmarshal([]byte(resp.Text), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("serp analysis stage: %w", err)
	}
	return &out, nil
}

// advise runs the final report stage and returns the Markdown report.
func (s *Service) advise(ctx context.Context, pageAudit *PageAudit, serp *SerpAnalysis) (string, error) {
	start := time.Now()
	defer func() {
		auditStageDuration.WithLabelValues(StageOptimizationAdvisor).Observe(time.Since(start).Seconds())
	}()

	input, err := json.Marshal(map[string]any{
		"page_audit":    pageAudit,
		"serp_analysis": serp,
	})
	if err != nil {
		return "", err
	}

	var report string
	err = s.Retrier.Do(ctx, StageOptimizationAdvisor, func(ctx context.Context) error {
		resp, gerr := s.Backend.Generate(ctx, llm.GenerateRequest{
			Instruction: optimizationAdvisorInstruction,
			Input:       string(input),
		})
		if gerr != nil {
			return gerr
		}
		report = resp.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("optimization advisor stage: %w", err)
	}
	if strings.TrimSpace(report) == "" {
		return "", errors.New("optimization advisor stage: model returned empty report")
	}
	return report, nil
}

// Get returns the persisted audit for requestID.
func (s *Service) Get(ctx context.Context, requestID string) (*domain.Audit, error) {
	a, err := repo.GetAuditByRequestID(ctx, s.DB, requestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAuditNotFound
	}
	return a, err
}

// ListPage returns one page of audits plus the total count.
func (s *Service) ListPage(ctx context.Context, offset, limit int) ([]domain.Audit, int64, error) {
	total, err := repo.CountAudits(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListAuditsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// NormalizeURL validates rawURL and returns an absolute http(s) URL,
// prepending https:// when no scheme is present.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

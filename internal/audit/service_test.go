package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-seo-audit-backend/internal/domain"
	"github.com/tbourn/go-seo-audit-backend/internal/llm"
	"github.com/tbourn/go-seo-audit-backend/internal/notify"
	"github.com/tbourn/go-seo-audit-backend/internal/scrape"
)

type scriptedCall struct {
	text string
	err  error
}

// fakeBackend pops one scripted response per Generate call.
type fakeBackend struct {
	calls []scriptedCall
	seen  []llm.GenerateRequest
}

func (f *fakeBackend) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.seen = append(f.seen, req)
	if len(f.calls) == 0 {
		return nil, errors.New("unexpected Generate call")
	}
	c := f.calls[0]
	f.calls = f.calls[1:]
	if c.err != nil {
		return nil, c.err
	}
	return &llm.GenerateResponse{Text: c.text}, nil
}

type fakeScraper struct {
	page *scrape.Page
	err  error
}

func (f *fakeScraper) Scrape(context.Context, string) (*scrape.Page, error) {
	return f.page, f.err
}

type fakeSearcher struct {
	results []scrape.SearchResult
	err     error
}

func (f *fakeSearcher) Search(context.Context, string, int) ([]scrape.SearchResult, error) {
	return f.results, f.err
}

const pageAuditJSON = `{
  "audit_results": {
    "title_tag": "Best Running Shoes 2026",
    "meta_description": "",
    "primary_heading": "Best Running Shoes",
    "secondary_headings": [{"tag": "h2", "text": "Road shoes"}],
    "word_count": 850,
    "content_summary": "A short buying guide.",
    "link_counts": {"internal": 4, "external": 2, "total": 6},
    "technical_findings": ["missing meta description"],
    "content_opportunities": ["trail shoes"]
  },
  "target_keywords": {
    "primary_keyword": "best running shoes",
    "secondary_keywords": ["running shoe guide"],
    "search_intent": "commercial",
    "supporting_topics": ["cushioning"]
  }
}`

const serpJSON = `{
  "keyword": "best running shoes",
  "results": [{"rank": 1, "title": "A", "url": "https://a", "snippet": "s"}],
  "patterns": {"format": "listicle"},
  "insights": ["competitors publish listicles"]
}`

const reportMarkdown = `## Executive Summary
Solid page, weak metadata.

## Technical & On-Page Findings
- missing meta description

## Keyword Analysis
Commercial intent.

## Competitive SERP Analysis
Listicles dominate.

## Prioritized Recommendations
- **P0** Add a meta description

## Next Steps
1. Ship metadata fixes
`

func newTestService(t *testing.T, backend llm.Backend, scraper Scraper, searcher Searcher) (*Service, *notify.Hub) {
	t.Helper()

	dsn := fmt.Sprintf("file:auditsvc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Audit{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := notify.NewHub()
	return NewService(db, backend, scraper, searcher, hub, llm.NewRetrier(hub)), hub
}

func okScraper() *fakeScraper {
	return &fakeScraper{page: &scrape.Page{
		Markdown: "# Best Running Shoes",
		HTML:     "<title>Best Running Shoes 2026</title>",
		Links:    []string{"https://example.com/road"},
		Metadata: scrape.PageMetadata{Title: "Best Running Shoes 2026", StatusCode: 200},
	}}
}

func okSearcher() *fakeSearcher {
	return &fakeSearcher{results: []scrape.SearchResult{
		{Title: "A", URL: "https://a", Snippet: "s"},
	}}
}

func TestServiceRun_Success(t *testing.T) {
	backend := &fakeBackend{calls: []scriptedCall{
		{text: pageAuditJSON},
		{text: serpJSON},
		{text: reportMarkdown},
	}}
	svc, hub := newTestService(t, backend, okScraper(), okSearcher())

	ch := hub.Register("req-ok")
	res, err := svc.Run(context.Background(), "req-ok", "example.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Title != "SEO Audit: Best Running Shoes" {
		t.Fatalf("title = %q", res.Title)
	}
	if !strings.Contains(res.Summary, "weak metadata") {
		t.Fatalf("summary = %q", res.Summary)
	}
	if len(res.Recommendations) != 1 || !strings.Contains(res.Recommendations[0], "P0") {
		t.Fatalf("recommendations = %v", res.Recommendations)
	}
	if res.Serp.Keyword != "best running shoes" {
		t.Fatalf("serp = %+v", res.Serp)
	}

	// URL was normalized before any stage ran.
	a, err := svc.Get(context.Background(), "req-ok")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.URL != "https://example.com" {
		t.Fatalf("stored url = %q", a.URL)
	}
	if a.Status != domain.AuditStatusSuccess {
		t.Fatalf("status = %q", a.Status)
	}

	// Events: started then completed.
	first := <-ch
	if first.Type != notify.EventAuditStarted {
		t.Fatalf("first event = %q", first.Type)
	}
	last := <-ch
	if last.Type != notify.EventAuditCompleted {
		t.Fatalf("second event = %q", last.Type)
	}
	if last.Payload["title"] != "SEO Audit: Best Running Shoes" {
		t.Fatalf("completed payload = %v", last.Payload)
	}

	// Stage three gets no schema; stages one and two do.
	if backend.seen[0].ResponseSchema == nil || backend.seen[1].ResponseSchema == nil {
		t.Fatal("structured stages missing response schema")
	}
	if backend.seen[2].ResponseSchema != nil {
		t.Fatal("advisor stage should be free-form")
	}
}

func TestServiceRun_InvalidURL(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, okScraper(), okSearcher())

	if _, err := svc.Run(context.Background(), "req-bad", ""); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("err = %v, want ErrEmptyURL", err)
	}
	if _, err := svc.Run(context.Background(), "req-bad2", "ftp://x.example"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("err = %v, want ErrInvalidURL", err)
	}
}

func TestServiceRun_ScrapeFailure(t *testing.T) {
	svc, hub := newTestService(t, &fakeBackend{}, &fakeScraper{err: errors.New("blocked by robots.txt")}, okSearcher())

	ch := hub.Register("req-scrape")
	_, err := svc.Run(context.Background(), "req-scrape", "https://example.com")
	if err == nil || !strings.Contains(err.Error(), "robots.txt") {
		t.Fatalf("err = %v", err)
	}

	a, gerr := svc.Get(context.Background(), "req-scrape")
	if gerr != nil {
		t.Fatalf("Get: %v", gerr)
	}
	if a.Status != domain.AuditStatusError || !strings.Contains(a.ErrorMessage, "robots.txt") {
		t.Fatalf("audit = %+v", a)
	}

	<-ch // started
	ev := <-ch
	if ev.Type != notify.EventAuditError {
		t.Fatalf("event = %q", ev.Type)
	}
}

func TestServiceRun_FatalModelError(t *testing.T) {
	backend := &fakeBackend{calls: []scriptedCall{
		{err: errors.New("400 INVALID_ARGUMENT: bad request")},
	}}
	svc, _ := newTestService(t, backend, okScraper(), okSearcher())

	_, err := svc.Run(context.Background(), "req-fatal", "https://example.com")
	if err == nil || !strings.Contains(err.Error(), "page audit stage") {
		t.Fatalf("err = %v", err)
	}

	a, _ := svc.Get(context.Background(), "req-fatal")
	if a.Status != domain.AuditStatusError {
		t.Fatalf("status = %q", a.Status)
	}
}

func TestServiceRun_MissingPrimaryKeyword(t *testing.T) {
	backend := &fakeBackend{calls: []scriptedCall{
		{text: `{"audit_results":{"link_counts":{}},"target_keywords":{"primary_keyword":""}}`},
	}}
	svc, _ := newTestService(t, backend, okScraper(), okSearcher())

	_, err := svc.Run(context.Background(), "req-nokw", "https://example.com")
	if err == nil || !strings.Contains(err.Error(), "primary keyword") {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, okScraper(), okSearcher())

	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrAuditNotFound) {
		t.Fatalf("err = %v, want ErrAuditNotFound", err)
	}
}

func TestServiceListPage(t *testing.T) {
	backend := &fakeBackend{calls: []scriptedCall{
		{text: pageAuditJSON}, {text: serpJSON}, {text: reportMarkdown},
		{text: pageAuditJSON}, {text: serpJSON}, {text: reportMarkdown},
	}}
	svc, _ := newTestService(t, backend, okScraper(), okSearcher())

	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), fmt.Sprintf("req-%d", i), "https://example.com"); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	items, total, err := svc.ListPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total = %d, items = %d", total, len(items))
	}
}

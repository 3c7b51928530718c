// Package scraper ingests the Azure Architecture Center browse index into the
// local catalog, generating an embedding per architecture as it goes.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/cloudarch/advisor/internal/models"
)

const (
	browsePath      = "/api/contentbrowser/search/architectures"
	defaultPageSize = 30
	requestTimeout  = 30 * time.Second
	defaultRetryMax = 3

	sourceMicrosoft     = "microsoft-official"
	defaultCostTier     = "moderate"
	defaultIndustry     = "General"
	defaultCompliant    = "None"
	defaultCategorySlug = "general"
)

var (
	categorySlugRe = regexp.MustCompile(`/architecture/(.+?)/`)
	wordRe         = regexp.MustCompile(`\w+`)
)

// Store persists scraped architectures.
type Store interface {
	Upsert(ctx context.Context, arch *models.Architecture) error
}

// EmbeddingClient generates an embedding for the given text.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// listingPage is one page of the content browser API response.
type listingPage struct {
	Results  []listingItem `json:"results"`
	NextLink string        `json:"@nextLink"`
}

type listingItem struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Summary         string   `json:"summary"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	DisplayProducts []string `json:"display_products"`
	AzureCategories []string `json:"display_azure_categories"`
	Tags            []string `json:"tags"`
	SearchTags      []string `json:"search_tags"`
}

// Scraper walks the paginated browse index and upserts every architecture it finds.
type Scraper struct {
	baseURL    string
	httpClient *retryablehttp.Client
	embeddings EmbeddingClient
	store      Store
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures the Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the retrying HTTP client used for index requests.
func WithHTTPClient(c *retryablehttp.Client) Option {
	return func(s *Scraper) {
		s.httpClient = c
	}
}

// WithLimiter overrides the per-item pacer.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scraper) {
		s.limiter = l
	}
}

// New creates a Scraper rooted at baseURL (e.g. https://learn.microsoft.com).
// Index requests retry transient upstream failures before surfacing an error.
func New(baseURL string, embeddings EmbeddingClient, store Store, logger *slog.Logger, opts ...Option) *Scraper {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = defaultRetryMax
	retryClient.HTTPClient.Timeout = requestTimeout
	retryClient.Logger = nil // Disable logging by default

	s := &Scraper{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient,
		embeddings: embeddings,
		store:      store,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run scrapes the full index. Embedding failures are logged and the record is
// stored without an embedding; a storage failure aborts the run.
func (s *Scraper) Run(ctx context.Context) error {
	pageURL := fmt.Sprintf("%s%s?locale=en-us&$top=%d", s.baseURL, browsePath, defaultPageSize)

	var total, embedded int

	for pageURL != "" {
		page, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("fetch index page: %w", err)
		}

		for _, item := range page.Results {
			// Pace per item, not per page: the embedding call below is the
			// rate-limited resource.
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}

			arch := s.normalize(item)

			arch.Embedding, err = s.embed(ctx, arch)
			if err != nil {
				s.logger.Warn("embedding failed, storing without embedding",
					"url", arch.URL, "error", err)
			} else {
				embedded++
			}

			if err := s.store.Upsert(ctx, arch); err != nil {
				return fmt.Errorf("store architecture %s: %w", arch.URL, err)
			}

			total++
		}

		pageURL, err = s.resolveNext(page.NextLink)
		if err != nil {
			return err
		}
	}

	s.logger.Info("scrape complete", "stored", total, "embedded", embedded)

	return nil
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (*listingPage, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var page listingPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode index page: %w", err)
	}

	return &page, nil
}

// resolveNext turns the @nextLink continuation (usually relative) into an
// absolute URL, or "" when the index is exhausted.
func (s *Scraper) resolveNext(next string) (string, error) {
	if next == "" {
		return "", nil
	}

	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse @nextLink: %w", err)
	}

	if u.IsAbs() {
		return next, nil
	}

	base, err := url.Parse(s.baseURL + browsePath)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(u).String(), nil
}

func (s *Scraper) normalize(item listingItem) *models.Architecture {
	absURL := item.URL
	if !strings.HasPrefix(absURL, "http") {
		absURL = s.baseURL + absURL
	}

	archType := models.ArchitectureTypeGeneral
	if strings.Contains(absURL, "apps") {
		archType = models.ArchitectureTypeApplication
	}

	categorySlug := defaultCategorySlug
	if m := categorySlugRe.FindStringSubmatch(absURL); len(m) == 2 {
		categorySlug = m[1]
	}

	return &models.Architecture{
		URL:              absURL,
		Title:            item.Title,
		Summary:          item.Summary,
		ThumbnailURL:     item.ThumbnailURL,
		AzureServices:    item.DisplayProducts,
		Categories:       item.AzureCategories,
		Tags:             mergeTags(item.Tags, item.AzureCategories),
		CategorySlug:     categorySlug,
		ArchitectureType: archType,
		Industries:       []string{defaultIndustry},
		Compliance:       []string{defaultCompliant},
		CostTier:         defaultCostTier,
		Complexity:       models.EstimateComplexity(len(item.DisplayProducts)),
		Keywords:         extractKeywords(item.Title + " " + item.Summary),
		SearchTags:       item.SearchTags,
		SourceType:       sourceMicrosoft,
		ScrapedAt:        time.Now().UTC(),
	}
}

func (s *Scraper) embed(ctx context.Context, arch *models.Architecture) ([]float32, error) {
	return s.embeddings.CreateEmbedding(ctx, arch.Title+". "+arch.Summary)
}

func mergeTags(tags, categories []string) []string {
	seen := make(map[string]struct{}, len(tags)+len(categories))
	merged := make([]string, 0, len(tags)+len(categories))

	for _, t := range append(append([]string{}, tags...), categories...) {
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		merged = append(merged, t)
	}

	return merged
}

func extractKeywords(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))

	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}

		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}

	return keywords
}

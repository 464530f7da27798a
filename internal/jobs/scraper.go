package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/marketpulse/trendchat/internal/store"
)

const (
	itemSelector        = ".feed-item"
	titleSelector       = ".title"
	descriptionSelector = ".description"
)

var ErrNoTrends = errors.New("no trend items found on page")

type TrendWriter interface {
	InsertTrends(ctx context.Context, items []store.TrendItem) error
}

// Scraper fetches the trends page and stores every item it finds.
type Scraper struct {
	url    string
	client *http.Client
	trends TrendWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewScraper(url string, client *http.Client, trends TrendWriter, logger *zap.Logger) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	return &Scraper{
		url:    url,
		client: client,
		trends: trends,
		logger: logger,
		now:    time.Now,
	}
}

// Run performs one scrape cycle. Nothing is stored unless the whole page
// parses.
func (s *Scraper) Run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %d", s.url, resp.StatusCode)
	}

	items, err := ParseTrends(resp.Body, s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.trends.InsertTrends(ctx, items); err != nil {
		return fmt.Errorf("store trends: %w", err)
	}

	s.logger.Info("scraped and saved trends", zap.Int("count", len(items)))
	return nil
}

// ParseTrends extracts every feed item from an HTML document. An item
// without a title or description fails the whole document.
func ParseTrends(r io.Reader, capturedAt time.Time) ([]store.TrendItem, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		items    []store.TrendItem
		parseErr error
	)
	doc.Find(itemSelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		title := sel.Find(titleSelector).First()
		desc := sel.Find(descriptionSelector).First()
		if title.Length() == 0 {
			parseErr = fmt.Errorf("trend item %d: missing %s", i, titleSelector)
			return false
		}
		if desc.Length() == 0 {
			parseErr = fmt.Errorf("trend item %d: missing %s", i, descriptionSelector)
			return false
		}
		items = append(items, store.TrendItem{
			Title:       strings.TrimSpace(title.Text()),
			Description: strings.TrimSpace(desc.Text()),
			CapturedAt:  capturedAt,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(items) == 0 {
		return nil, ErrNoTrends
	}
	return items, nil
}

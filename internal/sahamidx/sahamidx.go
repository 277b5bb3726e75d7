/*
Package sahamidx scrapes corporate-action listings from sahamidx.com: one
HTTP GET per listing page, per-row field extraction with lenient
normalization, symbol allow-listing and cutoff-based early termination.
*/
package sahamidx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/sahamlab/idxca/internal/types"
)

const (
	defaultBaseURL = "https://www.sahamidx.com"

	// listingURLFormat is parameterized by base URL, listing view, sort field
	// and page number. Sort order is always descending by the comparison date.
	listingURLFormat = "%s/?view=%s&path=Stock&field_sort=%s&sort_by=DESC&page=%d"

	// listingTableClass identifies the data table on every listing page.
	listingTableClass = "table.tbl_border_gray"

	// pageDelay bounds the request rate against the site.
	pageDelay = 1200 * time.Millisecond

	requestTimeout = 60 * time.Second
)

// Scraper drives the page-by-page fetch/parse loop for one category at a
// time. It is single-threaded: one page fetch in flight, rows processed in
// document order.
type Scraper struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Scraper with the production site endpoint and pacing.
func New(logger *slog.Logger) *Scraper {
	return &Scraper{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Run scrapes one category until a terminal condition is reached and returns
// the accumulated records with the resolved cutoff and stop reason.
//
// A record is accepted iff cutoff <= primary date <= today. The early stop on
// the first row dated strictly before the cutoff is only correct because the
// listing is sorted descending by the category's comparison date; that sort
// order is a contract with sahamidx.com and is requested explicitly in the
// URL. If the site ever changes its ordering the run would stop early rather
// than admit bad data; no defensive re-sort is attempted.
//
// A fetch or page-structure failure stops the run but keeps everything
// collected on earlier pages.
func (s *Scraper) Run(ctx context.Context, cat types.Category, allowed map[string]struct{}, cutoff time.Time) (types.Result, error) {
	extract, err := extractorFor(cat)
	if err != nil {
		return types.Result{}, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if cutoff.IsZero() {
		cutoff = today.AddDate(0, 0, -cat.CutoffDays)
	}

	res := types.Result{Cutoff: cutoff}

	s.logger.Info("starting scrape",
		"category", cat.Name,
		"cutoff", cutoff.Format(types.DateFormat))

pages:
	for page := 1; ; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Error("scrape cancelled", "page", page, "error", err)
			res.StopReason = types.StopFetchError
			break
		}

		doc, err := s.fetchPage(ctx, cat, page)
		if err != nil {
			s.logger.Error("network error, stopping", "page", page, "error", err)
			res.StopReason = types.StopFetchError
			break
		}
		res.Pages = page

		table := doc.Find(listingTableClass).First()
		if table.Length() == 0 {
			s.logger.Info("no data table found, listing exhausted", "page", page)
			res.StopReason = types.StopExhausted
			break
		}

		rows := table.Find("tr")
		accepted := 0
		dataRows := 0

		// Row 0 is the header.
		for i := 1; i < rows.Length(); i++ {
			cells := collectCells(rows.Eq(i))
			if len(cells) <= 2 {
				continue
			}
			dataRows++

			rec, primary, err := extract(cells, allowed)
			if err != nil {
				s.logger.Warn("skipping malformed row", "page", page, "error", err)
				continue
			}

			// Future-dated noise is filtered, not treated as cutoff.
			if primary.After(today) {
				continue
			}

			// Rows are newest-first, so the first one before the cutoff means
			// everything after it is out of window too.
			if primary.Before(cutoff) {
				s.logger.Info("reached cutoff date",
					"page", page,
					"date", primary.Format(types.DateFormat))
				res.StopReason = types.StopCutoffReached
				break pages
			}

			if rec == nil {
				continue
			}

			res.Records = append(res.Records, rec)
			accepted++
		}

		s.logger.Info("scraped page",
			"page", page,
			"accepted", accepted,
			"rows", dataRows)

		if dataRows == 0 {
			res.StopReason = types.StopEmptyPage
			break
		}
	}

	s.logger.Info("scraping completed",
		"category", cat.Name,
		"records", len(res.Records),
		"pages", res.Pages,
		"stop_reason", string(res.StopReason))

	return res, nil
}

// fetchPage issues one blocking GET for a listing page and parses the
// response into a document. Transport and status failures are returned as
// errors carrying the page number; the caller decides what they mean for
// the run.
func (s *Scraper) fetchPage(ctx context.Context, cat types.Category, page int) (*goquery.Document, error) {
	url := fmt.Sprintf(listingURLFormat, s.baseURL, cat.View, cat.SortField, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for page %d: %w", page, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn("failed to close response body", "page", page, "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK status code %d for page %d", resp.StatusCode, page)
	}

	node, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for page %d: %w", page, err)
	}

	return goquery.NewDocumentFromNode(node), nil
}

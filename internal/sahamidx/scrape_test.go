package sahamidx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sahamlab/idxca/internal/syncer"
	"github.com/sahamlab/idxca/internal/types"
)

// testNow fixes "today" for every scenario.
var testNow = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func newTestScraper(baseURL string) *Scraper {
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.baseURL = baseURL
	s.limiter = rate.NewLimiter(rate.Inf, 1)
	s.now = func() time.Time { return testNow }
	return s
}

// rupsRow renders one meeting-notice listing row matching the live column
// layout: no | symbol | name | rups date | place | recording date | detail.
func rupsRow(symbol, rupsDate, place, recording string) string {
	return fmt.Sprintf(
		`<tr><td>1</td><td><a href="#">%s</a></td><td>Issuer Tbk</td><td>%s</td><td>%s</td><td>%s</td><td>view</td></tr>`,
		symbol, rupsDate, place, recording,
	)
}

func listingPage(rows ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><table class="tbl_border_gray">`)
	sb.WriteString(`<tr><th>No</th><th>Code</th><th>Name</th><th>RUPS Date</th><th>Place</th><th>Recording Date</th><th>Detail</th></tr>`)
	for _, r := range rows {
		sb.WriteString(r)
	}
	sb.WriteString(`</table></body></html>`)
	return sb.String()
}

// pageServer serves page N from pages[N-1]; later pages are empty listings.
// It counts requests so tests can assert pagination stopped.
func pageServer(t *testing.T, pages []string) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page := r.URL.Query().Get("page")
		for i, body := range pages {
			if page == fmt.Sprint(i+1) {
				if body == "fail" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				_, _ = w.Write([]byte(body))
				return
			}
		}
		_, _ = w.Write([]byte(listingPage()))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestRunFiltersAndAccepts(t *testing.T) {
	// One future-dated row, one row outside the allow-list, one valid row,
	// then a row past the cutoff that halts pagination.
	page1 := listingPage(
		rupsRow("BBCA", "30-Jun-2025", "Jakarta", "15-Jun-2025"),
		rupsRow("ZZZZ", "25-Jun-2025", "Jakarta", "06-Jun-2025"),
		rupsRow("BBCA", "20-Jun-2025", "Jakarta", "05-Jun-2025"),
		rupsRow("BBRI", "18-Jun-2025", "Jakarta", "20-May-2025"),
	)
	srv, requests := pageServer(t, []string{page1})

	s := newTestScraper(srv.URL)
	allowed := map[string]struct{}{"BBCA": {}, "BBRI": {}}

	res, err := s.Run(context.Background(), types.Rups, allowed, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "BBCA.JK", res.Records[0]["symbol"])
	assert.Equal(t, "2025-06-05", res.Records[0]["recording_date"])
	assert.Equal(t, types.StopCutoffReached, res.StopReason)
	assert.Equal(t, 1, *requests, "cutoff on page 1 must not fetch page 2")

	// The accepted batch flows through the sync engine as a single upsert.
	up := &countingUpserter{}
	affected, err := syncer.Sync(context.Background(), up, types.Rups, res.Records, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Equal(t, 1, up.calls)
	assert.Len(t, up.lastBatch, 1)
}

func TestRunCutoffBoundary(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	page1 := listingPage(
		rupsRow("BBCA", "20-Jun-2025", "Jakarta", "01-Jun-2025"), // exactly at the bound
		rupsRow("BBRI", "18-Jun-2025", "Jakarta", "31-May-2025"), // one day earlier
		rupsRow("BBCA", "17-Jun-2025", "Jakarta", "30-May-2025"), // never scanned
	)
	srv, requests := pageServer(t, []string{page1})

	s := newTestScraper(srv.URL)
	allowed := map[string]struct{}{"BBCA": {}, "BBRI": {}}

	res, err := s.Run(context.Background(), types.Rups, allowed, cutoff)
	require.NoError(t, err)

	require.Len(t, res.Records, 1, "record on the cutoff date is included")
	assert.Equal(t, "2025-06-01", res.Records[0]["recording_date"])
	assert.Equal(t, types.StopCutoffReached, res.StopReason)
	assert.Equal(t, cutoff, res.Cutoff)
	assert.Equal(t, 1, *requests)
}

func TestRunDefaultCutoff(t *testing.T) {
	srv, _ := pageServer(t, []string{listingPage()})
	s := newTestScraper(srv.URL)

	res, err := s.Run(context.Background(), types.Rups, nil, time.Time{})
	require.NoError(t, err)

	// rups defaults to one day back from today.
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), res.Cutoff)
}

func TestRunPaginatesUntilEmptyPage(t *testing.T) {
	page1 := listingPage(
		rupsRow("BBCA", "20-Jun-2025", "Jakarta", "06-Jun-2025"),
	)
	page2 := listingPage(
		rupsRow("BBRI", "19-Jun-2025", "Jakarta", "05-Jun-2025"),
	)
	srv, requests := pageServer(t, []string{page1, page2})

	s := newTestScraper(srv.URL)
	allowed := map[string]struct{}{"BBCA": {}, "BBRI": {}}

	res, err := s.Run(context.Background(), types.Rups, allowed, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Len(t, res.Records, 2)
	assert.Equal(t, types.StopEmptyPage, res.StopReason)
	assert.Equal(t, 3, *requests, "pages 1, 2 and the empty page 3")
	assert.Equal(t, 3, res.Pages)
}

func TestRunStopsWhenTableMissing(t *testing.T) {
	srv, _ := pageServer(t, []string{`<html><body><p>maintenance</p></body></html>`})
	s := newTestScraper(srv.URL)

	res, err := s.Run(context.Background(), types.Rups, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	assert.Equal(t, types.StopExhausted, res.StopReason)
}

func TestRunKeepsRecordsOnFetchError(t *testing.T) {
	page1 := listingPage(
		rupsRow("BBCA", "20-Jun-2025", "Jakarta", "06-Jun-2025"),
	)
	srv, _ := pageServer(t, []string{page1, "fail"})

	s := newTestScraper(srv.URL)
	allowed := map[string]struct{}{"BBCA": {}}

	res, err := s.Run(context.Background(), types.Rups, allowed, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Len(t, res.Records, 1, "records from earlier pages survive a fetch failure")
	assert.Equal(t, types.StopFetchError, res.StopReason)
}

func TestRunSkipsMalformedRowAndContinues(t *testing.T) {
	page1 := listingPage(
		rupsRow("BBCA", "not a date", "Jakarta", "06-Jun-2025"),
		rupsRow("BBRI", "19-Jun-2025", "Jakarta", "05-Jun-2025"),
		rupsRow("BBRI", "18-Jun-2025", "Jakarta", "20-May-2025"),
	)
	srv, _ := pageServer(t, []string{page1})

	s := newTestScraper(srv.URL)
	allowed := map[string]struct{}{"BBCA": {}, "BBRI": {}}

	res, err := s.Run(context.Background(), types.Rups, allowed, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, res.Records, 1, "one bad row must not abort the page")
	assert.Equal(t, "BBRI.JK", res.Records[0]["symbol"])
}

type countingUpserter struct {
	calls     int
	lastBatch []types.Record
}

func (c *countingUpserter) Upsert(_ context.Context, _ string, _, _ []string, records []types.Record) (int64, error) {
	c.calls++
	c.lastBatch = records
	return int64(len(records)), nil
}

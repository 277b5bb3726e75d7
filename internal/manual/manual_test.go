package manual

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahamlab/idxca/internal/types"
)

type fakeStore struct {
	upsertCalls int
	insertCalls int
	relation    string
	lastRecord  types.Record
	listResult  []types.Record
}

func (f *fakeStore) Upsert(_ context.Context, relation string, _, _ []string, records []types.Record) (int64, error) {
	f.upsertCalls++
	f.relation = relation
	if len(records) > 0 {
		f.lastRecord = records[0]
	}
	return int64(len(records)), nil
}

func (f *fakeStore) Insert(_ context.Context, relation string, _ []string, rec types.Record) error {
	f.insertCalls++
	f.relation = relation
	f.lastRecord = rec
	return nil
}

func (f *fakeStore) Select(_ context.Context, relation string) ([]types.Record, error) {
	f.relation = relation
	return f.listResult, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	fs := &fakeStore{}
	h := NewHandler(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, fs
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

const validRightIssue = `{
	"symbol": "BBCA.JK",
	"recording_date": "2025-06-05",
	"old_ratio": 4,
	"new_ratio": 1,
	"price": 250,
	"factor": 0.98,
	"cum_date": "2025-06-02",
	"ex_date": "2025-06-03",
	"trading_period_start": "2025-06-09",
	"trading_period_end": "2025-06-13",
	"subscription_date": "2025-06-17"
}`

func TestUpsertRightIssue(t *testing.T) {
	srv, fs := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/right-issues", validRightIssue)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, fs.upsertCalls)
	assert.Equal(t, "idx_right_issue", fs.relation)
	assert.Equal(t, "BBCA.JK", fs.lastRecord["symbol"])
	assert.NotEmpty(t, fs.lastRecord["updated_on"])
}

func TestUpsertRightIssueRejectsZeroPrice(t *testing.T) {
	srv, fs := newTestServer(t)

	body := strings.Replace(validRightIssue, `"price": 250`, `"price": 0`, 1)
	resp := doJSON(t, http.MethodPut, srv.URL+"/right-issues", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, fs.upsertCalls)
}

func TestUpsertRightIssueRejectsExBeforeCum(t *testing.T) {
	srv, fs := newTestServer(t)

	body := strings.Replace(validRightIssue, `"ex_date": "2025-06-03"`, `"ex_date": "2025-06-01"`, 1)
	resp := doJSON(t, http.MethodPut, srv.URL+"/right-issues", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, fs.upsertCalls)
}

func TestUpsertReverseSplit(t *testing.T) {
	srv, fs := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/reverse-splits", `{
		"symbol": "BBCA.JK",
		"split_ratio": 10,
		"recording_date": "2025-06-05",
		"cum_date": "2025-06-02",
		"ex_date": "2025-06-03"
	}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idx_stock_split", fs.relation)
	assert.Equal(t, "2025-06-03", fs.lastRecord["date"], "ex date lands in the date column")
}

func TestCreateBuyback(t *testing.T) {
	srv, fs := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/buybacks", `{
		"symbol": "BBRI.JK",
		"accumulated_shares": 1000000,
		"mandate": {"start_date": "2025-01-01", "end_date": "2025-12-31"},
		"transactions": [
			{"date": "2025-02-01", "share_amount": 500000, "average_price": 4500, "percentage_of_shares": 0.1}
		]
	}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, fs.insertCalls)
	assert.Equal(t, "idx_buybacks", fs.relation)
}

func TestCreateBuybackRejectsInvertedMandate(t *testing.T) {
	srv, fs := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/buybacks", `{
		"symbol": "BBRI.JK",
		"accumulated_shares": 0,
		"mandate": {"start_date": "2025-12-31", "end_date": "2025-01-01"}
	}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, fs.insertCalls)
}

func TestListBuybacks(t *testing.T) {
	srv, fs := newTestServer(t)
	fs.listResult = []types.Record{{"symbol": "BBRI.JK"}}

	resp := doJSON(t, http.MethodGet, srv.URL+"/buybacks", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idx_buybacks", fs.relation)
}

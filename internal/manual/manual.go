/*
Package manual exposes an HTTP JSON API for hand-entered corporate-action
records (right issues, reverse stock splits, buybacks) against the same store
the scraper writes to.
*/
package manual

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sahamlab/idxca/internal/types"
)

const (
	rightIssueRelation = "idx_right_issue"
	splitRelation      = "idx_stock_split"
	buybackRelation    = "idx_buybacks"
)

var (
	rightIssueColumns = []string{
		"symbol", "recording_date", "old_ratio", "new_ratio", "price", "factor",
		"cum_date", "ex_date", "trading_period_start", "trading_period_end",
		"subscription_date", "updated_on",
	}
	rightIssueKeys = []string{"symbol", "recording_date"}

	splitColumns = []string{"symbol", "split_ratio", "recording_date", "cum_date", "date", "updated_on"}
	splitKeys    = []string{"symbol", "recording_date"}

	buybackColumns = []string{"symbol", "accumulated_shares", "mandate", "transactions", "updated_on"}
	buybackKeys    = []string{"symbol"}
)

// Store is the slice of the persistent store the manual API needs.
type Store interface {
	Upsert(ctx context.Context, relation string, columns, keyColumns []string, records []types.Record) (int64, error)
	Insert(ctx context.Context, relation string, columns []string, rec types.Record) error
	Select(ctx context.Context, relation string) ([]types.Record, error)
}

// Handler serves the manual-record endpoints.
type Handler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a handler backed by the given store.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger, now: time.Now}
}

// Routes mounts the manual-record endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/right-issues", h.upsertRightIssue)
	r.Put("/reverse-splits", h.upsertReverseSplit)
	r.Post("/buybacks", h.createBuyback)
	r.Put("/buybacks", h.upsertBuyback)
	r.Get("/buybacks", h.listBuybacks)
	return r
}

func (h *Handler) upsertRightIssue(w http.ResponseWriter, r *http.Request) {
	req := &RightIssueRequest{}
	if err := render.Bind(r, req); err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	rec := req.record(h.now())
	affected, err := h.store.Upsert(r.Context(), rightIssueRelation, rightIssueColumns, rightIssueKeys, []types.Record{rec})
	if err != nil {
		h.logger.Error("right issue upsert failed", "symbol", req.Symbol, "error", err)
		_ = render.Render(w, r, ErrInternal(err))
		return
	}

	h.logger.Info("right issue upserted", "symbol", req.Symbol)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, upsertResponse{Status: "ok", Affected: affected})
}

func (h *Handler) upsertReverseSplit(w http.ResponseWriter, r *http.Request) {
	req := &ReverseSplitRequest{}
	if err := render.Bind(r, req); err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	rec := req.record(h.now())
	affected, err := h.store.Upsert(r.Context(), splitRelation, splitColumns, splitKeys, []types.Record{rec})
	if err != nil {
		h.logger.Error("reverse split upsert failed", "symbol", req.Symbol, "error", err)
		_ = render.Render(w, r, ErrInternal(err))
		return
	}

	h.logger.Info("reverse split upserted", "symbol", req.Symbol)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, upsertResponse{Status: "ok", Affected: affected})
}

func (h *Handler) createBuyback(w http.ResponseWriter, r *http.Request) {
	req := &BuybackRequest{}
	if err := render.Bind(r, req); err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	rec := req.record(h.now())
	if err := h.store.Insert(r.Context(), buybackRelation, buybackColumns, rec); err != nil {
		h.logger.Error("buyback insert failed", "symbol", req.Symbol, "error", err)
		_ = render.Render(w, r, ErrInternal(err))
		return
	}

	h.logger.Info("buyback created", "symbol", req.Symbol)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, upsertResponse{Status: "created", Affected: 1})
}

func (h *Handler) upsertBuyback(w http.ResponseWriter, r *http.Request) {
	req := &BuybackRequest{}
	if err := render.Bind(r, req); err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	rec := req.record(h.now())
	affected, err := h.store.Upsert(r.Context(), buybackRelation, buybackColumns, buybackKeys, []types.Record{rec})
	if err != nil {
		h.logger.Error("buyback upsert failed", "symbol", req.Symbol, "error", err)
		_ = render.Render(w, r, ErrInternal(err))
		return
	}

	h.logger.Info("buyback upserted", "symbol", req.Symbol)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, upsertResponse{Status: "ok", Affected: affected})
}

func (h *Handler) listBuybacks(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Select(r.Context(), buybackRelation)
	if err != nil {
		h.logger.Error("buyback list failed", "error", err)
		_ = render.Render(w, r, ErrInternal(err))
		return
	}

	render.JSON(w, r, records)
}

type upsertResponse struct {
	Status   string `json:"status"`
	Affected int64  `json:"affected"`
}

// ErrResponse is the JSON error envelope for every failure path.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "invalid request",
		ErrorText:      err.Error(),
	}
}

func ErrInternal(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "internal error",
		ErrorText:      err.Error(),
	}
}

package manual

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sahamlab/idxca/internal/types"
)

var validate = validator.New()

// RightIssueRequest mirrors the manual right-issue entry form. All numeric
// fields must be positive; ex date may not precede cum date.
type RightIssueRequest struct {
	Symbol             string  `json:"symbol" validate:"required"`
	RecordingDate      string  `json:"recording_date" validate:"required,datetime=2006-01-02"`
	OldRatio           float64 `json:"old_ratio" validate:"required,gt=0"`
	NewRatio           float64 `json:"new_ratio" validate:"required,gt=0"`
	Price              float64 `json:"price" validate:"required,gt=0"`
	Factor             float64 `json:"factor" validate:"gte=0"`
	CumDate            string  `json:"cum_date" validate:"required,datetime=2006-01-02"`
	ExDate             string  `json:"ex_date" validate:"required,datetime=2006-01-02"`
	TradingPeriodStart string  `json:"trading_period_start" validate:"required,datetime=2006-01-02"`
	TradingPeriodEnd   string  `json:"trading_period_end" validate:"required,datetime=2006-01-02"`
	SubscriptionDate   string  `json:"subscription_date" validate:"required,datetime=2006-01-02"`
}

func (req *RightIssueRequest) Bind(_ *http.Request) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	return checkDateOrder(req.CumDate, req.ExDate)
}

func (req *RightIssueRequest) record(now time.Time) types.Record {
	return types.Record{
		"symbol":               req.Symbol,
		"recording_date":       req.RecordingDate,
		"old_ratio":            req.OldRatio,
		"new_ratio":            req.NewRatio,
		"price":                req.Price,
		"factor":               req.Factor,
		"cum_date":             req.CumDate,
		"ex_date":              req.ExDate,
		"trading_period_start": req.TradingPeriodStart,
		"trading_period_end":   req.TradingPeriodEnd,
		"subscription_date":    req.SubscriptionDate,
		"updated_on":           now.Format("2006-01-02 15:04:05"),
	}
}

// ReverseSplitRequest mirrors the manual reverse-stock-split entry form. The
// split's effective date is stored in the relation's "date" column.
type ReverseSplitRequest struct {
	Symbol        string  `json:"symbol" validate:"required"`
	SplitRatio    float64 `json:"split_ratio" validate:"required,gt=0"`
	RecordingDate string  `json:"recording_date" validate:"required,datetime=2006-01-02"`
	CumDate       string  `json:"cum_date" validate:"required,datetime=2006-01-02"`
	ExDate        string  `json:"ex_date" validate:"required,datetime=2006-01-02"`
}

func (req *ReverseSplitRequest) Bind(_ *http.Request) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	return checkDateOrder(req.CumDate, req.ExDate)
}

func (req *ReverseSplitRequest) record(now time.Time) types.Record {
	return types.Record{
		"symbol":         req.Symbol,
		"split_ratio":    req.SplitRatio,
		"recording_date": req.RecordingDate,
		"cum_date":       req.CumDate,
		"date":           req.ExDate,
		"updated_on":     now.Format("2006-01-02 15:04:05"),
	}
}

// BuybackMandate is the approved buyback window, stored as JSONB.
type BuybackMandate struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// BuybackTransaction is one executed purchase, stored inside a JSONB array.
type BuybackTransaction struct {
	Date               string  `json:"date" validate:"required,datetime=2006-01-02"`
	ShareAmount        float64 `json:"share_amount" validate:"gte=0"`
	AveragePrice       float64 `json:"average_price" validate:"gte=0"`
	PercentageOfShares float64 `json:"percentage_of_shares" validate:"gte=0"`
}

// BuybackRequest mirrors the manual buyback entry form.
type BuybackRequest struct {
	Symbol            string               `json:"symbol" validate:"required"`
	AccumulatedShares int64                `json:"accumulated_shares" validate:"gte=0"`
	Mandate           BuybackMandate       `json:"mandate" validate:"required"`
	Transactions      []BuybackTransaction `json:"transactions" validate:"dive"`
}

func (req *BuybackRequest) Bind(_ *http.Request) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	return checkDateOrder(req.Mandate.StartDate, req.Mandate.EndDate)
}

func (req *BuybackRequest) record(now time.Time) types.Record {
	return types.Record{
		"symbol":             req.Symbol,
		"accumulated_shares": req.AccumulatedShares,
		"mandate":            req.Mandate,
		"transactions":       req.Transactions,
		"updated_on":         now.Format(time.RFC3339),
	}
}

func checkDateOrder(from, to string) error {
	start, err := time.Parse(types.DateFormat, from)
	if err != nil {
		return err
	}
	end, err := time.Parse(types.DateFormat, to)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("date %s cannot be earlier than %s", to, from)
	}
	return nil
}

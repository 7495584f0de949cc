package model

import (
	"encoding/json"
	"fmt"
)

// Payload is the kind-tagged variant carried by an approval request. The
// concrete type is determined by the request's Kind; DecodePayload resolves
// it when reading records back from the store.
type Payload interface {
	isPayload()
}

// CronMetrics carries the cost/runtime estimates attached to budgeted cron
// apply requests.
type CronMetrics struct {
	EstimatedTokens        int     `json:"estimatedTokens,omitempty"`
	EstimatedCostUsd       float64 `json:"estimatedCostUsd,omitempty"`
	ExpectedRuntimeSeconds float64 `json:"expectedRuntimeSeconds,omitempty"`
	ModelTier              string  `json:"modelTier,omitempty"`
	ExpectedValue          string  `json:"expectedValue,omitempty"`
}

// CronApplyPayload requests applying a pending cron proposal.
type CronApplyPayload struct {
	ProposalID    string `json:"proposalId"`
	AllowRecreate bool   `json:"allowRecreate,omitempty"`
}

func (CronApplyPayload) isPayload() {}

// CronApplyBudgetedPayload is a cron apply carrying cost metrics so budget
// limits can be enforced before the request is created.
type CronApplyBudgetedPayload struct {
	CronApplyPayload
	Metrics *CronMetrics `json:"metrics,omitempty"`
}

func (CronApplyBudgetedPayload) isPayload() {}

// LedgerValue is the set of scalar values a ledger entry may hold. JSON
// numbers decode as float64.
type LedgerValue = any

// LedgerPatch describes a set/remove mutation of a ledger snapshot.
type LedgerPatch struct {
	Set    map[string]LedgerValue `json:"set,omitempty"`
	Remove []string               `json:"remove,omitempty"`
}

// LedgerPatchPayload requests patching a named ledger snapshot.
type LedgerPatchPayload struct {
	Ledger string      `json:"ledger"`
	Patch  LedgerPatch `json:"patch"`
}

func (LedgerPatchPayload) isPayload() {}

// TradeMetrics carries the decision-engine context attached to a trade
// request. Purely informational; never used for authorization.
type TradeMetrics struct {
	SentimentScore       float64 `json:"sentimentScore,omitempty"`
	Confidence           float64 `json:"confidence,omitempty"`
	TimeWindow           string  `json:"timeWindow,omitempty"`
	SourceCount          int     `json:"sourceCount,omitempty"`
	ModelVersion         string  `json:"modelVersion,omitempty"`
	EstimatedSlippagePct float64 `json:"estimatedSlippagePct,omitempty"`
	EstimatedFeeUsd      float64 `json:"estimatedFeeUsd,omitempty"`
	ExposureDelta        float64 `json:"exposureDelta,omitempty"`
	RiskNotes            string  `json:"riskNotes,omitempty"`
}

// TradeSide is the direction of a trade order.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// OrderType is the execution style of a trade order.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// TradeExecutePayload requests executing an order on an exchange.
type TradeExecutePayload struct {
	Exchange    string        `json:"exchange"`
	Side        TradeSide     `json:"side"`
	Symbol      string        `json:"symbol"`
	OrderType   OrderType     `json:"orderType"`
	Quantity    float64       `json:"quantity"`
	LimitPrice  float64       `json:"limitPrice,omitempty"`
	NotionalUsd float64       `json:"notionalUsd,omitempty"`
	Metrics     *TradeMetrics `json:"metrics,omitempty"`
}

func (TradeExecutePayload) isPayload() {}

// LedgerPosting is a single account movement within a journal entry.
type LedgerPosting struct {
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
	Asset   string  `json:"asset"`
}

// LedgerProvenance records where a set of postings originated.
type LedgerProvenance struct {
	Exchange string `json:"exchange"`
	OrderID  string `json:"orderId,omitempty"`
	DryRun   bool   `json:"dryRun"`
}

// LedgerPostingsApplyPayload requests appending postings to a ledger
// journal.
type LedgerPostingsApplyPayload struct {
	Ledger     string           `json:"ledger"`
	ApprovalID string           `json:"approvalId,omitempty"`
	RunID      string           `json:"runId"`
	Postings   []LedgerPosting  `json:"postings"`
	Provenance LedgerProvenance `json:"provenance"`
	Notes      string           `json:"notes,omitempty"`
}

func (LedgerPostingsApplyPayload) isPayload() {}

// DecodePayload unmarshals raw payload JSON into the variant matching kind.
func DecodePayload(kind Kind, data []byte) (Payload, error) {
	switch kind {
	case KindCronApply, KindCronApplyRecreate:
		var payload CronApplyPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case KindCronApplyBudgeted:
		var payload CronApplyBudgetedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case KindLedgerPatch:
		var payload LedgerPatchPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case KindLedgerPostingsApply:
		var payload LedgerPostingsApplyPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case KindTradeExecute:
		var payload TradeExecutePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}
	return nil, fmt.Errorf("unsupported approval kind: %v", kind)
}

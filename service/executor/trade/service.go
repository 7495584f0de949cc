package trade

import (
	"context"
	"net/http"

	"github.com/openclaw/gating/internal/idgen"
	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/executor"
)

// Service executes approved trade.execute requests against kraken. Every
// execution derives double-entry postings for the finance ledger and
// returns them in the result details as a ready-to-submit follow-up
// request; the postings themselves go through their own approval.
type Service struct {
	config *Config
	client *http.Client
}

var _ executor.Service = (*Service)(nil)

// New creates the trade.execute executor. A nil config disables live
// trading.
func New(config *Config, options ...Option) *Service {
	if config == nil {
		config = &Config{}
	}
	ret := &Service{config: config, client: defaultHTTPClient()}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Option customizes the trade executor.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client used for exchange calls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

// Kind returns the approval kind this executor handles.
func (s *Service) Kind() model.Kind {
	return model.KindTradeExecute
}

// Validate checks the trade intent against the configured exchange limits.
func (s *Service) Validate(_ context.Context, payload model.Payload) executor.Validation {
	intent, ok := payload.(*model.TradeExecutePayload)
	if !ok {
		return executor.Invalid("exchange-unsupported")
	}
	validation := validateIntent(intent, s.config)
	if !validation.OK {
		return executor.Invalid(validation.Reason)
	}
	return executor.Valid()
}

// Execute places (or dry-runs) the order and attaches the derived ledger
// request to the result details.
func (s *Service) Execute(ctx context.Context, payload model.Payload, _ model.Actor) *executor.Result {
	intent, ok := payload.(*model.TradeExecutePayload)
	if !ok {
		return &executor.Result{OK: false, Message: "unexpected payload type"}
	}
	outcome := s.execute(ctx, intent)
	runID := idgen.New()
	postings, notes := derivePostings(intent)
	return &executor.Result{
		OK:      outcome.OK,
		Message: outcome.Message,
		Details: map[string]any{
			"intent":     intent,
			"exchange":   intent.Exchange,
			"orderId":    outcome.OrderID,
			"dryRun":     outcome.DryRun,
			"validation": outcome.Summary,
			"ledgerRequest": &model.LedgerPostingsApplyPayload{
				Ledger:   "finance",
				RunID:    runID,
				Postings: postings,
				Provenance: model.LedgerProvenance{
					Exchange: intent.Exchange,
					OrderID:  outcome.OrderID,
					DryRun:   outcome.DryRun,
				},
				Notes: notes,
			},
		},
	}
}

// derivePostings maps a fill into position and cash movements. When no USD
// notional can be resolved only the position leg is produced and the
// omission is noted.
func derivePostings(payload *model.TradeExecutePayload) ([]model.LedgerPosting, string) {
	base, quote := parseSymbol(payload.Symbol)
	if quote == "" {
		quote = "USD"
	}
	direction := 1.0
	if payload.Side == model.TradeSell {
		direction = -1.0
	}
	postings := []model.LedgerPosting{
		{Account: "trading:position", Amount: direction * payload.Quantity, Asset: base},
	}
	notionalUsd, hasNotional := resolveNotionalUsd(payload)
	if !hasNotional {
		return postings, "Notional USD unavailable; cash posting omitted."
	}
	postings = append(postings, model.LedgerPosting{
		Account: "trading:cash",
		Amount:  -direction * notionalUsd,
		Asset:   quote,
	})
	return postings, ""
}

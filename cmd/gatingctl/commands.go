package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/gating"
	"github.com/openclaw/gating/model"
)

func reportOutcome(outcome *gating.RequestOutcome) error {
	if !outcome.OK {
		return fmt.Errorf("request refused: %s", outcome.Reason)
	}
	fmt.Printf("approval %s created (%s)\n", outcome.Request.ApprovalID, outcome.Request.Status)
	return nil
}

func newRequestCommand() *cobra.Command {
	request := &cobra.Command{
		Use:   "request",
		Short: "Submit an approval request",
	}
	request.AddCommand(newRequestCronCommand())
	request.AddCommand(newRequestLedgerCommand())
	request.AddCommand(newRequestTradeCommand())
	return request
}

func newRequestCronCommand() *cobra.Command {
	var recreate, budgeted bool
	var tokens int
	var costUsd float64
	var modelTier string
	cmd := &cobra.Command{
		Use:   "cron <proposal-id>",
		Short: "Request applying a pending cron proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService()
			if err != nil {
				return err
			}
			actor := actorFromFlags()
			if budgeted {
				metrics := &model.CronMetrics{
					EstimatedTokens:  tokens,
					EstimatedCostUsd: costUsd,
					ModelTier:        modelTier,
				}
				outcome, err := service.RequestCronApplyBudgeted(cmd.Context(), args[0], recreate, metrics, actor)
				if err != nil {
					return err
				}
				return reportOutcome(outcome)
			}
			outcome, err := service.RequestCronApply(cmd.Context(), args[0], recreate, actor)
			if err != nil {
				return err
			}
			return reportOutcome(outcome)
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "allow recreating an existing job")
	cmd.Flags().BoolVar(&budgeted, "budgeted", false, "enforce cost budgets before requesting")
	cmd.Flags().IntVar(&tokens, "tokens", 0, "estimated token usage")
	cmd.Flags().Float64Var(&costUsd, "cost", 0, "estimated cost in USD")
	cmd.Flags().StringVar(&modelTier, "model", "", "model tier for the estimate")
	return cmd
}

// parsePatchValue coerces a flag value into a ledger scalar: bool, number
// or string.
func parsePatchValue(raw string) model.LedgerValue {
	if value, err := strconv.ParseBool(raw); err == nil {
		return value
	}
	if value, err := strconv.ParseFloat(raw, 64); err == nil {
		return value
	}
	return raw
}

func newRequestLedgerCommand() *cobra.Command {
	var set []string
	var remove []string
	cmd := &cobra.Command{
		Use:   "ledger <name>",
		Short: "Request patching a ledger snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := model.LedgerPatch{Remove: remove}
			if len(set) > 0 {
				patch.Set = map[string]model.LedgerValue{}
				for _, pair := range set {
					key, value, found := strings.Cut(pair, "=")
					if !found {
						return fmt.Errorf("invalid --set %q, expected key=value", pair)
					}
					patch.Set[key] = parsePatchValue(value)
				}
			}
			service, err := buildService()
			if err != nil {
				return err
			}
			outcome, err := service.RequestLedgerPatch(cmd.Context(), args[0], patch, actorFromFlags())
			if err != nil {
				return err
			}
			return reportOutcome(outcome)
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "key=value entry to set (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "key to remove (repeatable)")
	return cmd
}

func newRequestTradeCommand() *cobra.Command {
	var exchange, side, symbol, orderType string
	var quantity, limitPrice, notionalUsd float64
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Request executing an exchange order",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService()
			if err != nil {
				return err
			}
			payload := &model.TradeExecutePayload{
				Exchange:    exchange,
				Side:        model.TradeSide(side),
				Symbol:      symbol,
				OrderType:   model.OrderType(orderType),
				Quantity:    quantity,
				LimitPrice:  limitPrice,
				NotionalUsd: notionalUsd,
			}
			outcome, err := service.RequestTradeExecute(cmd.Context(), payload, actorFromFlags())
			if err != nil {
				return err
			}
			return reportOutcome(outcome)
		},
	}
	cmd.Flags().StringVar(&exchange, "exchange", "kraken", "exchange name")
	cmd.Flags().StringVar(&side, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading pair, e.g. BTC/USD")
	cmd.Flags().StringVar(&orderType, "type", "market", "market or limit")
	cmd.Flags().Float64Var(&quantity, "qty", 0, "order quantity")
	cmd.Flags().Float64Var(&limitPrice, "price", 0, "limit price")
	cmd.Flags().Float64Var(&notionalUsd, "notional", 0, "order notional in USD")
	return cmd
}

func newCallbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "callback <token>",
		Short: "Process an approval button token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService()
			if err != nil {
				return err
			}
			outcome, err := service.HandleCallback(cmd.Context(), args[0], actorFromFlags())
			if err != nil {
				return err
			}
			if !outcome.Handled {
				fmt.Println("token not recognised")
				return nil
			}
			if outcome.Reason != "" {
				fmt.Printf("handled: %s\n", outcome.Reason)
				return nil
			}
			fmt.Println("handled")
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approval requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService()
			if err != nil {
				return err
			}
			snapshot, err := service.Store().Read(cmd.Context())
			if err != nil {
				return err
			}
			for _, request := range snapshot.Approvals {
				if status != "" && string(request.Status) != status {
					continue
				}
				fmt.Printf("%s  %-22s %-26s %s\n", request.ApprovalID, request.Kind, request.Resource, request.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func newExpireCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire stale pending requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService()
			if err != nil {
				return err
			}
			expired, err := service.ExpirePending(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("expired %d request(s)\n", expired)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "expire pending requests older than this")
	return cmd
}

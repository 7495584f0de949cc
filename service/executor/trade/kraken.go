package trade

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/viant/scy/cred/secret"

	"github.com/openclaw/gating/internal/clock"
	"github.com/openclaw/gating/model"
)

const (
	defaultBaseURL = "https://api.kraken.com"
	addOrderPath   = "/0/private/AddOrder"
)

// Config holds kraken trading limits and credentials. With Enabled false
// every approved trade settles as a dry run. Credentials come from the scy
// secret resource when CredentialsURL is set, from the literals otherwise.
type Config struct {
	Enabled        bool               `json:"enabled" yaml:"enabled"`
	APIKey         string             `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APISecret      string             `json:"apiSecret,omitempty" yaml:"apiSecret,omitempty"`
	CredentialsURL string             `json:"credentialsURL,omitempty" yaml:"credentialsURL,omitempty"`
	AllowedSymbols []string           `json:"allowedSymbols,omitempty" yaml:"allowedSymbols,omitempty"`
	MaxOrderUsd    *float64           `json:"maxOrderUsd,omitempty" yaml:"maxOrderUsd,omitempty"`
	MaxOrderAsset  map[string]float64 `json:"maxOrderAsset,omitempty" yaml:"maxOrderAsset,omitempty"`
	BaseURL        string             `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

func (c *Config) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

// intentValidation carries the reason alongside the summary shown on
// approval cards and audit details.
type intentValidation struct {
	OK      bool
	Reason  string
	Summary map[string]any
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func parseSymbol(symbol string) (base, quote string) {
	parts := strings.SplitN(symbol, "/", 2)
	base = parts[0]
	if base == "" {
		base = symbol
	}
	if len(parts) > 1 {
		quote = parts[1]
	}
	return base, quote
}

// resolveNotionalUsd returns the USD notional of the intent: the explicit
// notional when present, limitPrice*quantity as a fallback, absent when
// neither is usable.
func resolveNotionalUsd(payload *model.TradeExecutePayload) (float64, bool) {
	if payload.NotionalUsd > 0 && isFinite(payload.NotionalUsd) {
		return payload.NotionalUsd, true
	}
	if payload.LimitPrice > 0 && isFinite(payload.LimitPrice) {
		return payload.LimitPrice * payload.Quantity, true
	}
	return 0, false
}

// validateIntent checks the trade against the configured limits before any
// order leaves the process.
func validateIntent(payload *model.TradeExecutePayload, config *Config) intentValidation {
	if payload.Exchange != "kraken" {
		return intentValidation{Reason: "exchange-unsupported", Summary: map[string]any{"exchange": payload.Exchange}}
	}
	if strings.TrimSpace(payload.Symbol) == "" {
		return intentValidation{Reason: "symbol-missing", Summary: map[string]any{}}
	}
	if !isFinite(payload.Quantity) || payload.Quantity <= 0 {
		return intentValidation{Reason: "quantity-invalid", Summary: map[string]any{"quantity": payload.Quantity}}
	}
	if payload.OrderType == model.OrderLimit {
		if !isFinite(payload.LimitPrice) || payload.LimitPrice <= 0 {
			return intentValidation{Reason: "limit-price-missing", Summary: map[string]any{"limitPrice": payload.LimitPrice}}
		}
	}
	if config != nil && len(config.AllowedSymbols) > 0 {
		allowed := false
		for _, symbol := range config.AllowedSymbols {
			if symbol == payload.Symbol {
				allowed = true
				break
			}
		}
		if !allowed {
			return intentValidation{
				Reason:  "symbol-not-allowed",
				Summary: map[string]any{"allowedSymbols": config.AllowedSymbols, "symbol": payload.Symbol},
			}
		}
	}
	base, _ := parseSymbol(payload.Symbol)
	if config != nil {
		if maxOrderAsset, ok := config.MaxOrderAsset[base]; ok && payload.Quantity > maxOrderAsset {
			return intentValidation{
				Reason:  "asset-limit-exceeded",
				Summary: map[string]any{"maxOrderAsset": maxOrderAsset, "asset": base, "quantity": payload.Quantity},
			}
		}
	}
	notionalUsd, hasNotional := resolveNotionalUsd(payload)
	if config != nil && config.MaxOrderUsd != nil {
		if !hasNotional {
			return intentValidation{Reason: "notional-missing", Summary: map[string]any{"maxOrderUsd": *config.MaxOrderUsd}}
		}
		if notionalUsd > *config.MaxOrderUsd {
			return intentValidation{
				Reason:  "usd-limit-exceeded",
				Summary: map[string]any{"maxOrderUsd": *config.MaxOrderUsd, "notionalUsd": notionalUsd},
			}
		}
	}
	summary := map[string]any{
		"symbol":    payload.Symbol,
		"quantity":  payload.Quantity,
		"orderType": payload.OrderType,
		"side":      payload.Side,
	}
	if hasNotional {
		summary["notionalUsd"] = notionalUsd
	}
	return intentValidation{OK: true, Summary: summary}
}

// signRequest produces the API-Sign header value: HMAC-SHA512 over
// path+sha256(nonce+postData), keyed with the base64-decoded secret.
func signRequest(path, postData, nonce, apiSecret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(apiSecret)
	if err != nil {
		return "", fmt.Errorf("invalid api secret: %w", err)
	}
	hash := sha256.Sum256([]byte(nonce + postData))
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(hash[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// executionOutcome is the raw result of placing (or dry-running) an order.
type executionOutcome struct {
	OK      bool
	DryRun  bool
	OrderID string
	Message string
	Summary map[string]any
}

// credentials resolves the API key pair, preferring the scy resource.
func (s *Service) credentials(ctx context.Context) (apiKey, apiSecret string, err error) {
	if s.config.CredentialsURL != "" {
		secrets := secret.New()
		generic, err := secrets.GetCredentials(ctx, s.config.CredentialsURL)
		if err != nil {
			return "", "", err
		}
		return generic.Username, generic.Password, nil
	}
	return s.config.APIKey, s.config.APISecret, nil
}

func (s *Service) placeOrder(ctx context.Context, payload *model.TradeExecutePayload, summary map[string]any) *executionOutcome {
	apiKey, apiSecret, err := s.credentials(ctx)
	if err != nil {
		return &executionOutcome{Message: fmt.Sprintf("failed to resolve kraken credentials: %v", err), Summary: summary}
	}
	if apiKey == "" || apiSecret == "" {
		return &executionOutcome{Message: "kraken credentials missing", Summary: summary}
	}
	nonce := strconv.FormatInt(clock.Now().UnixMilli(), 10)
	form := url.Values{}
	form.Set("nonce", nonce)
	form.Set("pair", payload.Symbol)
	form.Set("type", string(payload.Side))
	form.Set("ordertype", string(payload.OrderType))
	form.Set("volume", strconv.FormatFloat(payload.Quantity, 'f', -1, 64))
	if payload.OrderType == model.OrderLimit && payload.LimitPrice > 0 {
		form.Set("price", strconv.FormatFloat(payload.LimitPrice, 'f', -1, 64))
	}
	postData := form.Encode()
	signature, err := signRequest(addOrderPath, postData, nonce, apiSecret)
	if err != nil {
		return &executionOutcome{Message: err.Error(), Summary: summary}
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.baseURL()+addOrderPath, strings.NewReader(postData))
	if err != nil {
		return &executionOutcome{Message: err.Error(), Summary: summary}
	}
	request.Header.Set("API-Key", apiKey)
	request.Header.Set("API-Sign", signature)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	response, err := s.client.Do(request)
	if err != nil {
		return &executionOutcome{Message: fmt.Sprintf("kraken request failed: %v", err), Summary: summary}
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return &executionOutcome{Message: fmt.Sprintf("failed to read kraken response: %v", err), Summary: summary}
	}
	var parsed struct {
		Error  []string `json:"error"`
		Result struct {
			TxID []string `json:"txid"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &executionOutcome{Message: fmt.Sprintf("invalid kraken response: %v", err), Summary: summary}
	}
	if response.StatusCode != http.StatusOK || len(parsed.Error) > 0 {
		message := strings.Join(parsed.Error, ", ")
		if message == "" {
			message = response.Status
		}
		if message == "" {
			message = "kraken order failed"
		}
		return &executionOutcome{Message: message, Summary: summary}
	}
	var orderID string
	if len(parsed.Result.TxID) > 0 {
		orderID = parsed.Result.TxID[0]
	}
	withOrder := map[string]any{}
	for key, value := range summary {
		withOrder[key] = value
	}
	withOrder["orderId"] = orderID
	return &executionOutcome{OK: true, OrderID: orderID, Summary: withOrder}
}

// execute validates and then places the order, or settles it as a dry run
// when live trading is disabled.
func (s *Service) execute(ctx context.Context, payload *model.TradeExecutePayload) *executionOutcome {
	validation := validateIntent(payload, s.config)
	if !validation.OK {
		return &executionOutcome{DryRun: true, Message: validation.Reason, Summary: validation.Summary}
	}
	if !s.config.Enabled {
		summary := map[string]any{}
		for key, value := range validation.Summary {
			summary[key] = value
		}
		summary["mode"] = "dry_run"
		return &executionOutcome{OK: true, DryRun: true, Summary: summary}
	}
	return s.placeOrder(ctx, payload, validation.Summary)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

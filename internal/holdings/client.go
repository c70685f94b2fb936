package holdings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/sweeper/internal/types"
	"github.com/vultisig/sweeper/internal/util"
)

const DefaultURL = "https://lite-api.jup.ag/ultra/v1/holdings"

// DefaultNativeReserve is left behind on the native balance so the wallet can
// still pay fees for the token transfers that follow.
var DefaultNativeReserve = decimal.New(1, -3)

type Holding struct {
	Mint     string              `json:"mint"`
	Symbol   string              `json:"symbol"`
	Balance  decimal.Decimal     `json:"balance"`
	Decimals uint8               `json:"decimals"`
	USDValue decimal.NullDecimal `json:"usdValue"`
}

type Client struct {
	apiURL        string
	headers       map[string]string
	httpClient    *http.Client
	nativeReserve decimal.Decimal
	logger        *logrus.Logger
}

type Option func(*Client)

func WithNativeReserve(reserve decimal.Decimal) Option {
	return func(c *Client) {
		c.nativeReserve = reserve
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(apiURL string, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		headers: map[string]string{
			"User-Agent": "vultisig-sweeper/1.0",
			"Accept":     "application/json",
		},
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		nativeReserve: DefaultNativeReserve,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the wallet's transferable balances, ordered by descending
// estimated value with ties broken by ascending identifier.
func (c *Client) Fetch(ctx context.Context, wallet string) ([]types.AssetBalance, error) {
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return nil, &FetchError{Wallet: wallet, Err: fmt.Errorf("invalid wallet address: %w", err)}
	}

	body, status, err := c.makeRequest(ctx, "/"+url.PathEscape(wallet))
	if err != nil {
		return nil, &FetchError{Wallet: wallet, StatusCode: status, Err: err}
	}

	var raw []Holding
	err = json.Unmarshal(body, &raw)
	if err != nil {
		return nil, &FetchError{Wallet: wallet, StatusCode: status, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	balances, err := c.normalize(raw)
	if err != nil {
		return nil, &FetchError{Wallet: wallet, StatusCode: status, Err: err}
	}

	c.logger.WithFields(logrus.Fields{
		"wallet":   wallet,
		"reported": len(raw),
		"usable":   len(balances),
	}).Debug("fetched holdings")

	return balances, nil
}

func (c *Client) normalize(raw []Holding) ([]types.AssetBalance, error) {
	merged := make(map[solana.PublicKey]*types.AssetBalance, len(raw))
	order := make([]solana.PublicKey, 0, len(raw))

	for i, h := range raw {
		id, err := assetID(h.Mint)
		if err != nil {
			return nil, fmt.Errorf("holding[%d]: %w", i, err)
		}

		amount := util.FromBaseUnits(h.Balance, h.Decimals)
		value := decimal.Zero
		if h.USDValue.Valid {
			value = h.USDValue.Decimal
		}

		if existing, ok := merged[id.Mint]; ok {
			if existing.Decimals != h.Decimals {
				return nil, fmt.Errorf("holding[%d]: conflicting decimals for %s", i, id)
			}
			existing.Amount = existing.Amount.Add(amount)
			existing.EstimatedValue = existing.EstimatedValue.Add(value)
			continue
		}

		merged[id.Mint] = &types.AssetBalance{
			ID:             id,
			Symbol:         h.Symbol,
			Amount:         amount,
			Decimals:       h.Decimals,
			EstimatedValue: value,
		}
		order = append(order, id.Mint)
	}

	out := make([]types.AssetBalance, 0, len(order))
	for _, mint := range order {
		b := *merged[mint]
		if b.ID.IsNative() {
			b.Amount = decimal.Max(decimal.Zero, b.Amount.Sub(c.nativeReserve))
		}
		if !b.Amount.IsPositive() {
			continue
		}
		out = append(out, b)
	}

	SortByValue(out)
	return out, nil
}

// SortByValue orders balances by descending estimated value, ties by
// ascending identifier.
func SortByValue(balances []types.AssetBalance) {
	sort.SliceStable(balances, func(i, j int) bool {
		if c := balances[i].EstimatedValue.Cmp(balances[j].EstimatedValue); c != 0 {
			return c > 0
		}
		return balances[i].ID.String() < balances[j].ID.String()
	})
}

func assetID(mint string) (types.AssetID, error) {
	if util.IsNativeToken(mint) {
		return types.NativeAsset(), nil
	}
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return types.AssetID{}, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	return types.FungibleAsset(pk), nil
}

func (c *Client) makeRequest(ctx context.Context, path string) ([]byte, int, error) {
	u, err := url.Parse(c.apiURL + path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, res.StatusCode, fmt.Errorf("failed to get successful response: status_code: %d, res_body: %s", res.StatusCode, string(bodyBytes))
	}

	return bodyBytes, res.StatusCode, nil
}

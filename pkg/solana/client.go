package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/jsonx"
	"nodemonitor/pkg/logger"

	"github.com/shopspring/decimal"
)

const lamportsPerSOL = 1_000_000_000

// AccountState is the on-chain view of a node address.
type AccountState struct {
	Exists   bool
	Lamports uint64
	HasData  bool
	// NOSBalance is nil when the token lookup failed.
	NOSBalance *decimal.Decimal
}

// SOL returns the lamport balance in SOL.
func (a AccountState) SOL() decimal.Decimal {
	return decimal.NewFromInt(int64(a.Lamports)).Div(decimal.NewFromInt(lamportsPerSOL))
}

// Client is a minimal Solana JSON-RPC client
type Client struct {
	rpcURL     string
	nosMint    string
	httpClient *http.Client
	nextID     atomic.Int64
}

// NewClient creates a new Solana RPC client
func NewClient(cfg config.SolanaConfig) *Client {
	return &Client{
		rpcURL:  cfg.RPCURL,
		nosMint: cfg.NOSMint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResult struct {
	Value *struct {
		Lamports uint64        `json:"lamports"`
		Data     []interface{} `json:"data"`
		Owner    string        `json:"owner"`
	} `json:"value"`
}

type tokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						TokenAmount struct {
							Amount   string `json:"amount"`
							Decimals int32  `json:"decimals"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// Lookup fetches account existence, lamports and the NOS token balance.
// A token lookup failure leaves NOSBalance nil without failing the call.
func (c *Client) Lookup(ctx context.Context, address string) (*AccountState, error) {
	var info accountInfoResult
	err := c.call(ctx, "getAccountInfo", []interface{}{
		address,
		map[string]string{"encoding": "base64"},
	}, &info)
	if err != nil {
		return nil, err
	}

	state := &AccountState{}
	if info.Value != nil {
		state.Exists = true
		state.Lamports = info.Value.Lamports
		if len(info.Value.Data) > 0 {
			if s, ok := info.Value.Data[0].(string); ok && s != "" {
				state.HasData = true
			}
		}
	}

	nos, err := c.TokenBalance(ctx, address)
	if err != nil {
		logger.WarnCtx(ctx, "failed to get NOS balance for %s: %v", address, err)
	} else {
		state.NOSBalance = &nos
	}

	return state, nil
}

// TokenBalance sums the configured mint's token accounts owned by address.
func (c *Client) TokenBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	var result tokenAccountsResult
	err := c.call(ctx, "getTokenAccountsByOwner", []interface{}{
		owner,
		map[string]string{"mint": c.nosMint},
		map[string]string{"encoding": "jsonParsed"},
	}, &result)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, acc := range result.Value {
		amt := acc.Account.Data.Parsed.Info.TokenAmount
		raw, err := decimal.NewFromString(amt.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse token amount %q: %w", amt.Amount, err)
		}
		total = total.Add(raw.Shift(-amt.Decimals))
	}
	return total, nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	payload, err := jsonx.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status code %d: %s", method, resp.StatusCode, string(body))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := jsonx.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if err := jsonx.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}

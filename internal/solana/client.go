package solana

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/hunterwarburton/walletproxy/internal/core"
	"github.com/hunterwarburton/walletproxy/internal/logger"
)

// DefaultMainnetEndpoint is the public RPC endpoint for Solana mainnet-beta.
const DefaultMainnetEndpoint = "https://api.mainnet-beta.solana.com/"

// Client uses the solana-go SDK's RPC client.
type Client struct {
	rpcClient  *rpc.Client
	httpClient *http.Client // Retained for fetching off-chain JSON metadata
}

// NewClient creates a new RPC client pointing to the specified endpoint.
// If endpoint is an empty string DefaultMainnetEndpoint is used.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultMainnetEndpoint
	}
	logger.Debug("Creating Solana RPC client for %s", endpoint)

	return &Client{
		rpcClient: rpc.New(endpoint),
		httpClient: &http.Client{ // Standard HTTP client for off-chain data
			Timeout: 30 * time.Second,
		},
	}
}

var _ core.ChainClient = (*Client)(nil)

// GetBalance returns the finalized lamport balance of owner.
func (c *Client) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	res, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance of %s: %w", owner, err)
	}
	return res.Value, nil
}

// GetTokenAccountsByOwner lists the token accounts of owner for programID,
// requesting jsonParsed encoding. Accounts the node still returns in binary
// form get a nil ParsedData.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, programID solana.PublicKey) ([]core.TokenAccountRecord, error) {
	config := &rpc.GetTokenAccountsConfig{
		ProgramId: &programID,
	}
	opts := &rpc.GetTokenAccountsOpts{
		Encoding: solana.EncodingJSONParsed,
	}
	accts, err := c.rpcClient.GetTokenAccountsByOwner(ctx, owner, config, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts by owner %s: %w", owner, err)
	}

	records := make([]core.TokenAccountRecord, 0, len(accts.Value))
	for _, rawAcct := range accts.Value {
		if rawAcct == nil {
			continue
		}
		record := core.TokenAccountRecord{Pubkey: rawAcct.Pubkey.String()}
		if rawAcct.Account.Data != nil {
			// GetRawJSON() is nil unless the data came back as a JSON object.
			record.ParsedData = rawAcct.Account.Data.GetRawJSON()
		}
		records = append(records, record)
	}
	return records, nil
}

package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	bin "github.com/gagliardetto/binary"
	tokenmetadata "github.com/gagliardetto/metaplex-go/clients/token-metadata"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/hunterwarburton/walletproxy/internal/directory"
	"github.com/hunterwarburton/walletproxy/internal/logger"
	"golang.org/x/sync/errgroup"
)

// MetaplexTokenMetadataProgramID is the program ID for the Metaplex Token Metadata program.
const MetaplexTokenMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

var metaplexProgramID = solana.MustPublicKeyFromBase58(MetaplexTokenMetadataProgramID)

// maxOffChainBody bounds the off-chain metadata document we are willing to read.
const maxOffChainBody = 1 << 20

// ErrMetadataNotFound is returned when a mint has no Metaplex metadata account.
var ErrMetadataNotFound = errors.New("metaplex metadata not found")

// offChainJSON represents the JSON document typically hosted at Metadata.Data.Uri.
// We only include fields we're interested in.
type offChainJSON struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  string `json:"image"` // This is often the logo URI
}

// TokenInfo combines on-chain Metaplex data with its off-chain JSON.
type TokenInfo struct {
	MintAddress   string
	OnChainName   string
	OnChainSymbol string
	OffChainURI   string

	ResolvedName     string
	ResolvedSymbol   string
	ResolvedImageURI string
}

// Entry converts the info to a directory entry, preferring the off-chain
// name and symbol and falling back to the on-chain ones.
func (i *TokenInfo) Entry() directory.Entry {
	var e directory.Entry
	if name := firstNonEmpty(i.ResolvedName, i.OnChainName); name != "" {
		e.Name = &name
	}
	if symbol := firstNonEmpty(i.ResolvedSymbol, i.OnChainSymbol); symbol != "" {
		e.Symbol = &symbol
	}
	if i.ResolvedImageURI != "" {
		image := i.ResolvedImageURI
		e.ImageURI = &image
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// deriveMetaplexMetadataPDA derives the Metaplex Token Metadata PDA for a given mint.
func deriveMetaplexMetadataPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			metaplexProgramID.Bytes(),
			mint.Bytes(),
		},
		metaplexProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find Metaplex metadata PDA: %w", err)
	}
	return pda, nil
}

// GetTokenMetadata fetches and decodes the Metaplex metadata of a mint, then
// fetches the off-chain JSON from its URI. An unreachable or malformed
// off-chain document is not an error: the on-chain fields are still returned.
func (c *Client) GetTokenMetadata(ctx context.Context, mintAddress string) (*TokenInfo, error) {
	mintPk, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address '%s': %w", mintAddress, err)
	}

	metadataPDA, err := deriveMetaplexMetadataPDA(mintPk)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, metadataPDA)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("mint %s: %w", mintAddress, ErrMetadataNotFound)
		}
		return nil, fmt.Errorf("RPC error fetching Metaplex metadata account %s for mint %s: %w", metadataPDA, mintAddress, err)
	}
	if accountInfo == nil || accountInfo.Value == nil {
		return nil, fmt.Errorf("mint %s: %w", mintAddress, ErrMetadataNotFound)
	}
	if accountInfo.Value.Owner != metaplexProgramID {
		return nil, fmt.Errorf("Metaplex metadata account %s has wrong owner %s", metadataPDA, accountInfo.Value.Owner)
	}

	accountDataBytes := accountInfo.Value.Data.GetBinary()
	if accountDataBytes == nil {
		return nil, fmt.Errorf("account data is nil for Metaplex metadata PDA %s", metadataPDA)
	}

	var onChainMeta tokenmetadata.Metadata
	if err := bin.NewBorshDecoder(accountDataBytes).Decode(&onChainMeta); err != nil {
		return nil, fmt.Errorf("failed to deserialize on-chain Metaplex metadata for mint %s: %w", mintAddress, err)
	}

	// On-chain strings are padded with NUL bytes.
	info := &TokenInfo{
		MintAddress:   mintAddress,
		OnChainName:   strings.TrimRight(onChainMeta.Data.Name, "\x00"),
		OnChainSymbol: strings.TrimRight(onChainMeta.Data.Symbol, "\x00"),
		OffChainURI:   strings.TrimSpace(strings.TrimRight(onChainMeta.Data.Uri, "\x00")),
	}

	if info.OffChainURI == "" {
		return info, nil
	}
	offChain, err := c.fetchOffChainJSON(ctx, info.OffChainURI)
	if err != nil {
		logger.Warn("Failed to fetch off-chain metadata for mint %s (URI: %s): %v", mintAddress, info.OffChainURI, err)
		return info, nil
	}
	info.ResolvedName = strings.TrimRight(offChain.Name, "\x00")
	info.ResolvedSymbol = strings.TrimRight(offChain.Symbol, "\x00")
	info.ResolvedImageURI = offChain.Image
	return info, nil
}

func (c *Client) fetchOffChainJSON(ctx context.Context, uri string) (*offChainJSON, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOffChainBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var doc offChainJSON
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	return &doc, nil
}

// BuildDirectory resolves metadata for every mint with at most concurrency
// requests in flight. Mints that fail are reported in the returned error
// slice and left out of the result; they never abort the whole build.
func (c *Client) BuildDirectory(ctx context.Context, mints []string, concurrency int) (map[string]directory.Entry, []error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		entries = make(map[string]directory.Entry, len(mints))
		errs    []error
	)

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, mint := range mints {
		g.Go(func() error {
			info, err := c.GetTokenMetadata(ctx, mint)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			entries[mint] = info.Entry()
			logger.Debug("Resolved metadata for mint %s", mint)
			return nil
		})
	}
	_ = g.Wait()

	return entries, errs
}

// Package portfolio synthesizes the wallet API's portfolio/tokens response
// from live chain state and the local token metadata directory.
package portfolio

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/hunterwarburton/walletproxy/internal/core"
	"github.com/hunterwarburton/walletproxy/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Native SOL is synthesized rather than read from the token account list.
const (
	NativeName     = "Solana"
	NativeSymbol   = "SOL"
	NativeDecimals = 9
	NativeImageURI = "https://raw.githubusercontent.com/trustwallet/assets/master/blockchains/solana/info/logo.png"
)

// NativeMint is the all-zero public key the wallet API uses for SOL.
var NativeMint = solana.PublicKey{}.String()

// Synthesizer builds portfolio responses.
type Synthesizer struct {
	chain     core.ChainClient
	directory core.MetadataDirectory
	programID solana.PublicKey
}

// NewSynthesizer creates a synthesizer that lists SPL Token program accounts.
func NewSynthesizer(chain core.ChainClient, dir core.MetadataDirectory) *Synthesizer {
	return &Synthesizer{
		chain:     chain,
		directory: dir,
		programID: solana.TokenProgramID,
	}
}

// Tokens returns the portfolio of owner. The balance and token account calls
// run concurrently; a failure of either degrades to a zero balance or an empty
// account list instead of failing the whole response.
func (s *Synthesizer) Tokens(ctx context.Context, owner solana.PublicKey) *TokensResponse {
	var (
		balance  uint64
		accounts []core.TokenAccountRecord
	)

	// Neither task returns an error, so one failing never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		defer recoverTask("balance lookup", owner)
		b, err := s.chain.GetBalance(ctx, owner)
		if err != nil {
			logger.Warn("Balance lookup for %s failed, using 0: %v", owner, err)
			return nil
		}
		balance = b
		return nil
	})
	g.Go(func() error {
		defer recoverTask("token account lookup", owner)
		accts, err := s.chain.GetTokenAccountsByOwner(ctx, owner, s.programID)
		if err != nil {
			logger.Warn("Token account lookup for %s failed, using none: %v", owner, err)
			return nil
		}
		accounts = accts
		return nil
	})
	_ = g.Wait()

	tokens := make([]Token, 0, len(accounts)+1)
	tokens = append(tokens, NativeToken(owner, balance))
	for _, record := range accounts {
		token, ok := s.splToken(record)
		if ok {
			tokens = append(tokens, token)
		}
	}

	logger.Debug("Synthesized portfolio for %s: %d lamports, %d token accounts, %d tokens",
		owner, balance, len(accounts), len(tokens))
	return &TokensResponse{
		Tokens: tokens,
		Errors: []string{},
	}
}

// recoverTask keeps a panicking RPC call from taking the process down; the
// call's result stays at its zero default.
func recoverTask(name string, owner solana.PublicKey) {
	if r := recover(); r != nil {
		logger.Error("%s for %s panicked, using default: %v", name, owner, r)
	}
}

// NativeToken builds the SOL entry whose single account is the wallet itself.
func NativeToken(owner solana.PublicKey, lamports uint64) Token {
	uiAmount := float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
	return Token{
		Name:     strPtr(NativeName),
		Symbol:   strPtr(NativeSymbol),
		Decimals: NativeDecimals,
		Mint:     NativeMint,
		ImageURI: strPtr(NativeImageURI),
		Accounts: []TokenAccount{{
			Pubkey:   owner.String(),
			Amount:   formatUint(lamports),
			UIAmount: &uiAmount,
		}},
		Verified: boolPtr(true),
	}
}

// splToken merges one token account with its directory metadata. Accounts
// without parsed data, or whose parsed data is not a token account, are skipped.
func (s *Synthesizer) splToken(record core.TokenAccountRecord) (Token, bool) {
	if record.ParsedData == nil {
		logger.Debug("Skipping token account %s: data not in parsed form", record.Pubkey)
		return Token{}, false
	}
	parsed, err := DecodeParsedTokenAccount(record.ParsedData)
	if err != nil {
		logger.Warn("Skipping token account %s: %v", record.Pubkey, err)
		return Token{}, false
	}

	meta, verified := s.directory.Lookup(parsed.Mint)
	return Token{
		Name:     meta.Name,
		Symbol:   meta.Symbol,
		Decimals: parsed.Decimals,
		Mint:     parsed.Mint,
		ImageURI: meta.ImageURI,
		Accounts: []TokenAccount{{
			Pubkey:   record.Pubkey,
			Amount:   parsed.Amount,
			UIAmount: parsed.UIAmount,
		}},
		Verified: boolPtr(verified),
	}, true
}

package core

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// ChainClient defines the subset of the Solana JSON-RPC API the portfolio
// synthesizer needs.
type ChainClient interface {
	// GetBalance returns the native balance of owner in lamports.
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	// GetTokenAccountsByOwner returns the token accounts of owner that belong
	// to programID, in the order the node returned them.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID solana.PublicKey) ([]TokenAccountRecord, error)
}

// MetadataDirectory defines read access to the local token metadata directory.
type MetadataDirectory interface {
	Lookup(mint string) (TokenMetadata, bool)
}

package main

import (
	"strings"
	"testing"

	"github.com/hunterwarburton/walletproxy/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMints(t *testing.T) {
	input := `
# stablecoins
EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
  Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB

DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263
`
	mints, err := readMints(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	}, mints)
}

func TestRouteSummary(t *testing.T) {
	assert.Equal(t,
		"rpc=[solflare.network failover.solflare.com] portfolio=wallet-api.solflare.com/v3/portfolio/tokens/ token-list=token-list-api.solana.cloud/v1/mints",
		routeSummary(routing.DefaultTable()))
}

func TestReadMints_Empty(t *testing.T) {
	mints, err := readMints(strings.NewReader("\n# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, mints)
}

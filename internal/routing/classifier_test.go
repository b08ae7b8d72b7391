package routing

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "7MMRAQ9dbHFVRHtWaNVrZKi9XNP4ji9uP2qi9RQ5ngEE"

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{"plain", "/v3/portfolio/tokens/ABC123", "ABC123", true},
		{"stops at slash", "/v3/portfolio/tokens/ABC123/extra", "ABC123", true},
		{"stops at query", "/v3/portfolio/tokens/ABC123?network=mainnet", "ABC123", true},
		{"empty segment", "/v3/portfolio/tokens/", "", false},
		{"other prefix", "/v2/portfolio/tokens/ABC123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAddress(tt.path, "/v3/portfolio/tokens/")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAddress_FromURL(t *testing.T) {
	u := mustParse(t, "https://wallet-api.solflare.com/v3/portfolio/tokens/ABC123?network=mainnet&currency=USD")
	got, ok := ExtractAddress(u.EscapedPath(), "/v3/portfolio/tokens/")
	require.True(t, ok)
	assert.Equal(t, "ABC123", got)
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultTable())

	tests := []struct {
		name    string
		method  string
		raw     string
		want    Kind
		address string
	}{
		{"rpc host", http.MethodPost, "https://mainnet.solflare.network/", RPCForward, ""},
		{"rpc apex host", http.MethodPost, "https://solflare.network/?cluster=mainnet", RPCForward, ""},
		{"failover host", http.MethodPost, "https://failover.solflare.com/", RPCForward, ""},
		{"portfolio", http.MethodGet, "https://wallet-api.solflare.com/v3/portfolio/tokens/" + wallet + "?network=mainnet&currency=USD", PortfolioQuery, wallet},
		{"portfolio bad address", http.MethodGet, "https://wallet-api.solflare.com/v3/portfolio/tokens/ABC123?network=mainnet", Passthrough, ""},
		{"portfolio no address", http.MethodGet, "https://wallet-api.solflare.com/v3/portfolio/tokens/", Passthrough, ""},
		{"old portfolio version", http.MethodGet, "https://wallet-api.solflare.com/v2/portfolio/tokens/" + wallet, Passthrough, ""},
		{"token list", http.MethodPost, "https://token-list-api.solana.cloud/v1/mints?chainId=101", TokenListLookup, ""},
		{"token list get", http.MethodGet, "https://token-list-api.solana.cloud/v1/mints", TokenListLookup, ""},
		{"unrelated", http.MethodGet, "https://example.com/v3/portfolio/tokens/" + wallet, Passthrough, ""},
		{"look-alike host", http.MethodPost, "https://evilsolflare.network/", Passthrough, ""},
		{"connect", http.MethodConnect, "https://mainnet.solflare.network:443", Passthrough, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.method, mustParse(t, tt.raw))
			assert.Equal(t, tt.want, got.Kind, "kind for %s", tt.raw)
			assert.Equal(t, tt.address, got.Address)
		})
	}
}

func TestClassify_RPCWinsOverOtherPatterns(t *testing.T) {
	// A single host serving every API: RPC rules are checked first.
	table := Table{
		RPC:       []Pattern{{Host: "api.example.com"}},
		Portfolio: Pattern{Host: "api.example.com", PathPrefix: "/v3/portfolio/tokens/"},
		TokenList: Pattern{Host: "api.example.com", PathPrefix: "/v1/mints"},
	}
	c := NewClassifier(table)

	for _, raw := range []string{
		"https://api.example.com/v3/portfolio/tokens/" + wallet,
		"https://api.example.com/v1/mints",
		"https://rpc.api.example.com/anything",
	} {
		assert.Equal(t, RPCForward, c.Classify(http.MethodPost, mustParse(t, raw)).Kind, raw)
	}
}

func TestClassify_PortfolioWinsOverTokenList(t *testing.T) {
	table := DefaultTable()
	table.TokenList = Pattern{Host: "wallet-api.solflare.com"}
	c := NewClassifier(table)

	got := c.Classify(http.MethodGet, mustParse(t, "https://wallet-api.solflare.com/v3/portfolio/tokens/"+wallet))
	assert.Equal(t, PortfolioQuery, got.Kind)

	got = c.Classify(http.MethodGet, mustParse(t, "https://wallet-api.solflare.com/v1/prices"))
	assert.Equal(t, TokenListLookup, got.Kind)
}

func TestClassify_HostInQueryDoesNotMatch(t *testing.T) {
	c := NewClassifier(DefaultTable())

	got := c.Classify(http.MethodPost, mustParse(t, "https://token-list-api.solana.cloud/v1/mints?ref=mainnet.solflare.network"))
	assert.Equal(t, TokenListLookup, got.Kind)

	got = c.Classify(http.MethodGet, mustParse(t, "https://example.com/?next=https://failover.solflare.com/"))
	assert.Equal(t, Passthrough, got.Kind)
}

func TestClassify_ConfigurablePortfolioPrefix(t *testing.T) {
	table := DefaultTable()
	table.Portfolio.PathPrefix = "/v2/portfolio/tokens/"
	c := NewClassifier(table)

	got := c.Classify(http.MethodGet, mustParse(t, "https://wallet-api.solflare.com/v2/portfolio/tokens/"+wallet))
	assert.Equal(t, PortfolioQuery, got.Kind)
	assert.Equal(t, wallet, got.Address)
}

func TestTable_Validate(t *testing.T) {
	require.NoError(t, DefaultTable().Validate())

	bad := DefaultTable()
	bad.RPC = append(bad.RPC, Pattern{PathPrefix: "/rpc"})
	assert.Error(t, bad.Validate())

	bad = DefaultTable()
	bad.Portfolio.PathPrefix = "/v3/portfolio/tokens"
	assert.Error(t, bad.Validate())

	bad = DefaultTable()
	bad.TokenList.Host = ""
	assert.Error(t, bad.Validate())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "passthrough", Passthrough.String())
	assert.Equal(t, "rpc-forward", RPCForward.String())
	assert.Equal(t, "portfolio", PortfolioQuery.String())
	assert.Equal(t, "token-list", TokenListLookup.String())
}

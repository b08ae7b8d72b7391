// Package routing decides which virtual handler owns an intercepted request.
package routing

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/hunterwarburton/walletproxy/internal/logger"
)

// Kind identifies the handler a request is routed to.
type Kind int

const (
	Passthrough Kind = iota
	RPCForward
	PortfolioQuery
	TokenListLookup
)

func (k Kind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case RPCForward:
		return "rpc-forward"
	case PortfolioQuery:
		return "portfolio"
	case TokenListLookup:
		return "token-list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Route is the result of classifying a request.
type Route struct {
	Kind Kind
	// Address is the wallet address for PortfolioQuery routes.
	Address string
}

// Pattern matches a request destination by host and path prefix.
// Host matches exactly or as a dot-delimited suffix, so "solflare.network"
// also covers "mainnet.solflare.network". An empty PathPrefix matches any path.
type Pattern struct {
	Host       string `yaml:"host"`
	PathPrefix string `yaml:"path_prefix"`
}

// Match reports whether u is covered by the pattern.
func (p Pattern) Match(u *url.URL) bool {
	if u == nil || p.Host == "" {
		return false
	}
	host := u.Hostname()
	if host != p.Host && !strings.HasSuffix(host, "."+p.Host) {
		return false
	}
	return strings.HasPrefix(u.EscapedPath(), p.PathPrefix)
}

func (p Pattern) String() string {
	return p.Host + p.PathPrefix
}

// Table lists the patterns owned by each virtual handler.
type Table struct {
	RPC       []Pattern `yaml:"rpc"`
	Portfolio Pattern   `yaml:"portfolio"`
	TokenList Pattern   `yaml:"token_list"`
}

// DefaultTable returns the routes of the Solflare wallet.
func DefaultTable() Table {
	return Table{
		RPC: []Pattern{
			{Host: "solflare.network"},
			{Host: "failover.solflare.com"},
		},
		Portfolio: Pattern{Host: "wallet-api.solflare.com", PathPrefix: "/v3/portfolio/tokens/"},
		TokenList: Pattern{Host: "token-list-api.solana.cloud", PathPrefix: "/v1/mints"},
	}
}

// Validate checks that every pattern has a host and that the portfolio prefix
// ends at a path separator, which address extraction relies on.
func (t Table) Validate() error {
	for i, p := range t.RPC {
		if p.Host == "" {
			return fmt.Errorf("rpc route %d: host is required", i)
		}
	}
	if t.Portfolio.Host == "" {
		return fmt.Errorf("portfolio route: host is required")
	}
	if !strings.HasSuffix(t.Portfolio.PathPrefix, "/") {
		return fmt.Errorf("portfolio route: path prefix %q must end with /", t.Portfolio.PathPrefix)
	}
	if t.TokenList.Host == "" {
		return fmt.Errorf("token list route: host is required")
	}
	return nil
}

type rule struct {
	kind    Kind
	pattern Pattern
}

// Classifier evaluates an ordered rule list. RPC patterns come first, then the
// portfolio pattern, then the token list pattern; the first match wins.
type Classifier struct {
	rules           []rule
	portfolioPrefix string
}

// NewClassifier creates a classifier for table.
func NewClassifier(table Table) *Classifier {
	rules := make([]rule, 0, len(table.RPC)+2)
	for _, p := range table.RPC {
		rules = append(rules, rule{kind: RPCForward, pattern: p})
	}
	rules = append(rules,
		rule{kind: PortfolioQuery, pattern: table.Portfolio},
		rule{kind: TokenListLookup, pattern: table.TokenList},
	)
	return &Classifier{rules: rules, portfolioPrefix: table.Portfolio.PathPrefix}
}

// Classify returns the route for a request. It never fails: anything that is
// not recognized, including a portfolio URL with a malformed wallet address,
// is passed through.
func (c *Classifier) Classify(method string, u *url.URL) Route {
	if method == http.MethodConnect || u == nil {
		return Route{Kind: Passthrough}
	}

	for _, r := range c.rules {
		if !r.pattern.Match(u) {
			continue
		}
		if r.kind != PortfolioQuery {
			return Route{Kind: r.kind}
		}

		address, ok := ExtractAddress(u.EscapedPath(), c.portfolioPrefix)
		if !ok {
			logger.Warn("No wallet address in portfolio request %s, passing through", u.Redacted())
			return Route{Kind: Passthrough}
		}
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			logger.Warn("Invalid wallet address %q in %s, passing through: %v", address, u.Redacted(), err)
			return Route{Kind: Passthrough}
		}
		return Route{Kind: PortfolioQuery, Address: address}
	}
	return Route{Kind: Passthrough}
}

// ExtractAddress returns the path segment that follows prefix, up to the next
// "/" or "?". It reports false if path does not start with prefix or the
// segment is empty.
func ExtractAddress(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := path[len(prefix):]
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	return rest, rest != ""
}

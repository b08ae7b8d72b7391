package portfolio

// The types below reproduce the wallet API's portfolio/tokens response.
// Optional fields are pointers without omitempty: the upstream API sends
// explicit nulls and wallet clients rely on the keys being present.

// TokensResponse is the body of a portfolio/tokens response.
type TokensResponse struct {
	Tokens   []Token     `json:"tokens"`
	Value    TokensValue `json:"value"`
	SolValue TokensValue `json:"solValue"`
	Errors   []string    `json:"errors"`
}

// Token is one asset held by the wallet.
type Token struct {
	Name          *string        `json:"name"`
	Symbol        *string        `json:"symbol"`
	Decimals      uint8          `json:"decimals"`
	Mint          string         `json:"mint"`
	ImageURI      *string        `json:"imageUri"`
	Accounts      []TokenAccount `json:"accounts"`
	CoingeckoID   *string        `json:"coingeckoId"`
	TotalUIAmount *float64       `json:"totalUiAmount"`
	Verified      *bool          `json:"verified"`
	Price         *TokenPrice    `json:"price"`
	SolPrice      *TokenSolPrice `json:"solPrice"`
}

// TokenAccount is a single on-chain holding of a token.
type TokenAccount struct {
	Pubkey     string      `json:"pubkey"`
	Amount     string      `json:"amount"`
	UIAmount   *float64    `json:"uiAmount"`
	Delegation *Delegation `json:"delegation"`
}

// Delegation is reserved; it is never populated.
type Delegation struct{}

// TokenPrice is reserved for a pricing collaborator; it is never populated.
type TokenPrice struct {
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	USDPrice  float64 `json:"usdPrice"`
	USDChange float64 `json:"usdChange"`
	Currency  string  `json:"currency"`
}

// TokenSolPrice is reserved for a pricing collaborator; it is never populated.
type TokenSolPrice struct {
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

// TokensValue is an aggregate valuation. Always zero.
type TokensValue struct {
	Total      float64 `json:"total"`
	Change     float64 `json:"change"`
	Percentage float64 `json:"percentage"`
}

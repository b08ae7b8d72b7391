package core

import "encoding/json"

// TokenMetadata is the display metadata the local directory holds for a mint.
// Moved here from internal/directory so that interfaces can refer to it
// without import cycles.
type TokenMetadata struct {
	Name     *string `json:"name"`
	Symbol   *string `json:"symbol"`
	ImageURI *string `json:"imageUri"`
}

// TokenAccountRecord is one entry of a getTokenAccountsByOwner result.
type TokenAccountRecord struct {
	Pubkey string `json:"pubkey"`
	// ParsedData holds the jsonParsed account data. It is nil when the node
	// returned the account in binary form.
	ParsedData json.RawMessage `json:"parsedData,omitempty"`
}

package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotTokenAccount is returned for parsed data that lacks the token account fields.
var ErrNotTokenAccount = errors.New("parsed data is not a token account")

// ParsedTokenAccount is the subset of a jsonParsed SPL token account we use.
type ParsedTokenAccount struct {
	Mint     string
	Amount   string
	Decimals uint8
	UIAmount *float64
}

type parsedEnvelope struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount *struct {
				Amount   string   `json:"amount"`
				Decimals uint8    `json:"decimals"`
				UIAmount *float64 `json:"uiAmount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// DecodeParsedTokenAccount decodes {parsed:{info:{mint, tokenAmount}}}.
func DecodeParsedTokenAccount(raw json.RawMessage) (ParsedTokenAccount, error) {
	var env parsedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ParsedTokenAccount{}, fmt.Errorf("failed to decode parsed token account: %w", err)
	}

	info := env.Parsed.Info
	if info.Mint == "" || info.TokenAmount == nil {
		return ParsedTokenAccount{}, ErrNotTokenAccount
	}
	return ParsedTokenAccount{
		Mint:     info.Mint,
		Amount:   info.TokenAmount.Amount,
		Decimals: info.TokenAmount.Decimals,
		UIAmount: info.TokenAmount.UIAmount,
	}, nil
}

// Package tokenlist answers the token list API's mint lookup from the local
// token metadata directory.
package tokenlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hunterwarburton/walletproxy/internal/core"
)

// ErrMalformedQuery is returned when a request body is not a valid Query.
var ErrMalformedQuery = errors.New("malformed token list query")

// maxQueryBody bounds the request body we decode.
const maxQueryBody = 1 << 20

// Query is the body of a POST /v1/mints request.
type Query struct {
	Addresses []string `json:"addresses"`
}

// Item describes one mint found in the directory.
type Item struct {
	Address string  `json:"address"`
	Name    *string `json:"name"`
	Symbol  *string `json:"symbol"`
	LogoURI *string `json:"logoURI"`
}

// Result is the body of a /v1/mints response.
type Result struct {
	Content []Item `json:"content"`
}

// DecodeQuery reads a Query from r. The addresses key must be present and
// hold an array of strings.
func DecodeQuery(r io.Reader) (Query, error) {
	var raw struct {
		Addresses *[]string `json:"addresses"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxQueryBody)).Decode(&raw); err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}
	if raw.Addresses == nil {
		return Query{}, fmt.Errorf("%w: missing addresses", ErrMalformedQuery)
	}
	return Query{Addresses: *raw.Addresses}, nil
}

// Resolver looks mints up in the directory.
type Resolver struct {
	directory core.MetadataDirectory
}

// NewResolver creates a resolver over dir.
func NewResolver(dir core.MetadataDirectory) *Resolver {
	return &Resolver{directory: dir}
}

// Resolve returns an item per address found in the directory, in input order.
// Duplicates are looked up independently and unknown addresses are dropped.
func (r *Resolver) Resolve(q Query) Result {
	items := make([]Item, 0, len(q.Addresses))
	for _, address := range q.Addresses {
		meta, ok := r.directory.Lookup(address)
		if !ok {
			continue
		}
		items = append(items, Item{
			Address: address,
			Name:    meta.Name,
			Symbol:  meta.Symbol,
			LogoURI: meta.ImageURI,
		})
	}
	return Result{Content: items}
}

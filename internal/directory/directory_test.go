package directory

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func strPtr(s string) *string { return &s }

func TestLoad_EmptyPath(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())

	_, ok := d.Lookup(usdcMint)
	assert.False(t, ok)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	content := `{
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {"name": "USD Coin", "symbol": "USDC", "imageUri": "https://example.com/usdc.png"},
		"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {"symbol": "USDT"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	e, ok := d.Lookup(usdcMint)
	require.True(t, ok)
	require.NotNil(t, e.Name)
	assert.Equal(t, "USD Coin", *e.Name)
	assert.Equal(t, "USDC", *e.Symbol)
	assert.Equal(t, "https://example.com/usdc.png", *e.ImageURI)

	usdt, ok := d.Lookup("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
	require.True(t, ok)
	assert.Nil(t, usdt.Name)
	assert.Nil(t, usdt.ImageURI)
	assert.Equal(t, "USDT", *usdt.Symbol)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestNew_CopiesEntries(t *testing.T) {
	src := map[string]Entry{usdcMint: {Symbol: strPtr("USDC")}}
	d := New(src)
	delete(src, usdcMint)

	_, ok := d.Lookup(usdcMint)
	assert.True(t, ok)
}

func TestWriteRead(t *testing.T) {
	entries := map[string]Entry{
		usdcMint: {Name: strPtr("USD Coin"), Symbol: strPtr("USDC")},
		"So11111111111111111111111111111111111111112": {Name: strPtr("Wrapped SOL")},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))
	assert.True(t, strings.Contains(buf.String(), `"imageUri": null`))

	d, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{usdcMint, "So11111111111111111111111111111111111111112"}, d.Mints())

	e, ok := d.Lookup(usdcMint)
	require.True(t, ok)
	assert.Equal(t, entries[usdcMint], e)
}

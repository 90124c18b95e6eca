package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormattersWrapMessage(t *testing.T) {
	formatters := map[string]struct {
		fn     func(string) string
		prefix string
	}{
		"Success": {Success, "✓"},
		"Warn":    {Warn, "⚠"},
		"Err":     {Err, "✗"},
		"Info":    {Info, "ℹ"},
		"Hint":    {Hint, "→"},
	}
	for name, f := range formatters {
		t.Run(name, func(t *testing.T) {
			result := f.fn("test message")
			assert.Contains(t, result, f.prefix)
			assert.Contains(t, result, "test message")
		})
	}
}

func TestPlainFormattersKeepInput(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
		"URI":       URI,
	} {
		assert.Contains(t, fn("test"), "test", name)
	}
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))
	assert.Equal(t, "0x1234…5678", TruncateAddr("0x1234567890abcdef1234567890abcdef12345678"))
}

func TestTruncateURI(t *testing.T) {
	assert.Equal(t, "ipfs://bafkre…wpea", TruncateURI("ipfs://bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku3wpea"))
	assert.Equal(t, "ipfs://short", TruncateURI("ipfs://short"))
	assert.Equal(t, "https://example.com/a/very/long/path", TruncateURI("https://example.com/a/very/long/path"))
}

func TestBanner(t *testing.T) {
	b := Banner("1.2.3")
	assert.Contains(t, b, "v1.2.3")
	assert.Contains(t, b, "mint on-chain")
}

package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize(" voo ")
	require.NoError(t, err)
	assert.Equal(t, "VOO", got)

	got, err = Normalize("^gspc")
	require.NoError(t, err)
	assert.Equal(t, "^GSPC", got)

	_, err = Normalize("  ")
	assert.Error(t, err)

	_, err = Normalize("bad ticker")
	assert.Error(t, err)
}

func TestIsValidSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"VOO", true},
		{"^GSPC", true},
		{"BRK.B", true},
		{"BRK-B", true},
		{"EURUSD=X", true},
		{"0050.TW", true},
		{"", false},
		{"A^B", false},
		{"VOO/QQQ", false},
		{"VOO,QQQ", false},
		{"ABCDEFGHIJKLM", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidSymbol(tt.symbol), tt.symbol)
	}
}

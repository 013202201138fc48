package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaffleKindPool(t *testing.T) {
	tests := []struct {
		kind  RaffleKind
		width int
		size  int
		first int
	}{
		{KindGroup, 2, 25, 1},
		{KindTens, 2, 100, 0},
		{KindHundreds, 3, 1000, 0},
		{KindThousands, 4, 10000, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.width, tt.kind.Width())
			assert.Equal(t, tt.size, tt.kind.PoolSize())
			assert.Equal(t, tt.first, tt.kind.FirstNumber())
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "07", KindTens.FormatNumber(7))
	assert.Equal(t, "01", KindGroup.FormatNumber(1))
	assert.Equal(t, "042", KindHundreds.FormatNumber(42))
	assert.Equal(t, "0042", KindThousands.FormatNumber(42))
	assert.Equal(t, "9999", KindThousands.FormatNumber(9999))
}

func TestNormalizeResult(t *testing.T) {
	tests := []struct {
		name string
		kind RaffleKind
		raw  string
		want string
	}{
		{"milhar pads short values", KindThousands, "42", "0042"},
		{"milhar keeps four digits", KindThousands, "1234", "1234"},
		{"milhar takes trailing digits of long values", KindThousands, "51234", "1234"},
		{"centena takes last three", KindHundreds, "51234", "234"},
		{"dezena pads single digit", KindTens, "7", "07"},
		{"dezena takes last two", KindTens, "1234", "34"},
		{"grupo pads to two", KindGroup, "7", "07"},
		{"grupo accepts two digits", KindGroup, "25", "25"},
		{"whitespace is trimmed", KindTens, " 07 ", "07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.kind.NormalizeResult(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeResultRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "12a4", "abcd"} {
		_, err := KindThousands.NormalizeResult(raw)
		assert.ErrorIs(t, err, ErrInvalidResultValue, "raw=%q", raw)
	}
}

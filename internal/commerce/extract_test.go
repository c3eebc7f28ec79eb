package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrderNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"hash prefix", "Where is #45612?", "45612"},
		{"order word", "my order 88231 never came", "88231"},
		{"order with hash and space", "Order # 10001", "10001"},
		{"order number phrase", "order number: 77777", "77777"},
		{"confirmation", "Confirmation: #55555", "55555"},
		{"too short", "order #123", ""},
		{"nothing", "hello there", ""},
		{"first pattern wins", "order 11111 and #22222", "22222"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractOrderNumber(tt.input))
		})
	}
}

func TestFindOrderNumber(t *testing.T) {
	t.Run("body wins over subject", func(t *testing.T) {
		assert.Equal(t, "12345", FindOrderNumber("order #12345 update", "#99999"))
	})

	t.Run("falls back to subject", func(t *testing.T) {
		assert.Equal(t, "99999", FindOrderNumber("no number here", "Re: Order #99999"))
	})

	t.Run("none found", func(t *testing.T) {
		assert.Empty(t, FindOrderNumber("", ""))
	})
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "jane.doe@example.co.uk", ExtractEmail("Jane Doe <jane.doe@example.co.uk>"))
	assert.Empty(t, ExtractEmail("no address"))
}

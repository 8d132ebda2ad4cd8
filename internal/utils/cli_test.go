package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStringIntoCommandAndArguments(t *testing.T) {
	tests := []struct {
		name string
		line string
		cmd  string
		args []string
	}{
		{"command only", "LIST", "list", []string{}},
		{"put", "PUT 0 foo bar", "put", []string{"0", "foo", "bar"}},
		{"quoted value", `put 1 city "new york"`, "put", []string{"1", "city", "new york"}},
		{"single quotes", `get 'a key'`, "get", []string{"a key"}},
		{"escaped space", `del a\ b`, "del", []string{"a b"}},
		{"empty quoted value", `put 0 k ""`, "put", []string{"0", "k", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := SplitStringIntoCommandAndArguments(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}

	t.Run("unterminated quote", func(t *testing.T) {
		_, _, err := SplitStringIntoCommandAndArguments(`put 0 k "oops`)
		assert.Error(t, err)
	})

	t.Run("blank line", func(t *testing.T) {
		_, _, err := SplitStringIntoCommandAndArguments("   ")
		assert.Error(t, err)
	})
}

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsString(t *testing.T) {
	tests := map[string]struct {
		args     []interface{}
		expected string
	}{
		"no-args": {
			expected: "",
		},
		"mixed": {
			args:     []interface{}{"heart", 2023, []byte("x"), 1.5},
			expected: `1:"heart" 2:2023 3:"x" 4:1.5`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, argsString(tt.args...))
		})
	}
}

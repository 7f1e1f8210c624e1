package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, nil},
		{"trims and drops blanks", []string{"  ops ", "", "   "}, []string{"ops"}},
		{"keeps first occurrence", []string{"ops", "backup", " ops"}, []string{"ops", "backup"}},
		{"case sensitive", []string{"Ops", "ops"}, []string{"Ops", "ops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}

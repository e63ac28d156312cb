package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "a:9092", []string{"a:9092"}},
		{"trims and drops empties", " a:9092, b:9092,, ", []string{"a:9092", "b:9092"}},
		{"dedupes keeping first", "b,a,b,a", []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.raw, ","))
		})
	}
}

func TestDedupeAndTrimKeepsEmptyInput(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Empty(t, DedupeAndTrim([]string{" ", ""}))
}

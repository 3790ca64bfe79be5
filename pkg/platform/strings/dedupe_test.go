package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "trims and keeps order", input: []string{" view_only ", "access_login"}, expected: []string{"view_only", "access_login"}},
		{name: "drops repeats after trimming", input: []string{"view_only", "view_only ", "superuser"}, expected: []string{"view_only", "superuser"}},
		{name: "drops blanks", input: []string{"", "  ", "view_only"}, expected: []string{"view_only"}},
		{name: "case is significant", input: []string{"View_Only", "view_only"}, expected: []string{"View_Only", "view_only"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList("   "))
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitList("a:9092, b:9092,,a:9092"))
}

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
		{"nil slice", nil, nil},
		{"only blanks", []string{"", "  "}, nil},
		{"trims and keeps order", []string{" b ", "a", "b"}, []string{"b", "a"}},
		{"case sensitive", []string{"Foo", "foo"}, []string{"Foo", "foo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList("", ","))
	assert.Nil(t, SplitList("   ", ","))
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitList("a:9092, b:9092,,a:9092", ","))
	assert.Equal(t, []string{"x", "y"}, SplitList("x\ny\n\n", "\n"))
}

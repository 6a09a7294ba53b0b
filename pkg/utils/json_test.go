package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustJsonString(t *testing.T) {
	assert.Equal(t, `["a","b"]`, MustJsonString([]string{"a", "b"}))
	assert.Equal(t, "null", MustJsonString([]string(nil)))
}

func TestParseStringList(t *testing.T) {
	assert.Nil(t, ParseStringList(""))
	assert.Nil(t, ParseStringList("null"))
	assert.Nil(t, ParseStringList("{broken"))
	assert.Equal(t, []string{"x"}, ParseStringList(`["x"]`))
}

func TestSliceContains(t *testing.T) {
	assert.True(t, SliceContains([]string{"a", "b"}, "b"))
	assert.False(t, SliceContains([]string{"a"}, "z"))
	assert.False(t, SliceContains(nil, "a"))
}

package convert_test

import (
	"testing"

	"github.com/mineclover/depgraph/pkg/convert"
	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{42, 42, true},
		{int64(99), 99, true},
		{3.14, 3.14, true},
		{"1.5e-3", 0.0015, true},
		{"invalid", 0, false},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := convert.ToFloat64(c.in)
		assert.Equal(t, c.ok, ok)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9)
		}
	}
}

func TestToInt64(t *testing.T) {
	got, ok := convert.ToInt64(3.7)
	assert.True(t, ok)
	assert.Equal(t, int64(3), got)

	got, ok = convert.ToInt64("123")
	assert.True(t, ok)
	assert.Equal(t, int64(123), got)

	_, ok = convert.ToInt64("invalid")
	assert.False(t, ok)
}

func TestToStringSlice(t *testing.T) {
	got := convert.ToStringSlice([]interface{}{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, got)

	got = convert.ToStringSlice([]interface{}{"a", 1})
	assert.Nil(t, got)

	got = convert.ToStringSlice([]string{"x", "y"})
	assert.Equal(t, []string{"x", "y"}, got)
}

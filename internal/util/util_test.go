package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	tests := []struct {
		s    string
		subs []string
		all  bool
		any  bool
	}{
		{"tpsvalue", []string{"tps", "value"}, true, true},
		{"tpsvalue", []string{"tps", "rpm"}, false, true},
		{"coolanttemp", []string{"clt", "iat"}, false, false},
		{"anything", nil, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			assert.Equal(t, tt.all, ContainsAll(tt.s, tt.subs...))
			assert.Equal(t, tt.any, ContainsAny(tt.s, tt.subs...))
		})
	}
}

func TestMath(t *testing.T) {
	assert.Equal(t, 3.5, AbsFloat64(-3.5))
	assert.True(t, IsWhole(4200))
	assert.False(t, IsWhole(14.7))
	assert.Equal(t, 95.0, Clamp(120, 0, 95))
	assert.Equal(t, 0.0, Clamp(-1, 0, 95))
}

func TestPtr(t *testing.T) {
	p := Ptr(int64(7))
	assert.Equal(t, int64(7), *p)
}

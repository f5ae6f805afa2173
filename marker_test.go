package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want []Marker
	}{
		{"", nil},
		{"copy", []Marker{"copy"}},
		{"copy,sum", []Marker{"copy", "sum"}},
		{" copy , , sum ", []Marker{"copy", "sum"}},
		{",", []Marker{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMarkers(tt.in), "input %q", tt.in)
	}
}

func TestMarkerSet(t *testing.T) {
	s := NewMarkerSet("copy", "sum")

	assert.True(t, s.Has("copy"))
	assert.True(t, s.Has("sum"))
	assert.False(t, s.Has("required"))
	assert.True(t, NoMarker.IsZero())
	assert.Equal(t, "copy", Marker("copy").String())
}

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/edu-content/pkg/educontent"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		offset     string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{name: "both empty", wantLimit: 50},
		{name: "explicit values", limit: "20", offset: "40", wantLimit: 20, wantOffset: 40},
		{name: "zero limit means default", limit: "0", wantLimit: 50},
		{name: "clamped", limit: "500", wantLimit: 100},
		{name: "limit beyond int range clamped", limit: "99999999999999999999", wantLimit: 100},
		{name: "whitespace trimmed", limit: " 10 ", wantLimit: 10},
		{name: "non-numeric limit", limit: "ten", wantErr: true},
		{name: "NaN limit", limit: "NaN", wantErr: true},
		{name: "fractional offset", offset: "1.5", wantErr: true},
		{name: "negative offset", offset: "-1", wantErr: true},
		{name: "negative limit", limit: "-10", wantErr: true},
		{name: "negative limit beyond int range", limit: "-99999999999999999999", wantErr: true},
		{name: "offset beyond int range", offset: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParsePage(tt.limit, tt.offset, DefaultLimits())
			if tt.wantErr {
				assert.ErrorIs(t, err, educontent.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, page.Limit)
			assert.Equal(t, tt.wantOffset, page.Offset)
		})
	}
}

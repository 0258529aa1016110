package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "yes", want: ModeCompleted},
		{input: " YES ", want: ModeCompleted},
		{input: "No", want: ModeNotCompleted},
		{input: "\tno\n", want: ModeNotCompleted},
		{input: "", wantErr: true},
		{input: "maybe", wantErr: true},
		{input: "y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_ReportsCounts(t *testing.T) {
	assert.True(t, ModeCompleted.ReportsCounts())
	assert.False(t, ModeNotCompleted.ReportsCounts())
	assert.Equal(t, ModeCompleted, DefaultMode)
}

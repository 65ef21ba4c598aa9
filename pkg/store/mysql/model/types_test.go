package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchivedYears_Value(t *testing.T) {
	var empty ArchivedYears
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	years := ArchivedYears{{
		YearNumber: 1,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	v, err = years.Value()
	require.NoError(t, err)
	assert.Contains(t, v, `"year_number":1`)
}

func TestArchivedYears_Scan(t *testing.T) {
	raw := `[{"year_number":2,"start_date":"2024-01-01T00:00:00Z","end_date":"2025-01-01T00:00:00Z"}]`

	tests := []struct {
		name    string
		value   interface{}
		want    int
		wantErr bool
	}{
		{name: "nil", value: nil, want: 0},
		{name: "string", value: raw, want: 1},
		{name: "bytes", value: []byte(raw), want: 1},
		{name: "empty array", value: "[]", want: 0},
		{name: "unsupported type", value: 42, wantErr: true},
		{name: "malformed", value: "{", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a ArchivedYears
			err := a.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, a, tt.want)
		})
	}
}

func TestArchivedYears_RoundTrip(t *testing.T) {
	in := ArchivedYears{{YearNumber: 3, StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}}
	v, err := in.Value()
	require.NoError(t, err)

	var out ArchivedYears
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].YearNumber)
	assert.True(t, in[0].StartDate.Equal(out[0].StartDate))
}

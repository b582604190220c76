package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

func TestComputeStatistics(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		decimals int
		wantN    int
		meanCV   string
		meanSD   string
	}{
		{
			name:     "sample sd",
			values:   []float64{2, 4, 4, 4, 5, 5, 7, 9},
			decimals: 2,
			wantN:    8,
			meanCV:   "5.00 (42.8%)",
			meanSD:   "5.00 ± 2.14",
		},
		{
			name:     "single value",
			values:   []float64{3.14159},
			decimals: 3,
			wantN:    1,
			meanCV:   "3.142 (0.0%)",
			meanSD:   "3.142 ± 0.000",
		},
		{
			name:     "non-finite filtered",
			values:   []float64{1, math.NaN(), 3, math.Inf(1), math.Inf(-1)},
			decimals: 1,
			wantN:    2,
			meanCV:   "2.0 (70.7%)",
			meanSD:   "2.0 ± 1.4",
		},
		{
			name:     "zero mean",
			values:   []float64{-1, 1},
			decimals: 0,
			wantN:    2,
			meanCV:   "0 (0.0%)",
			meanSD:   "0 ± 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ComputeStatistics(tt.values, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.wantN, s.N)
			assert.Equal(t, len(tt.values)-tt.wantN, s.Excluded)
			assert.Equal(t, tt.meanCV, s.MeanCV)
			assert.Equal(t, tt.meanSD, s.MeanSD)
			assert.False(t, math.IsNaN(s.CV) || math.IsInf(s.CV, 0))
		})
	}
}

func TestComputeStatisticsFormatProperty(t *testing.T) {
	samples := [][]float64{
		{10.2, 11.7, 9.8},
		{1520, 1710, 1390, 1602},
		{0.0031, 0.0042},
		{250},
	}
	for _, values := range samples {
		for p := 0; p <= 4; p++ {
			s, err := ComputeStatistics(values, p)
			require.NoError(t, err)

			want := fmt.Sprintf("%.*f (%.1f%%)", p, s.Mean, s.CV)
			assert.Equal(t, want, s.MeanCV)
			if len(values) > 1 {
				assert.InDelta(t, 100*s.SD/s.Mean, s.CV, 1e-9)
			} else {
				assert.Zero(t, s.SD)
				assert.Zero(t, s.CV)
			}
		}
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	for _, values := range [][]float64{nil, {}, {math.NaN(), math.Inf(1)}} {
		s, err := ComputeStatistics(values, 2)
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, ErrNoFiniteValues))
	}
}

func TestCalculateStatisticsTool(t *testing.T) {
	r := NewDefaultRegistry(Deps{})
	ctx := context.Background()

	res := r.Dispatch(ctx, model.ToolCall{ID: "1", Name: CalculateStatistics, Arguments: map[string]any{
		"values":    []any{10.0, nil, 20.0, "n/a", 30.0},
		"parameter": "Cmax",
	}}, ExecutionContext{})
	require.False(t, res.IsError, res.Error)
	assert.Equal(t, "Calculated statistics for Cmax (n=3)", res.StepSummary)

	s, ok := res.Content.(*Statistics)
	require.True(t, ok)
	assert.Equal(t, 2, s.Excluded)
	assert.Equal(t, "20.00 (50.0%)", s.MeanCV)

	res = r.Dispatch(ctx, model.ToolCall{ID: "2", Name: CalculateStatistics, Arguments: map[string]any{
		"values": []any{nil, "x"},
	}}, ExecutionContext{})
	require.True(t, res.IsError)
	assert.NotContains(t, res.Text(), "NaN")

	res = r.Dispatch(ctx, model.ToolCall{ID: "3", Name: CalculateStatistics, Arguments: map[string]any{
		"values": []any{1.0}, "decimals": 9.0,
	}}, ExecutionContext{})
	require.True(t, res.IsError)
	assert.Contains(t, res.Error, "decimals")
}

func TestComputeStatisticsOverflow(t *testing.T) {
	for name, values := range map[string][]float64{
		"mean overflows": {1e308, 1e308},
		"sd overflows":   {1e200, -1e200},
	} {
		t.Run(name, func(t *testing.T) {
			s, err := ComputeStatistics(values, 2)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrNonFiniteResult)
		})
	}
}

func TestCalculateStatisticsToolOverflowIsError(t *testing.T) {
	r := NewDefaultRegistry(Deps{})
	res := r.Dispatch(context.Background(), model.ToolCall{ID: "1", Name: CalculateStatistics, Arguments: map[string]any{
		"values": []any{1e308, 1e308},
	}}, ExecutionContext{})

	require.True(t, res.IsError)
	assert.Empty(t, res.StepSummary)
	assert.Contains(t, res.Text(), "overflow")
	assert.NotContains(t, res.Text(), "Inf")
}

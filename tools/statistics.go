package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoFiniteValues is returned when nothing is left after filtering.
	ErrNoFiniteValues = errors.New("no finite numeric values provided")
	// ErrNonFiniteResult is returned when finite inputs overflow the
	// summary, e.g. values near math.MaxFloat64.
	ErrNonFiniteResult = errors.New("statistics overflow: values are too large to summarise")
)

// Statistics summarises a sample. SD uses the n-1 denominator; for n=1 both
// SD and CV are 0, and CV is 0 when the mean is 0.
type Statistics struct {
	Parameter string  `json:"parameter,omitempty"`
	N         int     `json:"n"`
	Excluded  int     `json:"excluded"`
	Mean      float64 `json:"mean"`
	SD        float64 `json:"sd"`
	CV        float64 `json:"cv"`
	MeanCV    string  `json:"meanCv"`
	MeanSD    string  `json:"meanSd"`
}

// ComputeStatistics filters out NaN and ±Inf and summarises the rest.
// Mean and SD are formatted with decimals places, CV always with one.
func ComputeStatistics(values []float64, decimals int) (*Statistics, error) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil, ErrNoFiniteValues
	}

	var mean, sd float64
	if len(finite) == 1 {
		mean = finite[0]
	} else {
		mean, sd = stat.MeanStdDev(finite, nil)
	}

	var cv float64
	if mean != 0 {
		cv = 100 * sd / mean
	}
	for _, v := range []float64{mean, sd, cv} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFiniteResult
		}
	}

	meanStr := formatFixed(mean, decimals)
	return &Statistics{
		N:        len(finite),
		Excluded: len(values) - len(finite),
		Mean:     mean,
		SD:       sd,
		CV:       cv,
		MeanCV:   fmt.Sprintf("%s (%s%%)", meanStr, formatFixed(cv, 1)),
		MeanSD:   fmt.Sprintf("%s ± %s", meanStr, formatFixed(sd, decimals)),
	}, nil
}

func formatFixed(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	// avoid "-0.00" for tiny negatives
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		s = strconv.FormatFloat(0, 'f', decimals, 64)
	}
	return s
}

type statisticsArgs struct {
	Values    []any  `json:"values"`
	Decimals  *int   `json:"decimals"`
	Parameter string `json:"parameter"`
}

// toFloat maps one raw array entry to a float; anything that is not a
// number becomes NaN so the filter drops it.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

func calculateStatisticsHandler() Handler {
	return func(ctx context.Context, ec ExecutionContext, raw map[string]any) (Output, error) {
		var args statisticsArgs
		if err := decodeArgs(CalculateStatistics, raw, &args); err != nil {
			return Output{}, err
		}
		if args.Values == nil {
			return Output{}, invalidArgs(CalculateStatistics, "values is required")
		}
		decimals := 2
		if args.Decimals != nil {
			decimals = *args.Decimals
		}
		if decimals < 0 || decimals > 6 {
			return Output{}, invalidArgs(CalculateStatistics, "decimals must be within 0..6, got %d", decimals)
		}

		values := make([]float64, len(args.Values))
		for i, v := range args.Values {
			values[i] = toFloat(v)
		}

		stats, err := ComputeStatistics(values, decimals)
		if err != nil {
			return Output{}, err
		}
		stats.Parameter = args.Parameter

		name := args.Parameter
		if name == "" {
			name = "values"
		}
		return Output{
			Content:     stats,
			StepSummary: fmt.Sprintf("Calculated statistics for %s (n=%d)", name, stats.N),
		}, nil
	}
}

package generation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"satkit/internal/fingerprint"
	"satkit/internal/hierarchy"
)

// KindPixelDifference is the built-in pixel-difference metric: the norm of
// the change between consecutive frames of a recorded stream. High values
// mark rapid articulator movement.
const KindPixelDifference = "pd"

// GeneratePixelDifference computes the pd series for a source.
//
// Parameters:
//
//	modality: name of the recorded input modality (default "ultrasound")
//	norm:     "l1" or "l2" (default "l2")
//	timestep: frame distance to difference over, positive int (default 1)
func GeneratePixelDifference(ctx context.Context, params map[string]any, source *hierarchy.Source) (hierarchy.Modality, error) {
	inputName := stringParam(params, "modality", "ultrasound")
	norm := stringParam(params, "norm", "l2")
	timestep, err := intParam(params, "timestep", 1)
	if err != nil {
		return nil, err
	}
	if timestep < 1 {
		return nil, fmt.Errorf("pd: timestep must be positive, got %d", timestep)
	}
	if norm != "l1" && norm != "l2" {
		return nil, fmt.Errorf("pd: unsupported norm %q", norm)
	}

	input, ok := source.Modality(inputName)
	if !ok {
		return nil, fmt.Errorf("pd: source %s has no modality %q", source.ID(), inputName)
	}
	data := input.Data()
	frames := data.TimeLength()
	if frames <= timestep {
		return nil, fmt.Errorf("pd: modality %q has %d frames, need more than timestep %d", inputName, frames, timestep)
	}

	values := data.Values()
	timeVector := data.TimeVector()
	frameSize := len(values) / frames

	series := make([]float64, frames-timestep)
	seriesTime := make([]float64, frames-timestep)
	for i := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := values[i*frameSize : (i+1)*frameSize]
		b := values[(i+timestep)*frameSize : (i+timestep+1)*frameSize]
		series[i] = frameDistance(a, b, norm)
		// Timestamp at the midpoint of the differenced pair.
		seriesTime[i] = (timeVector[i] + timeVector[i+timestep]) / 2
	}

	fp, err := fingerprint.Compute(KindPixelDifference, params)
	if err != nil {
		return nil, err
	}
	// The digest keeps names unique across requests that agree on norm and
	// timestep but differ in other parameters, such as the input modality.
	name := fmt.Sprintf("pd_%s_ts%d_%s", norm, timestep, shortDigest(fp))
	result := hierarchy.NewModalityData(series, []int{len(series)}, seriesTime, data.TimeOffset())
	return hierarchy.NewDerivedSeries(name, result, KindPixelDifference, fp), nil
}

func shortDigest(fp string) string {
	if i := strings.LastIndex(fp, ":"); i >= 0 {
		fp = fp[i+1:]
	}
	if len(fp) > 8 {
		fp = fp[:8]
	}
	return fp
}

func frameDistance(a, b []float64, norm string) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		if norm == "l1" {
			sum += math.Abs(diff)
		} else {
			sum += diff * diff
		}
	}
	if norm == "l1" {
		return sum
	}
	return math.Sqrt(sum)
}

func stringParam(params map[string]any, key, fallback string) string {
	if value, ok := params[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	value, ok := params[key]
	if !ok {
		return fallback, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("parameter %q must be an integer, got %g", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("parameter %q must be an integer, got %T", key, value)
	}
}

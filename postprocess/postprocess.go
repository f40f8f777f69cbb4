// Package postprocess turns classification outputs into ranked labels.
package postprocess

import (
	"bufio"
	"cmp"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
)

// Probability is one ranked class.
type Probability struct {
	Label string
	Index int
	Score float32
}

// Scores widens a tensor's elements to float64. U8 and I32 values are
// taken as is; F16 and F32 are reinterpreted from their little-endian bytes.
func Scores(t entities.Tensor) ([]float64, error) {
	switch t.Type {
	case entities.TensorF32:
		return widen(t.Float32s()), nil
	case entities.TensorF16:
		return widen(t.Float16s()), nil
	case entities.TensorI32:
		return widen(t.Int32s()), nil
	case entities.TensorU8:
		return widen(t.Data), nil
	default:
		return nil, fmt.Errorf("postprocess: unsupported tensor type %s", t.Type)
	}
}

func widen[T float32 | int32 | uint8](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// Softmax normalizes scores in place into probabilities and returns them.
// The maximum is subtracted first so large logits do not overflow.
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	floats.AddConst(-floats.Max(scores), scores)
	for i, v := range scores {
		scores[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(scores), scores)
	return scores
}

// TopK returns the k highest scores in descending order. Ties keep the lower
// index first. k is clamped to len(scores).
func TopK(scores []float64, k int) []Probability {
	k = min(max(k, 0), len(scores))
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	out := make([]Probability, k)
	for i := range out {
		out[i] = Probability{Index: idx[i], Score: float32(scores[idx[i]])}
	}
	return out
}

// Classify ranks the elements of t, optionally applying softmax first, and
// attaches labels by index when provided.
func Classify(t entities.Tensor, k int, labels []string, softmax bool) ([]Probability, error) {
	scores, err := Scores(t)
	if err != nil {
		return nil, err
	}
	if softmax {
		Softmax(scores)
	}
	top := TopK(scores, k)
	for i := range top {
		if top[i].Index < len(labels) {
			top[i].Label = labels[top[i].Index]
		}
	}
	return top, nil
}

// LoadLabels reads one label per line.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening labels file: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels file: %w", err)
	}
	return labels, nil
}

package train

import (
	"errors"
	"fmt"
	"io"

	"github.com/born-ml/simplenn/internal/dataset"
	"github.com/born-ml/simplenn/internal/model"
	"github.com/born-ml/simplenn/internal/nn"
	"github.com/born-ml/simplenn/internal/tensor"
)

// ErrEmptySplit is returned when evaluation sees no samples.
var ErrEmptySplit = errors.New("empty split")

// Result is the accuracy of one evaluation pass.
type Result struct {
	Correct int
	Total   int
}

// Accuracy returns 100 * Correct / Total.
func (r Result) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return 100 * float64(r.Correct) / float64(r.Total)
}

// Incorrect returns Total - Correct.
func (r Result) Incorrect() int {
	return r.Total - r.Correct
}

func (r Result) String() string {
	return fmt.Sprintf("Got %d/%d with accuracy %.2f%%", r.Correct, r.Total, r.Accuracy())
}

// Evaluate counts correct argmax predictions over every batch of loader.
//
// The model runs in Evaluation mode for the duration of the call and is back
// in Training mode when Evaluate returns, whether it succeeds or not.
func Evaluate[B tensor.Backend](m *model.MLP[B], loader *dataset.Loader) (Result, error) {
	defer m.Eval()()

	backend := m.Backend()
	inputSize := m.Config().InputSize

	var res Result
	for b := range loader.Batches() {
		x, err := Flatten(b, inputSize, backend)
		if err != nil {
			return Result{}, err
		}
		y, err := Labels(b, m.Config().NumClasses, backend)
		if err != nil {
			return Result{}, err
		}
		scores, err := m.Forward(x)
		if err != nil {
			return Result{}, err
		}

		res.Correct += nn.CorrectCount(scores, y)
		res.Total += b.Size()
	}

	if res.Total == 0 {
		return Result{}, ErrEmptySplit
	}
	return res, nil
}

// CheckAccuracy prints "Checking accuracy on <split> data", evaluates, and
// prints the result line.
func CheckAccuracy[B tensor.Backend](w io.Writer, split string, m *model.MLP[B], loader *dataset.Loader) (Result, error) {
	fmt.Fprintf(w, "Checking accuracy on %s data\n", split)

	res, err := Evaluate(m, loader)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate %s: %w", split, err)
	}

	fmt.Fprintln(w, res)
	return res, nil
}

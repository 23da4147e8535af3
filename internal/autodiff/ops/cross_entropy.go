package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/simplenn/internal/tensor"
)

// CrossEntropyOp is the fused log-softmax + negative log-likelihood loss,
// averaged over the batch.
//
// Forward (per sample):
//
//	loss_i = log(Σ exp(x_j)) - x_target
//
// Backward:
//
//	grad_logits = (softmax(logits) - onehot(targets)) / N
//
// Fusing keeps the backward pass free of a separate softmax node and stays
// stable for large logits (max subtraction).
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [N, C]
	targets *tensor.RawTensor // [N] Int32 class indices
	output  *tensor.RawTensor // [1]
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns [logits]; targets are not differentiated.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the logits gradient scaled by the upstream gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	n, c := shape[0], shape[1]

	grad := tensor.MustRaw(shape, tensor.Float32, op.logits.Device())

	logits := op.logits.AsFloat32()
	targets := op.targets.AsInt32()
	gradData := grad.AsFloat32()
	scale := outputGrad.AsFloat32()[0] / float32(n)

	probs := make([]float32, c)
	for i := 0; i < n; i++ {
		softmaxInto(probs, logits[i*c:(i+1)*c])
		row := gradData[i*c : (i+1)*c]
		for j, p := range probs {
			row[j] = p * scale
		}
		row[targets[i]] -= scale
	}

	return []*tensor.RawTensor{grad}
}

// CrossEntropyForward computes the mean cross-entropy of logits [N, C] against
// Int32 targets [N]. The result has shape [1].
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy: logits must be 2D [N, C], got %v", shape))
	}
	if logits.DType() != tensor.Float32 || targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("cross entropy: want float32 logits and int32 targets, got %s and %s",
			logits.DType(), targets.DType()))
	}
	n, c := shape[0], shape[1]
	if ts := targets.Shape(); len(ts) != 1 || ts[0] != n {
		panic(fmt.Sprintf("cross entropy: targets shape %v does not match batch size %d", ts, n))
	}

	data := logits.AsFloat32()
	labels := targets.AsInt32()

	var total float64
	for i := 0; i < n; i++ {
		target := int(labels[i])
		if target < 0 || target >= c {
			panic(fmt.Sprintf("cross entropy: target %d out of range [0, %d)", target, c))
		}
		row := data[i*c : (i+1)*c]
		total += float64(logSumExp(row) - row[target])
	}

	output := tensor.MustRaw(tensor.Shape{1}, tensor.Float32, device)
	output.AsFloat32()[0] = float32(total / float64(n))
	return output
}

func logSumExp(row []float32) float32 {
	maxVal := row[0]
	for _, v := range row[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v - maxVal))
	}
	return maxVal + float32(math.Log(sum))
}

func softmaxInto(dst, row []float32) {
	maxVal := row[0]
	for _, v := range row[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float64
	for i, v := range row {
		e := math.Exp(float64(v - maxVal))
		dst[i] = float32(e)
		sum += e
	}
	for i := range dst {
		dst[i] = float32(float64(dst[i]) / sum)
	}
}

package train_test

import (
	"bytes"
	"context"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/simplenn/internal/autodiff"
	"github.com/born-ml/simplenn/internal/backend/cpu"
	"github.com/born-ml/simplenn/internal/dataset"
	"github.com/born-ml/simplenn/internal/model"
	"github.com/born-ml/simplenn/internal/nn"
	"github.com/born-ml/simplenn/internal/optim"
	"github.com/born-ml/simplenn/internal/tensor"
	"github.com/born-ml/simplenn/internal/train"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

type fixture struct {
	model   *model.MLP[backend]
	backend backend
	adam    *optim.Adam[backend]
}

func newFixture(t *testing.T, cfg model.Config, seed int64, lr float32) fixture {
	t.Helper()
	b := autodiff.New(cpu.New())
	m, err := model.NewMLP(cfg, b, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return fixture{
		model:   m,
		backend: b,
		adam:    optim.NewAdam(m.Parameters(), optim.AdamConfig{LR: lr}, b),
	}
}

func loader(t *testing.T, ds *dataset.Dataset, batchSize int, opts ...dataset.LoaderOption) *dataset.Loader {
	t.Helper()
	l, err := dataset.NewLoader(ds, batchSize, opts...)
	require.NoError(t, err)
	return l
}

func snapshot(params []*nn.Parameter[backend]) [][]float32 {
	out := make([][]float32, len(params))
	for i, p := range params {
		out[i] = append([]float32(nil), p.Tensor().Data()...)
	}
	return out
}

func TestScenario_TinySynthetic(t *testing.T) {
	cfg := model.Config{InputSize: 4, HiddenSize: 3, NumClasses: 2}
	f := newFixture(t, cfg, 1, 0.001)

	ds, err := dataset.New([]float32{
		0.9, 0.8, 0.1, 0.0,
		0.0, 0.1, 0.8, 0.9,
	}, []int32{0, 1}, tensor.Shape{4})
	require.NoError(t, err)
	data := loader(t, ds, 2)

	var out bytes.Buffer
	trainer, err := train.NewTrainer(f.model, f.adam, 1, train.WithProgress(nil), train.WithOutput(&out))
	require.NoError(t, err)
	require.NoError(t, trainer.Train(context.Background(), data))
	assert.Equal(t, "Epoch [1/1]\n", out.String())

	res, err := train.Evaluate(f.model, data)
	require.NoError(t, err)

	assert.Contains(t, []float64{0, 50, 100}, res.Accuracy())
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, res.Total, res.Correct+res.Incorrect())
	assert.Equal(t, model.Training, f.model.Mode())
}

func TestStep_ChangesParameters(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 6, HiddenSize: 4, NumClasses: 3}, 2, 0.01)
	ds := dataset.Synthetic(6, 3, tensor.Shape{6}, rand.New(rand.NewSource(2)))

	trainer, err := train.NewTrainer(f.model, f.adam, 1, train.WithProgress(nil))
	require.NoError(t, err)

	before := snapshot(f.model.Parameters())
	var batch dataset.Batch
	for b := range loader(t, ds, 6).Batches() {
		batch = b
	}

	loss, err := trainer.Step(batch)
	require.NoError(t, err)

	assert.Greater(t, loss, float32(0))
	assert.NotEqual(t, before, snapshot(f.model.Parameters()))
	assert.Equal(t, 0, f.backend.Tape().NumOps(), "tape is cleared after each step")
}

func TestTrain_LearnsSeparableData(t *testing.T) {
	cfg := model.Config{InputSize: 20, HiddenSize: 16, NumClasses: 4}
	f := newFixture(t, cfg, 3, 0.01)
	ds := dataset.Synthetic(80, 4, tensor.Shape{20}, rand.New(rand.NewSource(3)))

	trainer, err := train.NewTrainer(f.model, f.adam, 30, train.WithProgress(nil), train.WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	require.NoError(t, trainer.Train(context.Background(), loader(t, ds, 16, dataset.WithShuffle(rand.New(rand.NewSource(4))))))

	res, err := train.Evaluate(f.model, loader(t, ds, 16))
	require.NoError(t, err)
	assert.Equal(t, 80, res.Total)
	assert.Greater(t, res.Accuracy(), 90.0)
}

func TestTrain_Deterministic(t *testing.T) {
	run := func() (train.Result, [][]float32) {
		cfg := model.Config{InputSize: 12, HiddenSize: 8, NumClasses: 3}
		f := newFixture(t, cfg, 11, 0.005)
		ds := dataset.Synthetic(30, 3, tensor.Shape{12}, rand.New(rand.NewSource(5)))

		trainer, err := train.NewTrainer(f.model, f.adam, 3, train.WithProgress(nil), train.WithOutput(&bytes.Buffer{}))
		require.NoError(t, err)
		require.NoError(t, trainer.Train(context.Background(), loader(t, ds, 7)))

		res, err := train.Evaluate(f.model, loader(t, ds, 7))
		require.NoError(t, err)
		return res, snapshot(f.model.Parameters())
	}

	resA, paramsA := run()
	resB, paramsB := run()

	assert.Equal(t, resA, resB)
	assert.Equal(t, paramsA, paramsB, "parameters must be bit-identical")
}

func TestTrain_ShapeMismatchAborts(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 5, HiddenSize: 3, NumClasses: 2}, 1, 0.01)
	ds := dataset.Synthetic(4, 2, tensor.Shape{4}, rand.New(rand.NewSource(1)))

	var out bytes.Buffer
	trainer, err := train.NewTrainer(f.model, f.adam, 3, train.WithProgress(nil), train.WithOutput(&out))
	require.NoError(t, err)

	err = trainer.Train(context.Background(), loader(t, ds, 2))

	assert.ErrorIs(t, err, model.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "epoch 1 batch 1")
	assert.Equal(t, "Epoch [1/3]\n", out.String(), "no further epochs after a failure")
	assert.Equal(t, 0, f.backend.Tape().NumOps())
}

func TestTrain_LabelOutOfRange(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 2, HiddenSize: 2, NumClasses: 2}, 1, 0.01)
	ds, err := dataset.New([]float32{1, 2}, []int32{5}, tensor.Shape{2})
	require.NoError(t, err)

	trainer, err := train.NewTrainer(f.model, f.adam, 1, train.WithProgress(nil), train.WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	assert.Error(t, trainer.Train(context.Background(), loader(t, ds, 1)))
}

func TestTrain_ContextCanceled(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 4, HiddenSize: 3, NumClasses: 2}, 1, 0.01)
	ds := dataset.Synthetic(8, 2, tensor.Shape{4}, rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trainer, err := train.NewTrainer(f.model, f.adam, 2, train.WithProgress(nil), train.WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	before := snapshot(f.model.Parameters())
	err = trainer.Train(ctx, loader(t, ds, 4))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, snapshot(f.model.Parameters()))
}

func TestTrain_SetsTrainingModeAndLogs(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 4, HiddenSize: 3, NumClasses: 2}, 1, 0.01)
	ds := dataset.Synthetic(4, 2, tensor.Shape{4}, rand.New(rand.NewSource(1)))
	f.model.SetMode(model.Evaluation)

	var logs bytes.Buffer
	trainer, err := train.NewTrainer(f.model, f.adam, 2, train.WithProgress(nil),
		train.WithOutput(&bytes.Buffer{}),
		train.WithLogger(log.New(&logs, "", 0)),
	)
	require.NoError(t, err)

	before := snapshot(f.model.Parameters())
	require.NoError(t, trainer.Train(context.Background(), loader(t, ds, 2)))

	assert.Equal(t, model.Training, f.model.Mode())
	assert.NotEqual(t, before, snapshot(f.model.Parameters()), "training mode was restored, so gradients flowed")
	assert.Equal(t, 2, strings.Count(logs.String(), "mean_loss="))
}

func TestTrain_ProgressBar(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 4, HiddenSize: 3, NumClasses: 2}, 1, 0.01)
	ds := dataset.Synthetic(6, 2, tensor.Shape{4}, rand.New(rand.NewSource(1)))

	var out, progress bytes.Buffer
	trainer, err := train.NewTrainer(f.model, f.adam, 2, train.WithOutput(&out), train.WithProgress(&progress))
	require.NoError(t, err)
	require.NoError(t, trainer.Train(context.Background(), loader(t, ds, 2)))

	assert.Equal(t, "Epoch [1/2]\nEpoch [2/2]\n", out.String(), "the bar never touches the console lines")
	assert.Contains(t, progress.String(), "3/3")
}

func TestNewTrainer_Invalid(t *testing.T) {
	f := newFixture(t, model.Config{InputSize: 4, HiddenSize: 3, NumClasses: 2}, 1, 0.01)

	_, err := train.NewTrainer(f.model, f.adam, 0)
	assert.Error(t, err)

	_, err = train.NewTrainer[backend](nil, f.adam, 1)
	assert.Error(t, err)
}

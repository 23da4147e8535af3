package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/simplenn/internal/tensor"
)

func idxImages(t *testing.T, count, rows, cols int, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxImagesMagic, uint32(count), uint32(rows), uint32(cols)}))
	buf.Write(pixels)
	return buf.Bytes()
}

func idxLabels(t *testing.T, labels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadIDX(t *testing.T) {
	dir := t.TempDir()
	images := write(t, dir, "img", idxImages(t, 2, 2, 2, []byte{0, 255, 51, 102, 255, 0, 0, 0}))
	labels := write(t, dir, "lbl", idxLabels(t, []byte{7, 3}))

	ds, err := LoadIDX(images, labels)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.True(t, ds.SampleShape.Equal(tensor.Shape{1, 2, 2}))
	assert.Equal(t, []int32{7, 3}, ds.Labels)

	x, y := ds.Sample(0)
	assert.InDeltaSlice(t, []float32{0, 1, 0.2, 0.4}, x, 1e-6)
	assert.Equal(t, int32(7), y)
}

func TestLoadMNIST_Gzip(t *testing.T) {
	dir := t.TempDir()
	pixels := make([]byte, 3*4)
	write(t, dir, TestImagesFile+".gz", gzipped(t, idxImages(t, 3, 2, 2, pixels)))
	write(t, dir, TestLabelsFile+".gz", gzipped(t, idxLabels(t, []byte{1, 2, 3})))

	ds, err := LoadMNIST(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	_, err = LoadMNIST(dir, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, HasMNIST(dir))
}

func TestLoadIDX_Invalid(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "img", idxImages(t, 1, 2, 2, []byte{1, 2, 3, 4}))

	cases := map[string][]byte{
		"bad magic": idxLabels(t, []byte{1}),
		"truncated": idxImages(t, 2, 2, 2, []byte{1, 2, 3}),
		"short":     {0, 0},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := write(t, dir, strings.ReplaceAll(name, " ", "_"), data)
			_, err := LoadIDX(path, write(t, dir, "lbl", idxLabels(t, []byte{0})))
			assert.ErrorIs(t, err, ErrInvalidIDX)
		})
	}

	t.Run("count mismatch", func(t *testing.T) {
		_, err := LoadIDX(good, write(t, dir, "lbl2", idxLabels(t, []byte{0, 1})))
		assert.ErrorIs(t, err, ErrInvalidIDX)
	})
}

func TestLoadCSV(t *testing.T) {
	path := write(t, t.TempDir(), "train.csv", []byte(
		"label,pixel0,pixel1,pixel2\n"+
			"5,0,255,51\n"+
			"0,255,255,255\n"+
			"9,0,0,0\n"))

	ds, err := LoadCSV(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.True(t, ds.SampleShape.Equal(tensor.Shape{3}))
	assert.Equal(t, []int32{5, 0, 9}, ds.Labels)
	assert.InDeltaSlice(t, []float32{0, 1, 0.2}, ds.Images[:3], 1e-6)

	limited, err := LoadCSV(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Len())
}

func TestLoadCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"empty":      "",
		"ragged":     "label,p0,p1\n1,2\n",
		"bad label":  "label,p0\nx,1\n",
		"bad pixel":  "label,p0\n1,x\n",
		"no columns": "label\n1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCSV(write(t, dir, strings.ReplaceAll(name, " ", "_")+".csv", []byte(body)), 0)
			assert.Error(t, err)
		})
	}
}

func TestDataset_LimitAndLabels(t *testing.T) {
	ds := Synthetic(10, 3, tensor.Shape{6}, rand.New(rand.NewSource(1)))

	assert.Equal(t, 4, ds.Limit(4).Len())
	assert.Same(t, ds, ds.Limit(0))
	assert.Same(t, ds, ds.Limit(50))

	assert.NoError(t, ds.CheckLabels(3))
	assert.Error(t, ds.CheckLabels(2))

	_, err := New(make([]float32, 5), []int32{0, 1}, tensor.Shape{3})
	assert.Error(t, err)
}

func TestSynthetic_Reproducible(t *testing.T) {
	a := Synthetic(20, 10, tensor.Shape{784}, rand.New(rand.NewSource(3)))
	b := Synthetic(20, 10, tensor.Shape{784}, rand.New(rand.NewSource(3)))

	assert.Equal(t, a.Images, b.Images)
	assert.Equal(t, a.Labels, b.Labels)
	for _, v := range a.Images {
		assert.True(t, v >= 0 && v <= 1)
	}
}

func collect(l *Loader) []Batch {
	var out []Batch
	for b := range l.Batches() {
		out = append(out, b)
	}
	return out
}

func labelsOf(batches []Batch) []int32 {
	var out []int32
	for _, b := range batches {
		out = append(out, b.Labels...)
	}
	return out
}

func sequence(n int) *Dataset {
	images := make([]float32, n*2)
	labels := make([]int32, n)
	for i := range labels {
		labels[i] = int32(i)
		images[2*i] = float32(i)
		images[2*i+1] = -float32(i)
	}
	ds, _ := New(images, labels, tensor.Shape{2})
	return ds
}

func TestLoader_FixedOrder(t *testing.T) {
	l, err := NewLoader(sequence(5), 2)
	require.NoError(t, err)

	batches := collect(l)

	require.Len(t, batches, 3)
	assert.Equal(t, 3, l.NumBatches())
	assert.Equal(t, []int{2, 2, 1}, []int{batches[0].Size(), batches[1].Size(), batches[2].Size()})
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, labelsOf(batches))
	assert.Equal(t, []float32{4, -4}, batches[2].Inputs)

	assert.Equal(t, labelsOf(batches), labelsOf(collect(l)), "restartable")
}

func TestLoader_ShuffleVisitsEverySampleOnce(t *testing.T) {
	l, err := NewLoader(sequence(50), 8, WithShuffle(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	first := labelsOf(collect(l))
	second := labelsOf(collect(l))

	assert.ElementsMatch(t, labelsOf(collect(mustLoader(t, sequence(50), 8))), first)
	assert.ElementsMatch(t, first, second)
	assert.NotEqual(t, first, second, "order is redrawn per traversal")

	for _, b := range collect(l) {
		for i, label := range b.Labels {
			assert.Equal(t, float32(label), b.Inputs[2*i], "inputs travel with their labels")
		}
	}
}

func mustLoader(t *testing.T, ds *Dataset, batchSize int) *Loader {
	t.Helper()
	l, err := NewLoader(ds, batchSize)
	require.NoError(t, err)
	return l
}

func TestLoader_PrefetchMatchesDirect(t *testing.T) {
	direct := mustLoader(t, sequence(37), 4)
	prefetched, err := NewLoader(sequence(37), 4, WithPrefetch(3))
	require.NoError(t, err)

	assert.Equal(t, collect(direct), collect(prefetched))

	// Breaking out early must not leak or block the producer.
	for range prefetched.Batches() {
		break
	}
}

func TestLoader_Empty(t *testing.T) {
	l := mustLoader(t, sequence(0), 4)

	assert.Empty(t, collect(l))
	assert.Equal(t, 0, l.NumBatches())
}

func TestNewLoader_Invalid(t *testing.T) {
	_, err := NewLoader(nil, 1)
	assert.Error(t, err)

	_, err = NewLoader(sequence(3), 0)
	assert.Error(t, err)
}

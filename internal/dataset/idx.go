package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/simplenn/internal/tensor"
)

// IDX magic numbers: unsigned byte data with 3 (images) or 1 (labels) dims.
const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801
)

// MNIST file names inside a data directory. Each may also carry a .gz suffix.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// LoadMNIST loads the train or test split from dir.
func LoadMNIST(dir string, train bool) (*Dataset, error) {
	imagesName, labelsName := TestImagesFile, TestLabelsFile
	if train {
		imagesName, labelsName = TrainImagesFile, TrainLabelsFile
	}

	imagesPath, err := locate(dir, imagesName)
	if err != nil {
		return nil, err
	}
	labelsPath, err := locate(dir, labelsName)
	if err != nil {
		return nil, err
	}
	return LoadIDX(imagesPath, labelsPath)
}

// HasMNIST reports whether dir holds all four MNIST files.
func HasMNIST(dir string) bool {
	for _, name := range []string{TrainImagesFile, TrainLabelsFile, TestImagesFile, TestLabelsFile} {
		if _, err := locate(dir, name); err != nil {
			return false
		}
	}
	return true
}

// locate finds name or name.gz in dir.
func locate(dir, name string) (string, error) {
	for _, candidate := range []string{name, name + ".gz"} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s not found in %s: %w", name, dir, os.ErrNotExist)
}

// LoadIDX reads an images/labels pair of IDX files. Files ending in .gz are
// decompressed on the fly.
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	var (
		pixels []byte
		shape  tensor.Shape
		labels []byte
	)

	err := withReader(imagesPath, func(r io.Reader) error {
		var err error
		pixels, shape, err = readIDXImages(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load images %s: %w", imagesPath, err)
	}

	err = withReader(labelsPath, func(r io.Reader) error {
		var err error
		labels, err = readIDXLabels(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load labels %s: %w", labelsPath, err)
	}

	n := len(labels)
	if n*shape.NumElements() != len(pixels) {
		return nil, fmt.Errorf("%w: %d images but %d labels", ErrInvalidIDX, len(pixels)/shape.NumElements(), n)
	}

	images := make([]float32, len(pixels))
	for i, p := range pixels {
		images[i] = float32(p) / 255
	}
	targets := make([]int32, n)
	for i, l := range labels {
		targets[i] = int32(l)
	}

	// One channel, like an image tensor: [1, rows, cols].
	return New(images, targets, append(tensor.Shape{1}, shape...))
}

func withReader(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return fn(r)
}

// readIDXImages reads an image file:
//
//	magic 0x00000803 | count | rows | cols | count*rows*cols pixel bytes
func readIDXImages(r io.Reader) ([]byte, tensor.Shape, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %w", ErrInvalidIDX, err)
	}
	if header[0] != idxImagesMagic {
		return nil, nil, fmt.Errorf("%w: magic %#08x, want %#08x", ErrInvalidIDX, header[0], idxImagesMagic)
	}

	count, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if rows == 0 || cols == 0 {
		return nil, nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidIDX, rows, cols)
	}

	pixels := make([]byte, count*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, nil, fmt.Errorf("%w: pixels: %w", ErrInvalidIDX, truncated(err))
	}
	return pixels, tensor.Shape{rows, cols}, nil
}

// readIDXLabels reads a label file:
//
//	magic 0x00000801 | count | count label bytes
func readIDXLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidIDX, err)
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("%w: magic %#08x, want %#08x", ErrInvalidIDX, header[0], idxLabelsMagic)
	}

	labels := make([]byte, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("%w: labels: %w", ErrInvalidIDX, truncated(err))
	}
	return labels, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

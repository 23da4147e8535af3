package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/born-ml/simplenn/internal/tensor"
)

// LoadCSV reads a Kaggle-style digit CSV: a header row, then one sample per
// row as label,pixel0,...,pixelN-1 with pixels in [0, 255]. Every row must have
// the same width as the header. limit > 0 stops after that many samples.
func LoadCSV(path string, limit int) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv %s: missing header", path)
		}
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}
	width := len(header) - 1
	if width < 1 {
		return nil, fmt.Errorf("csv %s: header has no pixel columns", path)
	}

	var (
		images []float32
		labels []int32
	)
	for row := 2; limit <= 0 || len(labels) < limit; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv %s: %w", path, err)
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("csv %s row %d: label: %w", path, row, err)
		}
		labels = append(labels, int32(label))

		for col, field := range record[1:] {
			pixel, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("csv %s row %d col %d: %w", path, row, col+1, err)
			}
			images = append(images, float32(pixel)/255)
		}
	}

	return New(images, labels, tensor.Shape{width})
}

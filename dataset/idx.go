package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801
)

var ErrBadIDX = errors.New("malformed IDX file")

// LoadIDX reads an MNIST-style IDX image/label file pair that is already
// on disk and materializes it as a Dataset. Pixel values are scaled to
// [0, 1]. Downloading and decompressing the archives is a collaborator
// concern and is not handled here.
func LoadIDX(imagesPath, labelsPath string, classes int) (*Dataset, error) {
	images, err := os.ReadFile(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("reading images file: %w", err)
	}
	labels, err := os.ReadFile(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("reading labels file: %w", err)
	}

	if len(images) < 16 || binary.BigEndian.Uint32(images[0:4]) != idxImagesMagic {
		return nil, fmt.Errorf("%w: bad image magic in %s", ErrBadIDX, imagesPath)
	}
	if len(labels) < 8 || binary.BigEndian.Uint32(labels[0:4]) != idxLabelsMagic {
		return nil, fmt.Errorf("%w: bad label magic in %s", ErrBadIDX, labelsPath)
	}

	n := int(binary.BigEndian.Uint32(images[4:8]))
	rows := int(binary.BigEndian.Uint32(images[8:12]))
	cols := int(binary.BigEndian.Uint32(images[12:16]))
	features := rows * cols

	if int(binary.BigEndian.Uint32(labels[4:8])) != n {
		return nil, fmt.Errorf("%w: %d images but %d labels", ErrBadIDX, n, int(binary.BigEndian.Uint32(labels[4:8])))
	}
	if len(images) != 16+n*features {
		return nil, fmt.Errorf("%w: truncated image payload in %s", ErrBadIDX, imagesPath)
	}
	if len(labels) != 8+n {
		return nil, fmt.Errorf("%w: truncated label payload in %s", ErrBadIDX, labelsPath)
	}

	d := &Dataset{
		X:        make([]float64, n*features),
		Y:        make([]int, n),
		Features: features,
		Classes:  classes,
	}
	for i, b := range images[16:] {
		d.X[i] = float64(b) / 255.0
	}
	for i, b := range labels[8:] {
		d.Y[i] = int(b)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

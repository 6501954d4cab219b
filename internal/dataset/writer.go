// Package dataset writes auto-accepted images and their YOLO-format labels
// into the training dataset tree, and fires the external retraining command
// once the dataset crosses the configured size threshold.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/12Rushikesh/damage-agent/internal/config"
	"github.com/12Rushikesh/damage-agent/internal/detector"
)

// Writer copies accepted images into the dataset and emits one label file
// per image. Only detections whose label is in the class list are retained;
// the class index is the label's position in that list.
type Writer struct {
	imagesDir string
	labelsDir string
	classes   []string
}

// NewWriter creates a Writer for the configured dataset tree.
func NewWriter(cfg config.DatasetConfig, classes []string) *Writer {
	return &Writer{
		imagesDir: cfg.ImagesDir,
		labelsDir: cfg.LabelsDir,
		classes:   classes,
	}
}

// Save stores the image and writes its YOLO label file. Bounding boxes are
// converted to center-x, center-y, width, height as fractions of the image
// dimensions, so width and height must be known.
func (w *Writer) Save(imagePath string, boxes []detector.Detection, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image dimensions unknown for %s", imagePath)
	}

	if err := copyFile(imagePath, filepath.Join(w.imagesDir, filepath.Base(imagePath))); err != nil {
		return fmt.Errorf("copying image into dataset: %w", err)
	}

	var sb strings.Builder
	for _, b := range boxes {
		cls := w.classIndex(b.Label)
		if cls < 0 {
			continue
		}
		x1, y1, x2, y2 := b.BBox[0], b.BBox[1], b.BBox[2], b.BBox[3]
		xc := ((x1 + x2) / 2) / float64(width)
		yc := ((y1 + y2) / 2) / float64(height)
		bw := (x2 - x1) / float64(width)
		bh := (y2 - y1) / float64(height)
		fmt.Fprintf(&sb, "%d %.6f %.6f %.6f %.6f\n", cls, xc, yc, bw, bh)
	}

	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	labelPath := filepath.Join(w.labelsDir, stem+".txt")
	if err := os.WriteFile(labelPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing label file: %w", err)
	}
	return nil
}

// Count returns the number of images currently in the dataset tree.
func (w *Writer) Count() int {
	entries, err := os.ReadDir(w.imagesDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

func (w *Writer) classIndex(label string) int {
	for i, c := range w.classes {
		if c == label {
			return i
		}
	}
	return -1
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

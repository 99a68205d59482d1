package cad

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deadsy/sdfx/render"
)

// ExportSTL writes the shape to path as a binary STL file.
func ExportSTL(s *Shape, path string, cells int) error {
	if s == nil {
		return fmt.Errorf("%w: nil shape", ErrEmptyShape)
	}
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	render.ToSTL(s.s, path, render.NewMarchingCubesUniform(cells))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("export stl: %w", err)
	}
	return nil
}

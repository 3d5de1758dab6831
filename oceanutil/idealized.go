/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package oceanutil

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/spatialmodel/ocean"
	"github.com/spatialmodel/ocean/cloud"
)

// Idealized writes an analytic forcing climatology and sea floor for the
// grid described by gc to the given paths, which can be blobs.
func Idealized(ctx context.Context, gc *ocean.GridConfig, climatologyPath, bathymetryPath string, walled bool) error {
	c, err := ocean.IdealizedClimatology(gc)
	if err != nil {
		return err
	}
	b, err := ocean.IdealizedBathymetry(gc, walled)
	if err != nil {
		return err
	}
	if err = writeFile(ctx, climatologyPath, c.Write); err != nil {
		return err
	}
	if bathymetryPath == "" {
		return nil
	}
	return writeFile(ctx, bathymetryPath, func(f *os.File) error {
		return ocean.WriteBathymetry(f, b)
	})
}

// writeFile creates the file at path, which can be a blob, and fills
// it using write.
func writeFile(ctx context.Context, path string, write func(*os.File) error) error {
	if path == "" {
		return fmt.Errorf("ocean: missing output path")
	}
	local := path
	if cloud.IsBlob(path) {
		dir, err := ioutil.TempDir("", "ocean")
		if err != nil {
			return fmt.Errorf("ocean: creating temporary directory: %v", err)
		}
		defer os.RemoveAll(dir)
		local = filepath.Join(dir, filepath.Base(path))
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("ocean: creating %s: %v", path, err)
	}
	if err = write(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("ocean: closing %s: %v", path, err)
	}
	if local != path {
		return cloud.Upload(ctx, local, path)
	}
	return nil
}

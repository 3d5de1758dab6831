/*
Copyright © 2018 the InMAP authors.
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

package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/sirupsen/logrus"
)

// newBackOff returns the retry policy for blob operations.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithMaxRetries(b, 8)
}

// retry runs op until it succeeds or the retry policy gives up.
func retry(path string, op func() error) error {
	return backoff.RetryNotify(op, newBackOff(), func(err error, d time.Duration) {
		logrus.WithField("blob", path).Warnf("%v: retrying in %v", err, d)
	})
}

// ReadBlob reads the blob at path, which must be in the
// format 'provider://bucket/key'.
func ReadBlob(ctx context.Context, path string) ([]byte, error) {
	l, err := ParseLocation(path)
	if err != nil {
		return nil, err
	}
	bucket, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	var b []byte
	err = retry(path, func() error {
		var err error
		b, err = readBlob(ctx, bucket, l.Key)
		return err
	})
	return b, err
}

// WriteBlob writes data to the blob at path, which must be in the
// format 'provider://bucket/key'.
func WriteBlob(ctx context.Context, path string, data []byte) error {
	l, err := ParseLocation(path)
	if err != nil {
		return err
	}
	bucket, err := l.Open(ctx)
	if err != nil {
		return err
	}
	return retry(path, func() error {
		return writeBlob(ctx, bucket, l.Key, data)
	})
}

// Download copies the blob at path into directory dir and returns the
// location of the local copy.
func Download(ctx context.Context, path, dir string) (string, error) {
	b, err := ReadBlob(ctx, path)
	if err != nil {
		return "", err
	}
	l, err := ParseLocation(path)
	if err != nil {
		return "", err
	}
	local := filepath.Join(dir, filepath.Base(l.Key))
	if err := ioutil.WriteFile(local, b, 0644); err != nil {
		return "", fmt.Errorf("cloud: saving download of %s: %v", path, err)
	}
	return local, nil
}

// Upload copies local file src to the blob at path.
func Upload(ctx context.Context, src, path string) error {
	b, err := ioutil.ReadFile(src)
	if err != nil {
		return fmt.Errorf("cloud: reading upload source: %v", err)
	}
	return WriteBlob(ctx, path, b)
}

// MaybeDownload returns path unchanged if it is not a blob. Otherwise it
// downloads the blob to a new temporary directory and returns the local
// path.
func MaybeDownload(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err == nil || !IsBlob(path) {
		return path, nil
	}
	dir, err := ioutil.TempDir("", "ocean")
	if err != nil {
		return "", fmt.Errorf("cloud: creating temporary download directory: %v", err)
	}
	return Download(ctx, path, dir)
}

// readBlob reads the given blob from the given bucket.
func readBlob(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error) {
	var b bytes.Buffer
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	defer r.Close()
	if _, err = io.Copy(&b, r); err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	return b.Bytes(), nil
}

// writeBlob writes the given data to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, data []byte) error {
	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

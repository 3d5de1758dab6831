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

// Package cloud gives the ocean model access to input and output files
// in blob storage.
package cloud

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// bucketOpener opens the named bucket of one storage provider.
type bucketOpener func(ctx context.Context, name string) (*blob.Bucket, error)

// providers maps URL schemes to storage providers: "file" is a directory
// on the local filesystem, "gs" is Google Cloud Storage and "s3" is
// AWS S3.
var providers = map[string]bucketOpener{
	"file": func(_ context.Context, dir string) (*blob.Bucket, error) { return fileblob.NewBucket(dir) },
	"gs":   gsBucket,
	"s3":   s3Bucket,
}

// Location is a file in blob storage.
type Location struct {
	Provider, Bucket string

	// Key is the path of the file within the bucket.
	Key string
}

// IsBlob returns whether path has the 'provider://' prefix of a
// supported storage provider.
func IsBlob(path string) bool {
	i := strings.Index(path, "://")
	if i < 0 {
		return false
	}
	_, ok := providers[path[:i]]
	return ok
}

// ParseLocation parses a path in the format 'provider://bucket/key'.
func ParseLocation(path string) (Location, error) {
	u, err := url.Parse(path)
	if err != nil {
		return Location{}, fmt.Errorf("cloud: parsing blob path: %v", err)
	}
	if _, ok := providers[u.Scheme]; !ok {
		return Location{}, fmt.Errorf("cloud: invalid provider %q in %s; valid providers are %v",
			u.Scheme, path, providerNames())
	}
	l := Location{Provider: u.Scheme, Bucket: u.Hostname(), Key: strings.TrimPrefix(u.Path, "/")}
	if l.Key == "" {
		return Location{}, fmt.Errorf("cloud: blob path %s has no key", path)
	}
	return l, nil
}

// BucketURL returns the 'provider://bucket' part of l.
func (l Location) BucketURL() string { return l.Provider + "://" + l.Bucket }

func (l Location) String() string { return l.BucketURL() + "/" + l.Key }

// Open opens the bucket that holds l.
func (l Location) Open(ctx context.Context) (*blob.Bucket, error) {
	return OpenBucket(ctx, l.BucketURL())
}

// OpenBucket returns the bucket at bucketURL, which must be in the
// format 'provider://name'. Any path after the bucket name is ignored.
func OpenBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("cloud.OpenBucket: %v", err)
	}
	open, ok := providers[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("cloud.OpenBucket: invalid provider %q; valid providers are %v",
			u.Scheme, providerNames())
	}
	b, err := open(ctx, u.Hostname())
	if err != nil {
		return nil, fmt.Errorf("cloud.OpenBucket: %s: %v", bucketURL, err)
	}
	return b, nil
}

func providerNames() []string {
	var o []string
	for p := range providers {
		o = append(o, p)
	}
	sort.Strings(o)
	return o
}

// gsBucket opens a Google Cloud Storage bucket with the application
// default credentials.
func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 bucket using the credentials in the
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables.
// The region is taken from AWS_REGION when it is set.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	s, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 session: %v", err)
	}
	return s3blob.OpenBucket(ctx, s, name)
}

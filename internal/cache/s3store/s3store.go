// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package s3store keeps cache entries as objects under a single S3 prefix.
// An object's LastModified time is the entry's freshness marker. It is set by
// the S3 server clock and reported with one second resolution, while source
// mtimes come from the local clock. Clock skew, or a source edited within the
// same second as the upload, can therefore be served stale.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/staranto/covcache/internal/cache"
)

// DefaultTimeout bounds every request made by the store.
const DefaultTimeout = 30 * time.Second

// API is the subset of the S3 client the store needs.
type API interface {
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements cache.Store on top of S3.
type Store struct {
	client  API
	bucket  string
	prefix  string
	timeout time.Duration
}

var _ cache.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithPrefix places entries under prefix within the bucket.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New returns a store writing to bucket.
func New(client API, bucket string, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket not set")
	}
	s := &Store{client: client, bucket: bucket, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ObjectKey returns the object key holding the entry for key.
func (s *Store) ObjectKey(key cache.Key) string {
	return path.Join(s.prefix, key.String())
}

func (s *Store) location(key cache.Key) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.ObjectKey(key))
}

func (s *Store) ModTime(key cache.Key) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.ObjectKey(key)),
	})
	if isNotFound(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, &cache.FileSystemError{Op: "stat", Path: s.location(key), Err: err}
	}
	return awsv2.ToTime(out.LastModified), true, nil
}

func (s *Store) Read(key cache.Key) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.ObjectKey(key)),
	})
	if err != nil {
		return nil, &cache.FileSystemError{Op: "read", Path: s.location(key), Err: err}
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &cache.FileSystemError{Op: "read", Path: s.location(key), Err: err}
	}
	return b, nil
}

// Write uploads data in a single PutObject, which S3 applies atomically.
func (s *Store) Write(key cache.Key, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awsv2.String(s.bucket),
		Key:           awsv2.String(s.ObjectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: awsv2.Int64(int64(len(data))),
		ContentType:   awsv2.String("application/json"),
	})
	if err != nil {
		return &cache.FileSystemError{Op: "write", Path: s.location(key), Err: err}
	}

	log.Debugf("wrote cache entry %s (%d bytes)", s.location(key), len(data))
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

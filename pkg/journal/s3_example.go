//go:build s3example
// +build s3example

// This file provides an example S3Store implementation.
// It is excluded from regular builds because it requires the AWS SDK.
//
// To use this in your project, copy this file and add the AWS SDK:
//   go get github.com/aws/aws-sdk-go-v2
//   go get github.com/aws/aws-sdk-go-v2/config
//   go get github.com/aws/aws-sdk-go-v2/service/s3

package journal

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store batches entries and uploads them to S3 as JSONL objects.
// Object keys start with an RFC 3339 timestamp, so lexicographic key
// order is chronological order.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	s3Client := s3.NewFromConfig(cfg)
//	store := journal.NewS3Store(s3Client, "my-bucket", "journal/", 256)
//
//	rec := journal.NewRecorder(store)
type S3Store struct {
	client    *s3.Client
	bucket    string
	prefix    string
	batchSize int

	mu     sync.Mutex
	buf    []Entry
	closed bool
}

// NewS3Store creates a new S3 journal store.
//
// Parameters:
//   - client: AWS S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: Key prefix for journal objects (e.g., "journal/")
//   - batchSize: Entries buffered before an object is written (<= 0 means 256)
func NewS3Store(client *s3.Client, bucket, prefix string, batchSize int) *S3Store {
	if batchSize <= 0 {
		batchSize = 256
	}
	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		batchSize: batchSize,
	}
}

// Append buffers one entry, flushing a batch object when full.
func (s *S3Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.buf = append(s.buf, e)
	if len(s.buf) >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// Flush uploads any buffered entries immediately.
func (s *S3Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.flushLocked()
}

// flushLocked uploads the current buffer as one JSONL object.
// Caller holds s.mu.
func (s *S3Store) flushLocked() error {
	if len(s.buf) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, e := range s.buf {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	key := fmt.Sprintf("%s%s-%s.jsonl",
		s.prefix,
		time.Now().UTC().Format(time.RFC3339),
		randomSuffix())

	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("s3 journal upload failed: %w", err)
	}

	s.buf = s.buf[:0]
	return nil
}

// Tail downloads the journal objects and returns the most recent n
// entries, oldest first. n <= 0 returns everything.
func (s *S3Store) Tail(n int) ([]Entry, error) {
	keys, err := s.listKeys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	var entries []Entry
	for _, key := range keys {
		result, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}

		sc := bufio.NewScanner(result.Body)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			var e Entry
			if err := json.Unmarshal(line, &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
		result.Body.Close()
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}

	// Include what has not been flushed yet.
	s.mu.Lock()
	entries = append(entries, s.buf...)
	s.mu.Unlock()

	start := 0
	if n > 0 && n < len(entries) {
		start = len(entries) - n
	}
	return entries[start:], nil
}

// Prune deletes journal objects older than maxAge.
func (s *S3Store) Prune(maxAge time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var toDelete []string

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return err
		}

		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				if obj.Key != nil {
					toDelete = append(toDelete, *obj.Key)
				}
			}
		}
	}

	for _, key := range toDelete {
		s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	}

	return nil
}

// Close flushes the remaining buffer and stops the store.
func (s *S3Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.flushLocked()
	s.closed = true
	return err
}

func (s *S3Store) listKeys() ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func randomSuffix() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

package upload

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
)

// Part is a completed or in-progress multipart chunk, naming the S3
// part number and its ETag (spec.md §4.6).
type Part struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"e_tag"`
}

// PresignExpiry is how long every presigned URL this package issues
// remains valid (spec.md §4.6: "10 minutes from issue").
const PresignExpiry = 10 * time.Minute

// ObjectStore is the subset of S3-compatible object-store operations the
// upload coordinator needs. It is satisfied by *MinioObjectStore in
// production and can be faked in tests.
type ObjectStore interface {
	CreateMultipartUpload(ctx context.Context, key string) (uploadID string, err error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int) (string, error)
	ListParts(ctx context.Context, key, uploadID string) ([]Part, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error
	PresignGetObject(ctx context.Context, key string) (string, error)
	HeadObjectContentLength(ctx context.Context, key string) (int64, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

// MinioObjectStore implements ObjectStore against a single bucket of an
// S3-compatible endpoint via minio-go's Core client, which exposes the
// low-level multipart primitives the high-level Client does not.
type MinioObjectStore struct {
	core   *minio.Core
	bucket string
}

// NewMinioObjectStore wraps an already-constructed minio.Core for bucket.
func NewMinioObjectStore(core *minio.Core, bucket string) *MinioObjectStore {
	return &MinioObjectStore{core: core, bucket: bucket}
}

func (m *MinioObjectStore) CreateMultipartUpload(ctx context.Context, key string) (string, error) {
	return m.core.NewMultipartUpload(ctx, m.bucket, key, minio.PutObjectOptions{})
}

func (m *MinioObjectStore) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int) (string, error) {
	values := url.Values{}
	values.Set("partNumber", strconv.Itoa(partNumber))
	values.Set("uploadId", uploadID)

	u, err := m.core.Client.Presign(ctx, "PUT", m.bucket, key, PresignExpiry, values)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *MinioObjectStore) ListParts(ctx context.Context, key, uploadID string) ([]Part, error) {
	var parts []Part
	partNumberMarker := 0
	for {
		res, err := m.core.ListObjectParts(ctx, m.bucket, key, uploadID, partNumberMarker, 1000)
		if err != nil {
			return nil, err
		}
		for _, p := range res.ObjectParts {
			parts = append(parts, Part{PartNumber: p.PartNumber, ETag: p.ETag})
		}
		if !res.IsTruncated {
			break
		}
		partNumberMarker = res.NextPartNumberMarker
	}
	return parts, nil
}

func (m *MinioObjectStore) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []Part) error {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	completed := make([]minio.CompletePart, len(sorted))
	for i, p := range sorted {
		completed[i] = minio.CompletePart{PartNumber: p.PartNumber, ETag: p.ETag}
	}

	_, err := m.core.CompleteMultipartUpload(ctx, m.bucket, key, uploadID, completed, minio.PutObjectOptions{})
	return err
}

func (m *MinioObjectStore) PresignGetObject(ctx context.Context, key string) (string, error) {
	u, err := m.core.Client.PresignedGetObject(ctx, m.bucket, key, PresignExpiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *MinioObjectStore) HeadObjectContentLength(ctx context.Context, key string) (int64, error) {
	info, err := m.core.Client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// DeleteObjects removes keys in batches of 1000, dispatched in parallel
// (spec.md §4.6 "bulk delete"). It returns the first error encountered,
// if any, after all batches have completed.
func (m *MinioObjectStore) DeleteObjects(ctx context.Context, keys []string) error {
	const batchSize = 1000

	type result struct{ err error }
	var batches [][]string
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[i:end])
	}

	results := make(chan result, len(batches))
	for _, batch := range batches {
		go func(batch []string) {
			results <- result{err: m.deleteBatch(ctx, batch)}
		}(batch)
	}

	var firstErr error
	for range batches {
		if r := <-results; r.err != nil && firstErr == nil {
			firstErr = r.err
		}
	}
	return firstErr
}

func (m *MinioObjectStore) deleteBatch(ctx context.Context, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var firstErr error
	for errResult := range m.core.Client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if errResult.Err != nil && firstErr == nil {
			firstErr = errResult.Err
		}
	}
	return firstErr
}

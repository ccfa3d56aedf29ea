package upload

import (
	"context"
	"sort"
	"sync"

	"github.com/vaultmesh/coordplane/internal/apperr"
	"github.com/vaultmesh/coordplane/internal/envelope"
)

// EncAlg is the only encryption algorithm coordplane currently tracks for
// uploaded content (spec.md §3: Upload.enc_alg). original_source/src/s3.rs
// leaves room for more but only ever sets this one.
const EncAlg = "aes-gcm"

// Info is the per-file upload bookkeeping record (spec.md §3).
type Info struct {
	EncAlg    string `json:"enc_alg"`
	UploadID  string `json:"upload_id"`
	ChunkSize int64  `json:"chunk_size"`
	Complete  bool   `json:"complete"`
}

// StartResult is returned to the client on a successful Start.
type StartResult struct {
	UploadID  string   `json:"upload_id"`
	ChunkURLs []string `json:"chunk_urls"`
	ChunkSize int64    `json:"chunk_size"`
	EncAlg    string   `json:"enc_alg"`
}

// Status is the wire shape for GET /uploads/info/:file_id (spec.md §4.6
// "Status"): enc_alg and chunk_size accompany either variant; Parts is
// set for the pending variant, URL/ContentLength for the ready variant.
type Status struct {
	EncAlg        string `json:"enc_alg"`
	ChunkSize     int64  `json:"chunk_size"`
	Parts         []Part `json:"parts,omitempty"`
	URL           string `json:"url,omitempty"`
	ContentLength int64  `json:"content_length,omitempty"`
}

// Ready reports whether this Status is the completed-upload variant.
func (s Status) Ready() bool { return s.URL != "" }

// Coordinator tracks in-flight uploads and drives the object store
// (spec.md §4.6). One mutex guards the bookkeeping map; object-store
// calls are never made while holding it.
type Coordinator struct {
	store  ObjectStore
	mu     sync.Mutex
	active map[envelope.Uid]Info
}

// NewCoordinator returns a Coordinator backed by store.
func NewCoordinator(store ObjectStore) *Coordinator {
	return &Coordinator{store: store, active: make(map[envelope.Uid]Info)}
}

// Start partitions fileSize, creates the multipart upload, issues
// presigned part URLs in parallel, and registers bookkeeping keyed by
// fileID (spec.md §4.6 "Start").
func (c *Coordinator) Start(ctx context.Context, fileID envelope.Uid, key string, fileSize int64) (StartResult, error) {
	plan := PartitionFile(fileSize)

	uploadID, err := c.store.CreateMultipartUpload(ctx, key)
	if err != nil {
		return StartResult{}, apperr.NewIo("create multipart upload", err)
	}

	urls := make([]string, plan.NumChunks)
	errs := make([]error, plan.NumChunks)
	var wg sync.WaitGroup
	for i := 0; i < plan.NumChunks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url, err := c.store.PresignUploadPart(ctx, key, uploadID, i+1)
			urls[i] = url
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return StartResult{}, apperr.NewIo("presign upload part", err)
		}
	}

	c.mu.Lock()
	c.active[fileID] = Info{EncAlg: EncAlg, UploadID: uploadID, ChunkSize: plan.ChunkSize, Complete: false}
	c.mu.Unlock()

	return StartResult{UploadID: uploadID, ChunkURLs: urls, ChunkSize: plan.ChunkSize, EncAlg: EncAlg}, nil
}

// Get returns the tracked Info for fileID, if any.
func (c *Coordinator) Get(fileID envelope.Uid) (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.active[fileID]
	return info, ok
}

// Status reports whether fileID's upload is complete, and if so returns
// a fresh presigned GET URL and content length; otherwise it lists the
// parts uploaded so far (spec.md §4.6 "Status").
func (c *Coordinator) Status(ctx context.Context, fileID envelope.Uid, key string) (Status, error) {
	info, ok := c.Get(fileID)
	if !ok {
		return Status{}, apperr.NewNotFound(fileID.String())
	}

	base := Status{EncAlg: info.EncAlg, ChunkSize: info.ChunkSize}

	if info.Complete {
		url, err := c.store.PresignGetObject(ctx, key)
		if err != nil {
			return Status{}, apperr.NewIo("presign get object", err)
		}
		length, err := c.store.HeadObjectContentLength(ctx, key)
		if err != nil {
			return Status{}, apperr.NewIo("head object", err)
		}
		base.URL = url
		base.ContentLength = length
		return base, nil
	}

	parts, err := c.store.ListParts(ctx, key, info.UploadID)
	if err != nil {
		return Status{}, apperr.NewIo("list parts", err)
	}
	base.Parts = parts
	return base, nil
}

// Finish completes the multipart upload with parts (sorted ascending by
// part number) and flips the tracked upload to complete (spec.md §4.6
// "Finish").
func (c *Coordinator) Finish(ctx context.Context, fileID envelope.Uid, key, uploadID string, parts []Part) error {
	info, ok := c.Get(fileID)
	if !ok {
		return apperr.NewNotFound(fileID.String())
	}

	sorted := append([]Part(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	if err := c.store.CompleteMultipartUpload(ctx, key, uploadID, sorted); err != nil {
		return apperr.NewIo("complete multipart upload", err)
	}

	c.mu.Lock()
	info.Complete = true
	c.active[fileID] = info
	c.mu.Unlock()
	return nil
}

// BulkDelete removes every (fileID, key) pair from the object store and
// drops their bookkeeping entries, batching deletes per spec.md §4.6.
func (c *Coordinator) BulkDelete(ctx context.Context, fileIDs []envelope.Uid, keys []string) error {
	if err := c.store.DeleteObjects(ctx, keys); err != nil {
		return apperr.NewIo("delete objects", err)
	}

	c.mu.Lock()
	for _, id := range fileIDs {
		delete(c.active, id)
	}
	c.mu.Unlock()
	return nil
}

// Purge empties the coordinator's bookkeeping. It does not touch the
// object store itself, and the façade's global purge does not call
// BulkDelete either, so uploaded objects stay in the store.
func (c *Coordinator) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = make(map[envelope.Uid]Info)
}

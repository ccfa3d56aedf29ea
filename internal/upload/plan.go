// Package upload coordinates chunked large-file uploads against an
// external S3-compatible object store (spec.md §4.6): chunk-size
// planning, presigned part URLs, completion, status queries, and bulk
// delete. It is grounded on original_source/src/s3.rs, adapted from the
// AWS SDK onto github.com/minio/minio-go/v7 (the S3-compatible client
// used elsewhere in the example pack).
package upload

const (
	smallFileThreshold  = 50 * 1024 * 1024  // below this: 5 MiB chunks
	mediumFileThreshold = 500 * 1024 * 1024 // below this: 10 MiB chunks; at/above: 50 MiB chunks

	smallChunkSize  = 5 * 1024 * 1024
	mediumChunkSize = 10 * 1024 * 1024
	largeChunkSize  = 50 * 1024 * 1024
)

// PartitionPlan describes how a file of a given size should be split
// into multipart-upload chunks (spec.md §4.6).
type PartitionPlan struct {
	ChunkSize int64
	NumChunks int
}

// PartitionFile computes the chunk size and chunk count for fileSize,
// per the thresholds in spec.md §4.6.
func PartitionFile(fileSize int64) PartitionPlan {
	chunkSize := int64(largeChunkSize)
	switch {
	case fileSize < smallFileThreshold:
		chunkSize = smallChunkSize
	case fileSize < mediumFileThreshold:
		chunkSize = mediumChunkSize
	}

	numChunks := int((fileSize + chunkSize - 1) / chunkSize)
	return PartitionPlan{ChunkSize: chunkSize, NumChunks: numChunks}
}

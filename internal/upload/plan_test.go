package upload

import "testing"

func TestPartitionFile(t *testing.T) {
	const mib = 1024 * 1024
	cases := []struct {
		name          string
		fileSize      int64
		wantChunkSize int64
		wantNumChunks int
	}{
		{"zero size", 0, smallChunkSize, 0},
		{"small under one chunk", 4 * mib, smallChunkSize, 1},
		{"small just over one chunk", 6 * mib, smallChunkSize, 2},
		{"small rounds up", 7 * mib, smallChunkSize, 2},
		{"small rounds up again", 11 * mib, smallChunkSize, 3},
		{"medium chunk size", 211 * mib, mediumChunkSize, 22},
		{"large chunk size", 501 * mib, largeChunkSize, 11},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := PartitionFile(c.fileSize)
			if got.ChunkSize != c.wantChunkSize {
				t.Errorf("ChunkSize = %d, want %d", got.ChunkSize, c.wantChunkSize)
			}
			if got.NumChunks != c.wantNumChunks {
				t.Errorf("NumChunks = %d, want %d", got.NumChunks, c.wantNumChunks)
			}
		})
	}
}

func TestPartitionFileThresholdBoundaries(t *testing.T) {
	if got := PartitionFile(smallFileThreshold - 1).ChunkSize; got != smallChunkSize {
		t.Errorf("just under small threshold: ChunkSize = %d, want %d", got, smallChunkSize)
	}
	if got := PartitionFile(smallFileThreshold).ChunkSize; got != mediumChunkSize {
		t.Errorf("at small threshold: ChunkSize = %d, want %d", got, mediumChunkSize)
	}
	if got := PartitionFile(mediumFileThreshold - 1).ChunkSize; got != mediumChunkSize {
		t.Errorf("just under medium threshold: ChunkSize = %d, want %d", got, mediumChunkSize)
	}
	if got := PartitionFile(mediumFileThreshold).ChunkSize; got != largeChunkSize {
		t.Errorf("at medium threshold: ChunkSize = %d, want %d", got, largeChunkSize)
	}
}

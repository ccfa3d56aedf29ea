// Package legacyupload implements the out-of-band filesystem upload path
// named in spec.md as an external collaborator ("local filesystem
// spooling of legacy uploads") and kept in the error taxonomy via
// InvalidRange/416. It is grounded on
// original_source/src/{content_range.rs, main.rs}: a bounded,
// header-gated, range-aware append to a file per upload id. It never
// touches the node tree, share state, or the object-store coordinator.
package legacyupload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vaultmesh/coordplane/internal/apperr"
)

// Range is a parsed "bytes=start-end" Range header value.
type Range struct {
	Start uint64
	End   uint64
}

// ParseRange parses a "bytes=start-end" Range header. Malformed input
// returns apperr.InvalidRange (spec.md §7).
func ParseRange(s string) (Range, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(s, prefix) {
		return Range{}, apperr.InvalidRange
	}
	parts := strings.Split(s[len(prefix):], "-")
	if len(parts) != 2 {
		return Range{}, apperr.InvalidRange
	}
	start, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Range{}, apperr.InvalidRange
	}
	end, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Range{}, apperr.InvalidRange
	}
	return Range{Start: start, End: end}, nil
}

// ContentRange is a parsed "bytes start-end/length" Content-Range header
// value; Length is nil when the total size is unknown ("*").
type ContentRange struct {
	Start  uint64
	End    uint64
	Length *uint64
}

// ParseContentRange parses a "bytes start-end/length" Content-Range
// header. Malformed input returns apperr.InvalidRange (spec.md §7).
func ParseContentRange(s string) (ContentRange, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 || fields[0] != "bytes" {
		return ContentRange{}, apperr.InvalidRange
	}

	rangeAndLength := strings.Split(fields[1], "/")
	if len(rangeAndLength) != 2 {
		return ContentRange{}, apperr.InvalidRange
	}

	var length *uint64
	if rangeAndLength[1] != "*" {
		l, err := strconv.ParseUint(rangeAndLength[1], 10, 64)
		if err != nil {
			return ContentRange{}, apperr.InvalidRange
		}
		length = &l
	}

	startEnd := strings.Split(rangeAndLength[0], "-")
	if len(startEnd) != 2 {
		return ContentRange{}, apperr.InvalidRange
	}
	start, err := strconv.ParseUint(startEnd[0], 10, 64)
	if err != nil {
		return ContentRange{}, apperr.InvalidRange
	}
	end, err := strconv.ParseUint(startEnd[1], 10, 64)
	if err != nil {
		return ContentRange{}, apperr.InvalidRange
	}

	return ContentRange{Start: start, End: end, Length: length}, nil
}

func (c ContentRange) String() string {
	length := "*"
	if c.Length != nil {
		length = strconv.FormatUint(*c.Length, 10)
	}
	return fmt.Sprintf("bytes %d-%d/%s", c.Start, c.End, length)
}

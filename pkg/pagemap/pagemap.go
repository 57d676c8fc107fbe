// Package pagemap expands a logical (offset, length) I/O request into an
// ordered list of page placements against a fixed page size.
//
// The mapper is pure: it holds no state and depends only on its inputs, in
// the spirit of the upstream mapper_factory abstraction, collapsed here to
// a single implementation since only one placement strategy is in scope.
package pagemap

import (
	"math"
	"strconv"

	"github.com/hermesio/hermes/pkg/herrors"
)

// DefaultPageSize is the default page size, the same value pkg/config uses
// when page_size is unset. 1 MiB matches the upstream kPageSize default.
const DefaultPageSize int64 = 1 << 20

// MaxPageIndex caps the page index the mapper will produce, guarding
// against pathological offsets overflowing downstream arithmetic.
const MaxPageIndex int64 = math.MaxInt64 / 2

// Placement is a single mapping record: the bytes of a request that fall
// on one page.
type Placement struct {
	// PageIndex is the 1-based index of the page this placement covers.
	PageIndex int64

	// BlobOff is the offset within the page, 0 <= BlobOff < pageSize.
	BlobOff int64

	// BlobSize is the number of bytes this placement covers.
	// BlobOff + BlobSize <= pageSize.
	BlobSize int64

	// BucketOff is the absolute file offset this placement starts at.
	BucketOff int64
}

// BlobName returns the textual blob name for this placement: the decimal
// page index. Page indices start at 1; index 0 is never produced.
func (p Placement) BlobName() string {
	return strconv.FormatInt(p.PageIndex, 10)
}

// Map expands a logical (start, totalSize) request into an ordered,
// non-overlapping list of placements whose sizes sum to totalSize.
//
// Algorithm: the first placement covers min(pageSize-firstOff,
// totalSize) bytes at the page containing start, offset firstOff within
// that page. Every following placement begins at a page boundary and
// covers min(pageSize, remaining) bytes, with the final placement covering
// the tail that may be shorter than pageSize.
func Map(start, totalSize, pageSize int64) ([]Placement, error) {
	if start < 0 || totalSize < 0 {
		return nil, herrors.New(herrors.ErrInvalidArgument, "negative offset or size")
	}
	if pageSize <= 0 {
		return nil, herrors.New(herrors.ErrInvalidArgument, "page size must be positive")
	}
	if totalSize == 0 {
		return nil, nil
	}
	if math.MaxInt64-start < totalSize {
		return nil, herrors.New(herrors.ErrInvalidArgument, "request overflows offset range")
	}

	firstPage := start/pageSize + 1
	firstOff := start % pageSize

	if firstPage > MaxPageIndex {
		return nil, herrors.New(herrors.ErrInvalidArgument, "page index exceeds ceiling")
	}

	placements := make([]Placement, 0, totalSize/pageSize+2)

	remaining := totalSize
	page := firstPage
	off := firstOff
	bucketOff := start

	for remaining > 0 {
		size := pageSize - off
		if size > remaining {
			size = remaining
		}

		placements = append(placements, Placement{
			PageIndex: page,
			BlobOff:   off,
			BlobSize:  size,
			BucketOff: bucketOff,
		})

		remaining -= size
		bucketOff += size
		page++
		off = 0

		if remaining > 0 && page > MaxPageIndex {
			return nil, herrors.New(herrors.ErrInvalidArgument, "page index exceeds ceiling")
		}
	}

	return placements, nil
}

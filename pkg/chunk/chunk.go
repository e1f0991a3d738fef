package chunk

import (
	"fmt"
	"slices"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
	"github.com/vnykmshr/qpsflow/pkg/common/validation"
)

// Options selects how a slice is split. Exactly one field must be positive.
type Options struct {
	// NChunks splits the input into this many near-equal parts. The first
	// len%NChunks parts hold one extra element. Parts may be empty when
	// NChunks exceeds the input length.
	NChunks int

	// ChunkSize splits the input into consecutive parts of this size; the
	// last part may be shorter.
	ChunkSize int
}

func (o Options) validate() error {
	switch {
	case o.NChunks != 0 && o.ChunkSize != 0:
		return gferrors.NewValidationError("chunk", "options", o, "only one of NChunks or ChunkSize can be set")
	case o.NChunks != 0:
		return validation.ValidatePositive("chunk", "n_chunks", o.NChunks)
	case o.ChunkSize != 0:
		return validation.ValidatePositive("chunk", "chunk_size", o.ChunkSize)
	default:
		return gferrors.NewValidationError("chunk", "options", o, "one of NChunks or ChunkSize must be set").
			WithHint("set NChunks for a fixed number of parts or ChunkSize for a fixed part size")
	}
}

// Chunk splits data according to opts. The concatenation of the returned
// chunks always equals data.
func Chunk[T any](data []T, opts Options) ([][]T, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if opts.ChunkSize > 0 {
		chunks := make([][]T, 0, (len(data)+opts.ChunkSize-1)/opts.ChunkSize)
		for start := 0; start < len(data); start += opts.ChunkSize {
			end := min(start+opts.ChunkSize, len(data))
			chunks = append(chunks, data[start:end:end])
		}
		return chunks, nil
	}

	size, remainder := len(data)/opts.NChunks, len(data)%opts.NChunks
	chunks := make([][]T, 0, opts.NChunks)
	start := 0
	for i := 0; i < opts.NChunks; i++ {
		end := start + size
		if i < remainder {
			end++
		}
		chunks = append(chunks, data[start:end:end])
		start = end
	}
	return chunks, nil
}

// ChunkAt returns chunk idx of Chunk(data, opts).
func ChunkAt[T any](data []T, opts Options, idx int) ([]T, error) {
	chunks, err := Chunk(data, opts)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(chunks) {
		return nil, fmt.Errorf("chunk: index %d out of range [0, %d)", idx, len(chunks))
	}
	return chunks[idx], nil
}

// SortChunk sorts a copy of data by less and splits it according to opts.
// The sort is stable in both directions: equal elements keep their input
// order even when reverse is true. data itself is not modified.
func SortChunk[T any](data []T, less func(a, b T) bool, reverse bool, opts Options) ([][]T, error) {
	if less == nil {
		return nil, gferrors.NewValidationError("chunk", "less", nil, "cannot be nil")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	sorted := slices.Clone(data)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if reverse {
			a, b = b, a
		}
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
	return Chunk(sorted, opts)
}

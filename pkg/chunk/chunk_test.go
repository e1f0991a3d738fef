package chunk

import (
	"slices"
	"strings"
	"testing"

	"github.com/vnykmshr/qpsflow/internal/testutil"
	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func lengths[T any](chunks [][]T) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = len(c)
	}
	return out
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		opts        Options
		wantLengths []int
	}{
		{"n chunks even", 9, Options{NChunks: 3}, []int{3, 3, 3}},
		{"n chunks remainder", 10, Options{NChunks: 3}, []int{4, 3, 3}},
		{"n chunks remainder two", 11, Options{NChunks: 3}, []int{4, 4, 3}},
		{"more chunks than items", 2, Options{NChunks: 4}, []int{1, 1, 0, 0}},
		{"n chunks empty input", 0, Options{NChunks: 2}, []int{0, 0}},
		{"chunk size even", 6, Options{ChunkSize: 2}, []int{2, 2, 2}},
		{"chunk size tail", 7, Options{ChunkSize: 3}, []int{3, 3, 1}},
		{"chunk size larger than input", 2, Options{ChunkSize: 5}, []int{2}},
		{"chunk size empty input", 0, Options{ChunkSize: 5}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := seq(tt.n)
			chunks, err := Chunk(data, tt.opts)
			testutil.AssertNoError(t, err)

			if got := lengths(chunks); !slices.Equal(got, tt.wantLengths) {
				t.Fatalf("chunk lengths = %v, want %v", got, tt.wantLengths)
			}
			if joined := slices.Concat(chunks...); !slices.Equal(joined, data) {
				t.Errorf("concatenated chunks = %v, want %v", joined, data)
			}
		})
	}
}

func TestChunkInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"neither set", Options{}},
		{"both set", Options{NChunks: 2, ChunkSize: 2}},
		{"negative n chunks", Options{NChunks: -1}},
		{"negative chunk size", Options{ChunkSize: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Chunk(seq(4), tt.opts)
			if !gferrors.IsValidationError(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestChunksAreClipped(t *testing.T) {
	data := seq(4)
	chunks, err := Chunk(data, Options{NChunks: 2})
	testutil.AssertNoError(t, err)

	_ = append(chunks[0], 99)
	if !slices.Equal(data, []int{0, 1, 2, 3}) {
		t.Errorf("append to a chunk modified the input: %v", data)
	}
}

func TestChunkAt(t *testing.T) {
	data := seq(10)

	got, err := ChunkAt(data, Options{NChunks: 3}, 1)
	testutil.AssertNoError(t, err)
	if !slices.Equal(got, []int{4, 5, 6}) {
		t.Errorf("ChunkAt(1) = %v", got)
	}

	got, err = ChunkAt(data, Options{ChunkSize: 4}, 2)
	testutil.AssertNoError(t, err)
	if !slices.Equal(got, []int{8, 9}) {
		t.Errorf("ChunkAt(2) = %v", got)
	}

	for _, idx := range []int{-1, 3} {
		_, err = ChunkAt(data, Options{NChunks: 3}, idx)
		testutil.AssertError(t, err)
	}

	_, err = ChunkAt(data, Options{}, 0)
	if !gferrors.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestSortChunk(t *testing.T) {
	type job struct {
		name     string
		priority int
	}
	jobs := []job{{"a", 2}, {"b", 1}, {"c", 2}, {"d", 3}, {"e", 1}}
	byPriority := func(x, y job) bool { return x.priority < y.priority }

	names := func(chunks [][]job) string {
		var parts []string
		for _, c := range chunks {
			var sb strings.Builder
			for _, j := range c {
				sb.WriteString(j.name)
			}
			parts = append(parts, sb.String())
		}
		return strings.Join(parts, "|")
	}

	asc, err := SortChunk(jobs, byPriority, false, Options{ChunkSize: 2})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, names(asc), "be|ac|d")

	desc, err := SortChunk(jobs, byPriority, true, Options{NChunks: 2})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, names(desc), "dac|be")

	// Input order is untouched.
	testutil.AssertEqual(t, names([][]job{jobs}), "abcde")
}

func TestSortChunkInvalid(t *testing.T) {
	_, err := SortChunk([]int{3, 1}, nil, false, Options{NChunks: 1})
	if !gferrors.IsValidationError(err) {
		t.Errorf("expected ValidationError for nil less, got %v", err)
	}

	_, err = SortChunk([]int{3, 1}, func(a, b int) bool { return a < b }, false, Options{})
	if !gferrors.IsValidationError(err) {
		t.Errorf("expected ValidationError for empty options, got %v", err)
	}
}

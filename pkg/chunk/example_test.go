package chunk_test

import (
	"fmt"

	"github.com/vnykmshr/qpsflow/pkg/chunk"
)

func ExampleChunk() {
	parts, err := chunk.Chunk([]string{"a", "b", "c", "d", "e"}, chunk.Options{NChunks: 2})
	if err != nil {
		panic(err)
	}
	fmt.Println(parts)

	batches, _ := chunk.Chunk([]int{1, 2, 3, 4, 5}, chunk.Options{ChunkSize: 2})
	fmt.Println(batches)

	// Output:
	// [[a b c] [d e]]
	// [[1 2] [3 4] [5]]
}

func ExampleSortChunk() {
	scores := []int{7, 3, 9, 1, 5, 8}
	top, err := chunk.SortChunk(scores, func(a, b int) bool { return a < b }, true, chunk.Options{ChunkSize: 3})
	if err != nil {
		panic(err)
	}
	fmt.Println(top[0])

	// Output:
	// [9 8 7]
}

// Package chunk splits slices into contiguous parts, typically to fan a
// workload out across callers of a rate limiter.
//
// Exactly one of Options.NChunks or Options.ChunkSize must be set:
//
//	parts, err := chunk.Chunk(urls, chunk.Options{NChunks: 4})
//	batches, err := chunk.Chunk(rows, chunk.Options{ChunkSize: 100})
//
// Returned chunks share the input's backing array and are clipped, so
// appending to one never overwrites its neighbour.
package chunk

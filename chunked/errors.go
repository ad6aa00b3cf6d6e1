package chunked

import "fmt"

// InputReadError indicates the source file could not be opened or parsed
// into chunks. It aborts the whole run before any worker starts.
type InputReadError struct {
	Path string
	Err  error
}

func (e *InputReadError) Error() string {
	return fmt.Sprintf("cannot read input %s: %v", e.Path, e.Err)
}

func (e *InputReadError) Unwrap() error { return e.Err }

// ChunkProcessingError indicates a worker failed on one chunk. The chunk
// index identifies the failing slice of the input for reproduction.
type ChunkProcessingError struct {
	Index int
	Err   error
}

func (e *ChunkProcessingError) Error() string {
	return fmt.Sprintf("chunk %d failed: %v", e.Index, e.Err)
}

func (e *ChunkProcessingError) Unwrap() error { return e.Err }

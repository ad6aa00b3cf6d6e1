// Package chunked runs a transform over a large delimited file in fixed-size
// chunks, fanning chunks out to a pool of worker goroutines. Each worker
// writes its transformed chunk to a temporary parquet file; once every chunk
// has finished, the chunk files are merged into the output in input order,
// so the result is identical regardless of chunk size or worker count.
package chunked

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bigbio/quantmsio-go/pqio"
	"github.com/bigbio/quantmsio-go/tabular"
)

const (
	// DefaultChunkSize is the number of rows read per chunk.
	DefaultChunkSize = 100000
)

// DefaultWorkers returns the default worker pool size.
func DefaultWorkers() int { return runtime.NumCPU() + 1 }

// Transform converts chunks of an input table into record batches of a
// fixed output schema.
type Transform interface {
	// Name identifies the transform in log output.
	Name() string
	// Schema is the output schema shared by every produced batch.
	Schema() *arrow.Schema
	// NewWorker returns a worker holding any per-goroutine state, such as
	// parse caches. Workers are never shared between goroutines.
	NewWorker() Worker
}

// Worker processes one chunk at a time on a single goroutine.
type Worker interface {
	Process(chunk *tabular.Chunk) (arrow.RecordBatch, error)
}

// Options configures a chunked run.
type Options struct {
	ChunkSize int
	Workers   int
	Delimiter rune
	Mem       memory.Allocator
}

func (o *Options) fill() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
	}
	if o.Mem == nil {
		o.Mem = memory.NewGoAllocator()
	}
}

// headerSchema infers an all-string arrow schema from the header row.
func headerSchema(f *os.File, delimiter rune) (*arrow.Schema, error) {
	rdr := bufio.NewReader(f)
	line, err := rdr.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header line: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty header line")
	}

	header := strings.Split(line, string(delimiter))
	fields := make([]arrow.Field, len(header))
	for i, h := range header {
		fields[i] = arrow.Field{Name: h, Type: arrow.BinaryTypes.String}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	return arrow.NewSchema(fields, nil), nil
}

type job struct {
	index int
	chunk *tabular.Chunk
}

// Process converts inputPath into a parquet file at outputPath by running
// the transform over the input in chunks. Chunk outputs are staged in a
// temporary directory next to the output and merged in input order. On any
// failure no output file is left behind.
func Process(inputPath, outputPath string, t Transform, opts Options) error {
	opts.fill()

	f, err := os.Open(inputPath)
	if err != nil {
		return &InputReadError{Path: inputPath, Err: err}
	}
	defer f.Close()

	schema, err := headerSchema(f, opts.Delimiter)
	if err != nil {
		return &InputReadError{Path: inputPath, Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	tempDir := filepath.Join(filepath.Dir(outputPath), ".temp_"+stem)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("cannot create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	rdr := csv.NewReader(
		f,
		schema,
		csv.WithHeader(true),
		csv.WithChunk(opts.ChunkSize),
		csv.WithComma(opts.Delimiter),
	)
	defer rdr.Release()

	log.Printf("processing: %s (%s, %d workers, chunk size %d)",
		inputPath, t.Name(), opts.Workers, opts.ChunkSize)

	jobs := make(chan job, opts.Workers)
	stop := make(chan struct{})
	errChan := make(chan error, opts.Workers+1)

	var stopOnce sync.Once
	abort := func(err error) {
		errChan <- err
		stopOnce.Do(func() { close(stop) })
	}

	// read chunks sequentially, feed the pool
	go func() {
		defer close(jobs)
		index := 0
		for rdr.Next() {
			rec := rdr.RecordBatch()
			chunk, err := tabular.FromRecordBatch(rec)
			if err != nil {
				abort(&InputReadError{Path: inputPath, Err: err})
				return
			}
			select {
			case jobs <- job{index: index, chunk: chunk}:
				index++
			case <-stop:
				return
			}
		}
		if err := rdr.Err(); err != nil {
			abort(&InputReadError{Path: inputPath, Err: err})
		}
	}()

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		go func() {
			defer wg.Done()
			worker := t.NewWorker()
			for j := range jobs {
				select {
				case <-stop:
					return
				default:
				}
				rec, err := worker.Process(j.chunk)
				if err != nil {
					abort(&ChunkProcessingError{Index: j.index, Err: err})
					return
				}
				chunkPath := filepath.Join(tempDir, fmt.Sprintf("chunk_%06d.parquet", j.index))
				if err := pqio.WriteRecordBatch(chunkPath, rec, opts.Mem); err != nil {
					rec.Release()
					abort(&ChunkProcessingError{Index: j.index, Err: err})
					return
				}
				rec.Release()
				log.Printf("chunk %d done (%d rows)", j.index, j.chunk.NumRows())
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errChan:
		return err
	default:
	}

	// merge staged chunks in input order
	entries, err := filepath.Glob(filepath.Join(tempDir, "chunk_*.parquet"))
	if err != nil {
		return fmt.Errorf("cannot list chunk files: %w", err)
	}
	if len(entries) == 0 {
		return &InputReadError{Path: inputPath, Err: fmt.Errorf("no data rows")}
	}
	sort.Strings(entries)

	if err := pqio.MergeFiles(outputPath, entries, t.Schema(), opts.Mem); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("merge failed: %w", err)
	}

	log.Printf("written: %s", outputPath)
	return nil
}

// ReadChunks reads a delimited file sequentially, invoking fn for every
// chunk. It is used for preliminary scans that build lookup tables before
// the parallel pass.
func ReadChunks(inputPath string, chunkSize int, delimiter rune, fn func(*tabular.Chunk) error) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if delimiter == 0 {
		delimiter = '\t'
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return &InputReadError{Path: inputPath, Err: err}
	}
	defer f.Close()

	schema, err := headerSchema(f, delimiter)
	if err != nil {
		return &InputReadError{Path: inputPath, Err: err}
	}

	rdr := csv.NewReader(
		f,
		schema,
		csv.WithHeader(true),
		csv.WithChunk(chunkSize),
		csv.WithComma(delimiter),
	)
	defer rdr.Release()

	for rdr.Next() {
		chunk, err := tabular.FromRecordBatch(rdr.RecordBatch())
		if err != nil {
			return &InputReadError{Path: inputPath, Err: err}
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	if err := rdr.Err(); err != nil {
		return &InputReadError{Path: inputPath, Err: err}
	}
	return nil
}

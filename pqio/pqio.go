// Package pqio streams arrow record batches to and from parquet files.
package pqio

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// WriteStream writes all record batches from recordChan to a single
// snappy-compressed parquet file. The writer is created lazily from the
// first record's schema, so records read back from parquet (which carry
// field-id metadata) round-trip cleanly; the schema argument is used only
// when the stream is empty. The writer takes ownership of every record it
// receives and releases it after writing.
func WriteStream(
	filename string,
	schema *arrow.Schema,
	recordChan <-chan arrow.RecordBatch,
	mem memory.Allocator,
) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create parquet file: %w", err)
	}
	defer outFile.Close()

	pqProps := parquet.NewWriterProperties(
		parquet.WithAllocator(mem),
		parquet.WithCompression(compress.Codecs.Snappy),
	)
	arrowProps := pqarrow.DefaultWriterProps()

	var writer *pqarrow.FileWriter
	defer func() {
		if writer != nil {
			writer.Close()
		}
	}()

	for rec := range recordChan {
		if writer == nil {
			writer, err = pqarrow.NewFileWriter(rec.Schema(), outFile, pqProps, arrowProps)
			if err != nil {
				rec.Release()
				return fmt.Errorf("cannot create writer: %w", err)
			}
		}
		if err := writer.Write(rec); err != nil {
			rec.Release()
			return fmt.Errorf("cannot write record: %w", err)
		}
		rec.Release()
	}

	if writer == nil {
		writer, err = pqarrow.NewFileWriter(schema, outFile, pqProps, arrowProps)
		if err != nil {
			return fmt.Errorf("cannot create writer: %w", err)
		}
	}

	return nil
}

// WriteRecordBatch writes a single record batch to a parquet file.
func WriteRecordBatch(filename string, rec arrow.RecordBatch, mem memory.Allocator) error {
	recordChan := make(chan arrow.RecordBatch, 1)
	rec.Retain()
	recordChan <- rec
	close(recordChan)
	return WriteStream(filename, rec.Schema(), recordChan, mem)
}

// ReadRecords streams arrow record batches from a parquet file. The caller
// must drain recordChan and then receive from errChan.
func ReadRecords(
	parquetPath string,
	mem memory.Allocator,
) (<-chan arrow.RecordBatch, <-chan error) {
	recordChan := make(chan arrow.RecordBatch, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(recordChan)
		defer close(errChan)

		f, err := os.Open(parquetPath)
		if err != nil {
			errChan <- fmt.Errorf("failed to open parquet file %s: %w", parquetPath, err)
			return
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			errChan <- fmt.Errorf("failed to stat file %s: %w", parquetPath, err)
			return
		}

		pf, err := file.NewParquetReader(f)
		if err != nil {
			errChan <- fmt.Errorf("failed to create parquet reader for %s: %w", parquetPath, err)
			return
		}
		defer pf.Close()

		arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
		if err != nil {
			errChan <- fmt.Errorf("failed to create arrow reader for %s: %w", parquetPath, err)
			return
		}

		tbl, err := arrowReader.ReadTable(context.Background())
		if err != nil {
			errChan <- fmt.Errorf("failed to read table from %s: %w", parquetPath, err)
			return
		}
		defer tbl.Release()

		tr := array.NewTableReader(tbl, int64(stat.Size()))
		defer tr.Release()

		for tr.Next() {
			batch := tr.Record()
			batch.Retain()
			recordChan <- batch
		}

		if err := tr.Err(); err != nil {
			errChan <- fmt.Errorf("error reading table from %s: %w", parquetPath, err)
			return
		}
	}()

	return recordChan, errChan
}

// MergeFiles concatenates parquet files, in the order given, into a single
// output file. All inputs must share the output schema.
func MergeFiles(outputPath string, paths []string, schema *arrow.Schema, mem memory.Allocator) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input parquet files to merge")
	}

	combinedChan := make(chan arrow.RecordBatch, 10)
	mergeErr := make(chan error, 1)

	go func() {
		defer close(combinedChan)
		defer close(mergeErr)

		for _, p := range paths {
			recordChan, errChan := ReadRecords(p, mem)
			for rec := range recordChan {
				combinedChan <- rec
			}
			if err := <-errChan; err != nil {
				mergeErr <- err
				return
			}
		}
	}()

	if err := WriteStream(outputPath, schema, combinedChan, mem); err != nil {
		return err
	}
	if err := <-mergeErr; err != nil {
		return fmt.Errorf("merge aborted: %w", err)
	}
	return nil
}

// FileStats summarizes a parquet file for the stat command.
type FileStats struct {
	Rows        int64
	RowGroups   int
	Columns     int
	ColumnNames []string
	FileSize    int64
}

// Stat reads parquet metadata without loading the data pages.
func Stat(parquetPath string) (FileStats, error) {
	var stats FileStats

	f, err := os.Open(parquetPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open parquet file %s: %w", parquetPath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return stats, fmt.Errorf("failed to stat file %s: %w", parquetPath, err)
	}

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return stats, fmt.Errorf("failed to create parquet reader for %s: %w", parquetPath, err)
	}
	defer pf.Close()

	md := pf.MetaData()
	stats.Rows = md.NumRows
	stats.RowGroups = pf.NumRowGroups()
	stats.Columns = md.Schema.NumColumns()
	for i := 0; i < md.Schema.NumColumns(); i++ {
		stats.ColumnNames = append(stats.ColumnNames, md.Schema.Column(i).Path())
	}
	stats.FileSize = fi.Size()
	return stats, nil
}

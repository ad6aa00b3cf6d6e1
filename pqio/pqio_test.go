package pqio

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func stringRecord(t *testing.T, mem memory.Allocator, values []string) arrow.RecordBatch {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "sequence", Type: arrow.BinaryTypes.String},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues(values, nil)
	return b.NewRecordBatch()
}

func readAll(t *testing.T, path string, mem memory.Allocator) []string {
	t.Helper()
	var out []string
	recordChan, errChan := ReadRecords(path, mem)
	for rec := range recordChan {
		col := rec.Column(0).(*array.String)
		for i := 0; i < col.Len(); i++ {
			out = append(out, col.Value(i))
		}
		rec.Release()
	}
	if err := <-errChan; err != nil {
		t.Fatal(err)
	}
	return out
}

func TestWriteReadRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	path := filepath.Join(t.TempDir(), "out.parquet")

	rec := stringRecord(t, mem, []string{"PEPTIDE", "SEQVENCE"})
	defer rec.Release()
	if err := WriteRecordBatch(path, rec, mem); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, path, mem)
	want := []string{"PEPTIDE", "SEQVENCE"}
	if len(got) != len(want) {
		t.Fatalf("read %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteStreamEmptyProducesZeroRowFile(t *testing.T) {
	mem := memory.NewGoAllocator()
	path := filepath.Join(t.TempDir(), "empty.parquet")

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "sequence", Type: arrow.BinaryTypes.String},
	}, nil)
	recordChan := make(chan arrow.RecordBatch)
	close(recordChan)
	if err := WriteStream(path, schema, recordChan, mem); err != nil {
		t.Fatal(err)
	}

	stats, err := Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rows != 0 {
		t.Errorf("rows = %d, want 0", stats.Rows)
	}
	if stats.Columns != 1 {
		t.Errorf("columns = %d, want 1", stats.Columns)
	}
}

func TestMergeFilesPreservesOrder(t *testing.T) {
	mem := memory.NewGoAllocator()
	dir := t.TempDir()

	var paths []string
	var want []string
	var schema *arrow.Schema
	for i := 0; i < 3; i++ {
		v := fmt.Sprintf("chunk-%d", i)
		want = append(want, v)
		rec := stringRecord(t, mem, []string{v})
		schema = rec.Schema()
		p := filepath.Join(dir, fmt.Sprintf("chunk_%04d.parquet", i))
		if err := WriteRecordBatch(p, rec, mem); err != nil {
			t.Fatal(err)
		}
		rec.Release()
		paths = append(paths, p)
	}

	out := filepath.Join(dir, "merged.parquet")
	if err := MergeFiles(out, paths, schema, mem); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, out, mem)
	if len(got) != len(want) {
		t.Fatalf("merged %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	mem := memory.NewGoAllocator()
	recordChan, errChan := ReadRecords(filepath.Join(t.TempDir(), "absent.parquet"), mem)
	for range recordChan {
		t.Fatal("received record from missing file")
	}
	if err := <-errChan; err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStat(t *testing.T) {
	mem := memory.NewGoAllocator()
	path := filepath.Join(t.TempDir(), "stat.parquet")

	rec := stringRecord(t, mem, []string{"a", "b", "c"})
	defer rec.Release()
	if err := WriteRecordBatch(path, rec, mem); err != nil {
		t.Fatal(err)
	}

	stats, err := Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rows != 3 {
		t.Errorf("Rows = %d, want 3", stats.Rows)
	}
	if stats.Columns != 1 {
		t.Errorf("Columns = %d, want 1", stats.Columns)
	}
	if len(stats.ColumnNames) != 1 || stats.ColumnNames[0] != "sequence" {
		t.Errorf("ColumnNames = %v, want [sequence]", stats.ColumnNames)
	}
	if stats.FileSize <= 0 {
		t.Errorf("FileSize = %d, want > 0", stats.FileSize)
	}
}

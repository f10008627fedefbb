package ipc

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowipc "github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/SpecTable-Engine/table"
)

// Codec encodes and decodes tables as Arrow IPC byte streams.
type Codec struct {
	allocator memory.Allocator
}

// NewCodec creates a Codec with the default allocator.
func NewCodec() *Codec {
	return &Codec{allocator: memory.DefaultAllocator}
}

// Encode serializes the table's record to IPC bytes.
func (c *Codec) Encode(tbl *table.Table) ([]byte, error) {
	if tbl == nil {
		return nil, fmt.Errorf("nil table")
	}
	rec := tbl.Record()

	var buf bytes.Buffer
	writer := arrowipc.NewWriter(&buf, arrowipc.WithSchema(rec.Schema()), arrowipc.WithAllocator(c.allocator))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes IPC bytes into an Arrow record. The caller owns
// the returned record and must Release it.
func (c *Codec) Decode(data []byte) (arrow.Record, error) {
	reader, err := arrowipc.NewReader(bytes.NewReader(data), arrowipc.WithAllocator(c.allocator))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, reader.Err()
		}
		return nil, fmt.Errorf("no records in IPC data")
	}

	rec := reader.Record()
	rec.Retain()
	return rec, nil
}

package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one persisted metric point. Records are written as a CBOR
// stream, one record per data point, in arrival order.
type Record struct {
	Identifier string    `cbor:"identifier"`
	Value      float64   `cbor:"value"`
	Seq        uint64    `cbor:"seq"`
	Timestamp  time.Time `cbor:"timestamp"`
}

// encMode is the CBOR encoder configured with Core Deterministic Encoding:
// the same logical record always produces identical bytes, which keeps the
// stream diffable across runs.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("backend: CBOR encoder initialization failed: " + err.Error())
	}
}

// FileBackend appends metric records to a CBOR stream on disk.
type FileBackend struct {
	config  PlotConfig
	file    *os.File
	encoder *cbor.Encoder
}

// NewFileBackend creates (or appends to) the record stream at path,
// creating parent directories as needed.
func NewFileBackend(config PlotConfig, path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("backend: create record directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("backend: open record file: %w", err)
	}

	return &FileBackend{
		config:  config,
		file:    file,
		encoder: encMode.NewEncoder(file),
	}, nil
}

func (b *FileBackend) AddData(identifier string, value float64, seq uint64) error {
	record := Record{
		Identifier: identifier,
		Value:      value,
		Seq:        seq,
		Timestamp:  time.Now().UTC(),
	}
	if err := b.encoder.Encode(record); err != nil {
		return fmt.Errorf("backend: encode record: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return b.file.Close()
}

// ReadRecords decodes every record from a stream previously written by a
// FileBackend.
func ReadRecords(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backend: open record file: %w", err)
	}
	defer file.Close()

	var records []Record
	decoder := cbor.NewDecoder(file)
	for {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return records, fmt.Errorf("backend: decode record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

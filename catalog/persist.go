package catalog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/prodmatch/core"
)

// File format: header followed by a gob-encoded record list, optionally
// compressed. The header is self-describing so readers do not depend on
// configuration matching the writer.
const (
	storeMagic   uint32 = 0x504D4341 // "PMCA"
	storeVersion uint8  = 1
)

type storeHeader struct {
	Magic            uint32
	Version          uint8
	Compression      uint8
	UncompressedSize uint32
	PayloadSize      uint32
}

type diskRecord struct {
	ID   string
	Name string
	Dim  int32
	Data []float32
}

// SaveOptions contains configuration options for Save and WriteTo.
type SaveOptions struct {
	// Compression selects the payload compression algorithm.
	Compression Compression
}

// DefaultSaveOptions contains the default configuration options for Save.
var DefaultSaveOptions = SaveOptions{
	Compression: CompressionZSTD,
}

func (s *Store) encode(opts SaveOptions) ([]byte, error) {
	recs := s.All()
	disk := make([]diskRecord, 0, len(recs))
	for _, r := range recs {
		disk = append(disk, diskRecord{
			ID:   string(r.ID),
			Name: r.Name,
			Dim:  int32(r.Descriptors.Dim),
			Data: r.Descriptors.Data,
		})
	}

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(disk); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}

	raw := payload.Bytes()
	compression := opts.Compression
	compressed, err := compressBlob(raw, compression)
	if err != nil {
		return nil, err
	}
	if compressed == nil {
		// Incompressible under LZ4; store uncompressed.
		compression = CompressionNone
		compressed = raw
	}

	var out bytes.Buffer
	header := storeHeader{
		Magic:            storeMagic,
		Version:          storeVersion,
		Compression:      uint8(compression),
		UncompressedSize: uint32(len(raw)),
		PayloadSize:      uint32(len(compressed)),
	}
	if err := binary.Write(&out, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("catalog: write header: %w", err)
	}
	if _, err := out.Write(compressed); err != nil {
		return nil, fmt.Errorf("catalog: write payload: %w", err)
	}
	return out.Bytes(), nil
}

// WriteTo serializes the store to w in the same format as Save. Snapshot push
// uses this so blob and file representations stay interchangeable.
func (s *Store) WriteTo(w io.Writer, optFns ...func(o *SaveOptions)) (int64, error) {
	opts := DefaultSaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	data, err := s.encode(opts)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Save persists the store to path atomically: the file is written to a
// temporary name in the same directory and renamed into place, so a crash
// never leaves a half-written store file.
func (s *Store) Save(path string, optFns ...func(o *SaveOptions)) error {
	opts := DefaultSaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	data, err := s.encode(opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("catalog: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: close temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: rename %s: %w", path, err)
	}

	// Best-effort: fsync directory so the rename itself is durable.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Open loads a store from path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

// Read loads a store from r.
func Read(r io.Reader) (*Store, error) {
	var header storeHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}
	if header.Magic != storeMagic {
		return nil, fmt.Errorf("catalog: bad magic %08x", header.Magic)
	}
	if header.Version != storeVersion {
		return nil, fmt.Errorf("catalog: unsupported version %d", header.Version)
	}

	compressed := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("catalog: read payload: %w", err)
	}

	raw, err := decompressBlob(compressed, Compression(header.Compression), int(header.UncompressedSize))
	if err != nil {
		return nil, err
	}

	var disk []diskRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&disk); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	s := NewStore()
	for _, d := range disk {
		descriptors, err := core.NewDescriptors(int(d.Dim), d.Data)
		if err != nil {
			return nil, fmt.Errorf("catalog: record %s: %w", d.ID, err)
		}
		if err := s.Put(ProductRecord{
			ID:          core.ProductID(d.ID),
			Name:        d.Name,
			Descriptors: descriptors,
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

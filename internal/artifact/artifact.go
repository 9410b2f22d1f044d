// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact writes and reads the binary result file of a collection
// run.
//
// File layout: [6-byte magic "CHEVID"][1-byte version][4-byte CRC32 of
// payload, big endian][gob-encoded File].
package artifact

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

const (
	magic   = "CHEVID"
	version = byte(1)

	headerLen = len(magic) + 1 + 4
)

var (
	// ErrBadMagic is returned when a file is not a result artifact.
	ErrBadMagic = errors.New("not a channel-evidence artifact")

	// ErrChecksum is returned when the payload does not match its checksum.
	ErrChecksum = errors.New("artifact checksum mismatch")
)

// Meta describes the run that produced an artifact.
type Meta struct {
	RunID          string    `json:"run_id" yaml:"run_id"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	Family         string    `json:"family" yaml:"family"`
	TargetOnly     bool      `json:"target_only" yaml:"target_only"`
	ExcludedSource string    `json:"excluded_source" yaml:"excluded_source"`
	EvidenceLimit  int       `json:"ev_limit" yaml:"ev_limit"`
	BestFirst      bool      `json:"best_first" yaml:"best_first"`
}

// NewMeta returns Meta with a fresh run ID and the current time.
func NewMeta() Meta {
	return Meta{RunID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

// File is the decoded artifact.
type File struct {
	Meta    Meta
	Results types.ResultSet
}

// Encode writes f to w in the artifact format.
func Encode(w io.Writer, f *File) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(f); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	header := make([]byte, headerLen)
	copy(header, magic)
	header[len(magic)] = version
	binary.BigEndian.PutUint32(header[len(magic)+1:], crc32.ChecksumIEEE(payload.Bytes()))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// Decode reads an artifact from r, verifying magic, version and checksum.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen || string(data[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if v := data[len(magic)]; v != version {
		return nil, fmt.Errorf("unsupported artifact version %d", v)
	}

	want := binary.BigEndian.Uint32(data[len(magic)+1 : headerLen])
	payload := data[headerLen:]
	if got := crc32.ChecksumIEEE(payload); got != want {
		return nil, fmt.Errorf("%w: want %08x, got %08x", ErrChecksum, want, got)
	}

	var f File
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&f); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return &f, nil
}

// Write saves f to path via a temporary file in the same directory,
// renamed into place on success.
func Write(path string, f *File) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	encErr := Encode(tmp, f)
	closeErr := tmp.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing artifact: %w", encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Read loads the artifact at path.
func Read(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return f, nil
}

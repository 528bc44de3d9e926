// Package snapshot serializes worlds as zstd-compressed JSON: one header
// line followed by the world document. Round trips are lossless.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"github.com/talgya/regime-world/internal/world"
)

// Version is the current snapshot format.
const Version = 1

// ErrVersion is returned for snapshots written in an unsupported format.
var ErrVersion = errors.New("unsupported snapshot version")

// Header precedes the world document and can be read on its own.
type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Step    int    `json:"step"`
	Regimes int    `json:"regimes"`
	Done    bool   `json:"done,omitempty"`
}

// Write encodes w to out.
func Write(out io.Writer, w *world.World) error {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	h := Header{Version: Version, WorldID: w.ID, Step: w.Step, Regimes: len(w.Regimes), Done: w.Done}
	hb, err := json.Marshal(h)
	if err != nil {
		enc.Close()
		return err
	}
	hb = append(hb, '\n')
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(w); err != nil {
		enc.Close()
		return fmt.Errorf("encode world: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Read decodes a world written by Write.
func Read(in io.Reader) (*world.World, Header, error) {
	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, Header{}, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	h, err := readHeader(br)
	if err != nil {
		return nil, h, err
	}

	var w world.World
	if err := json.NewDecoder(br).Decode(&w); err != nil {
		return nil, h, fmt.Errorf("decode world: %w", err)
	}
	return &w, h, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	var h Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, nil
}

// Encode returns the compressed snapshot of w.
func Encode(w *world.World) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a compressed snapshot.
func Decode(b []byte) (*world.World, error) {
	w, _, err := Read(bytes.NewReader(b))
	return w, err
}

// WriteFile writes w to path, creating parent directories.
func WriteFile(path string, w *world.World) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Write(f, w); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil {
		slog.Info("snapshot written", "path", path, "world", w.ID, "step", w.Step,
			"size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// ReadFile loads a world written by WriteFile.
func ReadFile(path string) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, _, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// ReadHeader returns only the header of the snapshot at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()
	return readHeader(bufio.NewReader(dec))
}

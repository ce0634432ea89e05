package eventio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/truthana/internal/fsutil"
	"github.com/banshee-data/truthana/internal/truth"
	"github.com/banshee-data/truthana/internal/units"
)

// maxLineBytes bounds a single encoded event.
const maxLineBytes = 64 * 1024 * 1024

// Source yields events in input order. Next returns io.EOF after the last
// event.
type Source interface {
	Next() (*truth.Event, error)
}

// Reader decodes JSON-lines events. Blank lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	scale   float64
}

// NewReader reads events from r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scanner: sc, scale: 1}
}

// SetEnergyUnit declares the unit of the momenta and masses in the input
// (MeV, GeV or TeV). Decoded events are always in the native unit.
func (r *Reader) SetEnergyUnit(unit string) error {
	scale, err := units.ScaleToNative(unit)
	if err != nil {
		return err
	}
	r.scale = scale
	return nil
}

// Open opens path on fsys for reading. The caller must Close the reader.
func Open(fsys fsutil.FileSystem, path string) (*Reader, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events %s: %w", path, err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// Next decodes the next event.
func (r *Reader) Next() (*truth.Event, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec EventRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		ev, err := rec.toEvent(r.scale)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return ev, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// SliceSource serves events from memory.
type SliceSource struct {
	Events []*truth.Event
	next   int
}

// Next returns the next event or io.EOF.
func (s *SliceSource) Next() (*truth.Event, error) {
	if s.next >= len(s.Events) {
		return nil, io.EOF
	}
	ev := s.Events[s.next]
	s.next++
	return ev, nil
}

// ReadAll drains src.
func ReadAll(src Source) ([]*truth.Event, error) {
	var events []*truth.Event
	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// Writer encodes events as JSON lines.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter writes events to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write encodes one event on its own line.
func (w *Writer) Write(ev *truth.Event) error {
	rec, err := FromEvent(ev)
	if err != nil {
		return err
	}
	return w.enc.Encode(rec)
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

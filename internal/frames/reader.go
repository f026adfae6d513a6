// Package frames reads keypoint frames recorded by an external detector.
package frames

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/pose-coach/internal/types"
)

// MaxLineBytes bounds a single JSON line.
const MaxLineBytes = 4 << 20

// LineError reports a malformed line of a frame stream.
type LineError struct {
	Line  int
	Cause error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("frame stream line %d: %v", e.Line, e.Cause)
}

func (e *LineError) Unwrap() error {
	return e.Cause
}

// rawFrame accepts a frame whose index may be omitted.
type rawFrame struct {
	Index       *int              `json:"frame"`
	TimestampMS int64             `json:"timestamp_ms"`
	Keypoints   types.KeypointSet `json:"keypoints"`
}

// Reader decodes a JSON-lines stream. Each non-blank line is either a frame
// object or a bare keypoint array; frames without an index are numbered by
// their position in the stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	next    int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next frame, or io.EOF at the end of the stream.
func (r *Reader) Next() (types.Frame, error) {
	for r.scanner.Scan() {
		r.line++
		data := bytes.TrimSpace(r.scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		frame, err := decodeFrame(data, r.next)
		if err != nil {
			return types.Frame{}, &LineError{Line: r.line, Cause: err}
		}
		r.next = frame.Index + 1
		return frame, nil
	}

	if err := r.scanner.Err(); err != nil {
		return types.Frame{}, fmt.Errorf("failed to read frame stream: %w", err)
	}
	return types.Frame{}, io.EOF
}

// Each calls fn for every frame until the stream ends, fn fails, or ctx is done.
func (r *Reader) Each(ctx context.Context, fn func(types.Frame) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

// ReadAll decodes every frame of r.
func ReadAll(r io.Reader) ([]types.Frame, error) {
	var out []types.Frame
	err := NewReader(r).Each(context.Background(), func(f types.Frame) error {
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile decodes every frame of a JSON-lines file.
func ReadFile(path string) ([]types.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frames file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadAll(f)
}

// DecodeFrame decodes one frame document: a frame object or a bare keypoint array.
func DecodeFrame(data []byte) (types.Frame, error) {
	return decodeFrame(bytes.TrimSpace(data), 0)
}

// ReadFrameFile reads a single-frame JSON file.
func ReadFrameFile(path string) (types.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Frame{}, fmt.Errorf("failed to read keypoints file: %w", err)
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return types.Frame{}, fmt.Errorf("failed to parse keypoints file %s: %w", path, err)
	}
	return frame, nil
}

func decodeFrame(data []byte, defaultIndex int) (types.Frame, error) {
	if len(data) > 0 && data[0] == '[' {
		var keypoints types.KeypointSet
		if err := json.Unmarshal(data, &keypoints); err != nil {
			return types.Frame{}, err
		}
		return types.Frame{Index: defaultIndex, Keypoints: keypoints}, nil
	}

	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Frame{}, err
	}
	if raw.Keypoints == nil {
		return types.Frame{}, errors.New("frame has no keypoints")
	}

	frame := types.Frame{
		Index:       defaultIndex,
		TimestampMS: raw.TimestampMS,
		Keypoints:   raw.Keypoints,
	}
	if raw.Index != nil {
		frame.Index = *raw.Index
	}
	return frame, nil
}

// Writer encodes frames as JSON lines.
type Writer struct {
	enc *json.Encoder
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write appends one value as a line.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write frame line: %w", err)
	}
	return nil
}

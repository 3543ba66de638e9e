// Package nativemsg implements the browser native-messaging wire format:
// each message is a 32-bit length in native byte order followed by that many
// bytes of UTF-8 JSON.
package nativemsg

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Size limits imposed by browsers on each direction of the link
const (
	MaxHostMessage   = 1 << 20  // host -> client
	MaxClientMessage = 64 << 20 // client -> host
)

var (
	ErrMessageTooLarge = errors.New("native message exceeds size limit")
	ErrInvalidMessage  = errors.New("native message is not valid JSON")
)

// Reader reads framed messages. It is not safe for concurrent use.
type Reader struct {
	r     io.Reader
	limit uint32
}

// NewReader creates a Reader that rejects frames longer than limit bytes
func NewReader(r io.Reader, limit uint32) *Reader {
	return &Reader{r: r, limit: limit}
}

// ReadMessage returns the next frame. io.EOF is returned unwrapped when the
// stream ends cleanly between frames.
func (r *Reader) ReadMessage() (json.RawMessage, error) {
	var header [4]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated frame header: %w", err)
		}
		return nil, err
	}

	n := binary.NativeEndian.Uint32(header[:])
	if n == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrInvalidMessage)
	}
	if n > r.limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, n, r.limit)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r.r, body); err != nil {
		// a header without its body is truncation, never a clean end
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("truncated frame body: %w", err)
	}
	if !json.Valid(body) {
		return nil, ErrInvalidMessage
	}
	return body, nil
}

// Writer writes framed messages. Safe for concurrent use; frames are never interleaved.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	limit uint32
}

// NewWriter creates a Writer that refuses to emit frames longer than limit bytes
func NewWriter(w io.Writer, limit uint32) *Writer {
	return &Writer{w: w, limit: limit}
}

// WriteMessage encodes v as JSON and writes it as one frame
func (w *Writer) WriteMessage(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if uint64(len(body)) > uint64(w.limit) {
		return fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, len(body), w.limit)
	}

	frame := make([]byte, 4+len(body))
	binary.NativeEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(frame); err != nil {
		return err
	}
	return nil
}

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/kinorelay/internal/domain"
	"github.com/mmcdole/kinorelay/internal/nativemsg"
)

// Handler receives every inbound frame, in arrival order
type Handler func(ctx context.Context, raw json.RawMessage)

// Conn is a bidirectional native-messaging link to the playback host.
// Send may be called concurrently; Listen may be called once.
type Conn struct {
	reader *nativemsg.Reader
	writer *nativemsg.Writer
	in     io.Closer
	out    io.Closer
	logger *slog.Logger

	listening atomic.Bool
	broken    atomic.Bool
	closeOnce sync.Once
}

// NewConn wraps the host's stdout (in) and stdin (out)
func NewConn(in io.ReadCloser, out io.WriteCloser, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		reader: nativemsg.NewReader(in, nativemsg.MaxHostMessage),
		writer: nativemsg.NewWriter(out, nativemsg.MaxClientMessage),
		in:     in,
		out:    out,
		logger: logger,
	}
}

// Send writes one playback request to the host
func (c *Conn) Send(ctx context.Context, req domain.PlaybackRequest) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
	}
	if c.broken.Load() {
		return fmt.Errorf("%w: link closed", domain.ErrChannelUnavailable)
	}

	if err := c.writer.WriteMessage(req); err != nil {
		if !errors.Is(err, nativemsg.ErrMessageTooLarge) {
			c.broken.Store(true)
		}
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
	}

	c.logger.Debug("sent playback request", "itemID", req.ID)
	return nil
}

// Listen delivers inbound frames to handler until the host closes its end,
// the link is closed, or ctx is done. Cancelling ctx closes the link.
// A clean shutdown returns nil.
func (c *Conn) Listen(ctx context.Context, handler Handler) error {
	if !c.listening.CompareAndSwap(false, true) {
		return fmt.Errorf("channel already has a listener")
	}

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		raw, err := c.reader.ReadMessage()
		switch {
		case err == nil:
			handler(ctx, raw)

		case errors.Is(err, nativemsg.ErrInvalidMessage):
			// the frame was consumed, so the stream is still aligned
			c.logger.Warn("dropping malformed frame from host", "error", err)

		case errors.Is(err, io.EOF), c.broken.Load():
			c.broken.Store(true)
			c.logger.Info("playback host closed the link")
			return nil

		default:
			c.broken.Store(true)
			return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
		}
	}
}

// Close shuts both directions of the link. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.broken.Store(true)
		err = errors.Join(c.out.Close(), c.in.Close())
	})
	return err
}

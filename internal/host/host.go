// Package host implements the playback host: the privileged peer that
// receives playback requests over native messaging, starts a player, and
// reports the outcome back to the relay.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmcdole/kinorelay/internal/config"
	"github.com/mmcdole/kinorelay/internal/domain"
	"github.com/mmcdole/kinorelay/internal/nativemsg"
)

// Status texts reported to the relay
const (
	MsgStarted        = "Playback started"
	MsgFileNotFound   = "File not found"
	MsgLaunchFailed   = "Could not start player"
	MsgInvalidRequest = "Invalid playback request"
)

// launcher abstracts media player launching (consumer-defined interface)
type launcher interface {
	Launch(target string) (string, error)
}

// Host serves playback requests
type Host struct {
	cfg      config.HostConfig
	launcher launcher
	stat     func(name string) (os.FileInfo, error)
	logger   *slog.Logger
}

// New creates a Host
func New(cfg config.HostConfig, launcher launcher, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		cfg:      cfg,
		launcher: launcher,
		stat:     os.Stat,
		logger:   logger,
	}
}

// Serve reads requests from r and writes one status per playback request to
// w until r reaches EOF or ctx is done.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := nativemsg.NewReader(r, nativemsg.MaxClientMessage)
	writer := nativemsg.NewWriter(w, nativemsg.MaxHostMessage)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := reader.ReadMessage()
		if errors.Is(err, io.EOF) {
			h.logger.Info("relay closed the link")
			return nil
		}
		if errors.Is(err, nativemsg.ErrInvalidMessage) {
			h.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}

		status, ok := h.HandleFrame(raw)
		if !ok {
			continue
		}
		if err := writer.WriteMessage(status); err != nil {
			return fmt.Errorf("failed to write status: %w", err)
		}
	}
}

// HandleFrame processes one inbound frame. ok is false for frames that are
// not playback requests; those get no reply.
func (h *Host) HandleFrame(raw json.RawMessage) (status domain.StatusMessage, ok bool) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type != domain.PlaybackRequestType {
		h.logger.Debug("ignoring frame", "type", envelope.Type)
		return domain.StatusMessage{}, false
	}

	var req domain.PlaybackRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.logger.Warn("undecodable playback request", "error", err)
		return errorStatus(MsgInvalidRequest, ""), true
	}
	return h.Handle(req), true
}

// Handle plays one request and returns the status to report
func (h *Host) Handle(req domain.PlaybackRequest) domain.StatusMessage {
	if err := req.Validate(); err != nil {
		h.logger.Warn("invalid playback request", "error", err, "itemID", req.ID)
		return errorStatus(MsgInvalidRequest, req.FilePath)
	}

	target, ok := h.resolveTarget(req)
	if !ok {
		h.logger.Warn("media file not found", "filePath", req.FilePath, "itemID", req.ID)
		return errorStatus(MsgFileNotFound, req.FilePath)
	}

	player, err := h.launcher.Launch(target)
	if err != nil {
		h.logger.Error("failed to launch player", "error", err, "itemID", req.ID)
		return errorStatus(MsgLaunchFailed, req.FilePath)
	}

	h.logger.Info("playback started", "player", player, "title", req.Title, "itemID", req.ID)
	return domain.StatusMessage{
		Status:          domain.StatusSuccess,
		Message:         MsgStarted,
		Title:           req.Title,
		ID:              req.ID,
		MarkItemsPlayed: h.cfg.MarkItemsPlayed,
	}
}

// resolveTarget prefers a locally reachable file and falls back to the
// stream URL when streaming is allowed
func (h *Host) resolveTarget(req domain.PlaybackRequest) (string, bool) {
	local := req.FilePath
	if mapped, ok := h.cfg.MapPath(req.FilePath); ok {
		local = mapped
	}

	if info, err := h.stat(local); err == nil && info.Mode().IsRegular() {
		h.logger.Debug("playing local file", "path", local)
		return local, true
	}

	if h.cfg.AllowStream {
		h.logger.Debug("local file unavailable, streaming", "path", local)
		return req.DownloadURL, true
	}
	return "", false
}

func errorStatus(message, filePath string) domain.StatusMessage {
	return domain.StatusMessage{Status: domain.StatusError, Message: message, FilePath: filePath}
}

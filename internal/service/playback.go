package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/kinorelay/internal/domain"
)

// User-facing feedback texts
const (
	MsgNoMediaID          = "Could not get media id."
	MsgServerUnavailable  = "Could not reach server."
	MsgIncompleteMetadata = "Server returned incomplete media info."
	MsgChannelUnavailable = "Could not connect to extension. Please reload this page."
)

const markPlayedTimeout = 30 * time.Second

// mediaAPI abstracts the media server and the current selection (consumer-defined interface)
type mediaAPI interface {
	CurrentItemID() string
	GetItemMetadata(ctx context.Context, itemID string) (*domain.ItemMetadata, error)
	AccessToken() string
	MarkPlayed(ctx context.Context, itemID string) error
}

// playbackChannel abstracts the outbound side of the link to the playback host
type playbackChannel interface {
	Send(ctx context.Context, req domain.PlaybackRequest) error
}

// FlowState is the position of a single button-press flow. The zero value
// is FlowIdle: a flow that has not resolved an item yet.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowResolvingID
	FlowFetchingMetadata
	FlowSending
	FlowSent
	FlowFailedLocally
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowResolvingID:
		return "resolving_id"
	case FlowFetchingMetadata:
		return "fetching_metadata"
	case FlowSending:
		return "sending"
	case FlowSent:
		return "sent"
	case FlowFailedLocally:
		return "failed_locally"
	default:
		return "unknown"
	}
}

// Flow is the outcome of one OnUserAction call. Sent only means the request
// left the relay; the host reports the real result later through OnStatusMessage.
type Flow struct {
	ID      string // log correlation only, never sent to the host
	State   FlowState
	ItemID  string
	Request *domain.PlaybackRequest
	Err     error
}

// PlaybackOrchestrator turns user actions into playback requests and host
// status messages into user feedback. It keeps no per-request state, so
// overlapping flows and status messages never interfere.
type PlaybackOrchestrator struct {
	api      mediaAPI
	channel  playbackChannel
	feedback domain.FeedbackSink
	origin   string
	logger   *slog.Logger
}

// NewPlaybackOrchestrator creates an orchestrator. origin is the scheme://host
// prefix used for download URLs.
func NewPlaybackOrchestrator(
	api mediaAPI,
	channel playbackChannel,
	feedback domain.FeedbackSink,
	origin string,
	logger *slog.Logger,
) *PlaybackOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackOrchestrator{
		api:      api,
		channel:  channel,
		feedback: feedback,
		origin:   origin,
		logger:   logger,
	}
}

// OnUserAction runs one play flow: resolve the selected item, fetch its
// metadata, and send a playback request. Every failure is reported to the
// feedback sink exactly once and ends the flow; nothing is retried.
func (o *PlaybackOrchestrator) OnUserAction(ctx context.Context) Flow {
	return o.run(ctx, o.api.CurrentItemID)
}

// OnUserActionFor runs a play flow for an item id resolved when the user
// acted. Callers that run flows off the event loop use it so a later
// selection change cannot redirect an earlier press.
func (o *PlaybackOrchestrator) OnUserActionFor(ctx context.Context, itemID string) Flow {
	return o.run(ctx, func() string { return itemID })
}

func (o *PlaybackOrchestrator) run(ctx context.Context, resolveID func() string) Flow {
	flow := Flow{ID: uuid.NewString()[:8], State: FlowIdle}
	logger := o.logger.With("flow", flow.ID)

	flow.State = FlowResolvingID
	flow.ItemID = resolveID()
	if flow.ItemID == "" {
		logger.Info("no media id on current selection")
		return o.fail(flow, domain.ErrNoMediaID, MsgNoMediaID)
	}

	flow.State = FlowFetchingMetadata
	logger.Debug("fetching metadata", "itemID", flow.ItemID)

	md, err := o.api.GetItemMetadata(ctx, flow.ItemID)
	if err != nil {
		logger.Error("failed to fetch metadata", "error", err, "itemID", flow.ItemID)
		return o.fail(flow, err, MsgServerUnavailable)
	}

	req, err := domain.NewPlaybackRequest(o.origin, o.api.AccessToken(), md)
	if err != nil {
		logger.Error("failed to build playback request", "error", err, "itemID", flow.ItemID)
		return o.fail(flow, err, MsgIncompleteMetadata)
	}

	flow.State = FlowSending
	flow.Request = &req

	if err := o.channel.Send(ctx, req); err != nil {
		logger.Error("failed to send playback request", "error", err, "itemID", flow.ItemID)
		if !errors.Is(err, domain.ErrChannelUnavailable) {
			err = errors.Join(domain.ErrChannelUnavailable, err)
		}
		return o.fail(flow, err, MsgChannelUnavailable)
	}

	flow.State = FlowSent
	logger.Info("playback request sent", "title", req.Title, "itemID", req.ID)
	return flow
}

func (o *PlaybackOrchestrator) fail(flow Flow, err error, text string) Flow {
	flow.State = FlowFailedLocally
	flow.Err = err
	o.feedback.Display(text, domain.SeverityError)
	return flow
}

// OnStatusMessage classifies one inbound message from the playback host.
// Frames that are not error or success reports are ignored: the link may
// carry traffic meant for someone else.
func (o *PlaybackOrchestrator) OnStatusMessage(ctx context.Context, raw json.RawMessage) {
	msg, ok := domain.ParseStatusMessage(raw)
	if !ok {
		o.logger.Debug("ignoring non-object message", "bytes", len(raw))
		return
	}

	switch msg.Status {
	case domain.StatusError:
		o.logger.Warn("host reported playback error", "message", msg.Message, "filePath", msg.FilePath)
		o.feedback.Display(msg.Message+":\n"+msg.FilePath, domain.SeverityError)

	case domain.StatusSuccess:
		o.logger.Info("host reported playback started", "title", msg.Title, "itemID", msg.ID)
		o.feedback.Display(msg.Message+": "+msg.Title, domain.SeverityNormal)
		if msg.MarkItemsPlayed {
			if msg.ID == "" {
				o.logger.Warn("host asked to mark played without an item id")
				return
			}
			o.markPlayed(ctx, msg.ID)
		}

	default:
		o.logger.Debug("ignoring message with unknown status", "status", msg.Status)
	}
}

// markPlayed scrobbles in the background; the result is only logged.
func (o *PlaybackOrchestrator) markPlayed(ctx context.Context, itemID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markPlayedTimeout)
	go func() {
		defer cancel()
		if err := o.api.MarkPlayed(ctx, itemID); err != nil {
			o.logger.Warn("failed to mark item played", "error", err, "itemID", itemID)
			return
		}
		o.logger.Debug("marked item played", "itemID", itemID)
	}()
}

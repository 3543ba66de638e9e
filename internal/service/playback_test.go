package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/kinorelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedbackCall struct {
	Text     string
	Severity domain.Severity
}

type fakeSink struct {
	mu    sync.Mutex
	calls []feedbackCall
}

func (s *fakeSink) Display(text string, severity domain.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, feedbackCall{text, severity})
}

func (s *fakeSink) Calls() []feedbackCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedbackCall(nil), s.calls...)
}

type fakeAPI struct {
	mu            sync.Mutex
	itemID        string
	token         string
	metadata      func(ctx context.Context, id string) (*domain.ItemMetadata, error)
	metadataCalls []string
	marked        chan string
	markErr       error
}

func (a *fakeAPI) CurrentItemID() string { return a.itemID }
func (a *fakeAPI) AccessToken() string   { return a.token }

func (a *fakeAPI) GetItemMetadata(ctx context.Context, id string) (*domain.ItemMetadata, error) {
	a.mu.Lock()
	a.metadataCalls = append(a.metadataCalls, id)
	a.mu.Unlock()
	return a.metadata(ctx, id)
}

func (a *fakeAPI) MetadataCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.metadataCalls...)
}

func (a *fakeAPI) MarkPlayed(_ context.Context, id string) error {
	a.marked <- id
	return a.markErr
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []domain.PlaybackRequest
	err  error
}

func (c *fakeChannel) Send(_ context.Context, req domain.PlaybackRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, req)
	return nil
}

func (c *fakeChannel) Sent() []domain.PlaybackRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.PlaybackRequest(nil), c.sent...)
}

func metadataFor(id, title, file, key string) *domain.ItemMetadata {
	return &domain.ItemMetadata{Items: []domain.MetadataItem{{
		ID:    id,
		Title: title,
		Renditions: []domain.Rendition{{
			Parts: []domain.Part{{File: file, Key: key}},
		}},
	}}}
}

func staticMetadata(md *domain.ItemMetadata) func(context.Context, string) (*domain.ItemMetadata, error) {
	return func(context.Context, string) (*domain.ItemMetadata, error) { return md, nil }
}

type fixture struct {
	api     *fakeAPI
	channel *fakeChannel
	sink    *fakeSink
	orch    *PlaybackOrchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api: &fakeAPI{
			itemID:   "42",
			token:    "TOK",
			metadata: staticMetadata(metadataFor("42", "Movie", "/a.mkv", "/stream/1")),
			marked:   make(chan string, 8),
		},
		channel: &fakeChannel{},
		sink:    &fakeSink{},
	}
	f.orch = NewPlaybackOrchestrator(f.api, f.channel, f.sink, "https://host", nil)
	return f
}

func TestOnUserActionSendsRequest(t *testing.T) {
	f := newFixture(t)

	flow := f.orch.OnUserAction(context.Background())

	require.NoError(t, flow.Err)
	assert.Equal(t, FlowSent, flow.State)
	assert.NotEmpty(t, flow.ID)
	assert.Equal(t, []domain.PlaybackRequest{{
		Type:        "playback",
		FilePath:    "/a.mkv",
		DownloadURL: "https://host/stream/1?X-Plex-Token=TOK",
		Title:       "Movie",
		ID:          "42",
	}}, f.channel.Sent())
	assert.Empty(t, f.sink.Calls())
}

func TestOnUserActionNoMediaID(t *testing.T) {
	f := newFixture(t)
	f.api.itemID = ""

	flow := f.orch.OnUserAction(context.Background())

	assert.Equal(t, FlowFailedLocally, flow.State)
	require.ErrorIs(t, flow.Err, domain.ErrNoMediaID)
	assert.Empty(t, f.api.MetadataCalls())
	assert.Empty(t, f.channel.Sent())
	assert.Equal(t, []feedbackCall{{MsgNoMediaID, domain.SeverityError}}, f.sink.Calls())
	assert.Equal(t, "Could not get media id.", MsgNoMediaID)
}

func TestOnUserActionMetadataFailure(t *testing.T) {
	f := newFixture(t)
	f.api.metadata = func(context.Context, string) (*domain.ItemMetadata, error) {
		return nil, domain.ErrServerOffline
	}

	flow := f.orch.OnUserAction(context.Background())

	assert.Equal(t, FlowFailedLocally, flow.State)
	require.ErrorIs(t, flow.Err, domain.ErrServerOffline)
	assert.Equal(t, []string{"42"}, f.api.MetadataCalls())
	assert.Empty(t, f.channel.Sent())
	assert.Equal(t, []feedbackCall{{"Could not reach server.", domain.SeverityError}}, f.sink.Calls())
}

func TestOnUserActionIncompleteMetadata(t *testing.T) {
	tests := []struct {
		name string
		md   *domain.ItemMetadata
	}{
		{"no metadata entries", &domain.ItemMetadata{}},
		{"no media", &domain.ItemMetadata{Items: []domain.MetadataItem{{ID: "42", Title: "Movie"}}}},
		{"no parts", &domain.ItemMetadata{Items: []domain.MetadataItem{{ID: "42", Title: "Movie", Renditions: []domain.Rendition{{}}}}}},
		{"missing file", metadataFor("42", "Movie", "", "/stream/1")},
		{"missing key", metadataFor("42", "Movie", "/a.mkv", "")},
		{"missing title", metadataFor("42", "", "/a.mkv", "/stream/1")},
		{"missing ratingKey", metadataFor("", "Movie", "/a.mkv", "/stream/1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.api.metadata = staticMetadata(tt.md)

			flow := f.orch.OnUserAction(context.Background())

			assert.Equal(t, FlowFailedLocally, flow.State)
			require.ErrorIs(t, flow.Err, domain.ErrIncompleteMetadata)
			assert.Nil(t, flow.Request)
			assert.Empty(t, f.channel.Sent())
			calls := f.sink.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, domain.SeverityError, calls[0].Severity)
		})
	}
}

func TestOnUserActionSendFailure(t *testing.T) {
	f := newFixture(t)
	f.channel.err = errors.New("broken pipe")

	flow := f.orch.OnUserAction(context.Background())

	assert.Equal(t, FlowFailedLocally, flow.State)
	require.ErrorIs(t, flow.Err, domain.ErrChannelUnavailable)
	assert.Equal(t, []feedbackCall{{"Could not connect to extension. Please reload this page.", domain.SeverityError}}, f.sink.Calls())
}

func TestOnUserActionOverlappingFlows(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	started := make(chan string, 2)
	f.api.metadata = func(_ context.Context, id string) (*domain.ItemMetadata, error) {
		started <- id
		<-release
		return metadataFor(id, "Movie", "/a.mkv", "/stream/1"), nil
	}

	var wg sync.WaitGroup
	flows := make([]Flow, 2)
	for i := range flows {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			flows[i] = f.orch.OnUserAction(context.Background())
		}()
	}

	// both flows are suspended in the metadata fetch before either completes
	<-started
	<-started
	close(release)
	wg.Wait()

	assert.NotEqual(t, flows[0].ID, flows[1].ID)
	for _, flow := range flows {
		assert.Equal(t, FlowSent, flow.State)
		require.NotNil(t, flow.Request)
	}
	assert.Len(t, f.channel.Sent(), 2)
	assert.Empty(t, f.sink.Calls())
}

func TestOnUserActionOverlappingMixedOutcomes(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	n := 0
	f.api.metadata = func(_ context.Context, id string) (*domain.ItemMetadata, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n == 1 {
			return nil, fmt.Errorf("dial tcp: %w", domain.ErrServerOffline)
		}
		return metadataFor(id, "Movie", "/a.mkv", "/stream/1"), nil
	}

	first := f.orch.OnUserAction(context.Background())
	second := f.orch.OnUserAction(context.Background())

	assert.Equal(t, FlowFailedLocally, first.State)
	assert.Equal(t, FlowSent, second.State)
	assert.Len(t, f.channel.Sent(), 1)
	assert.Equal(t, []feedbackCall{{MsgServerUnavailable, domain.SeverityError}}, f.sink.Calls())
}

func TestOnStatusMessageError(t *testing.T) {
	f := newFixture(t)

	f.orch.OnStatusMessage(context.Background(), []byte(`{"status":"error","message":"Failed","filePath":"/a.mkv"}`))

	assert.Equal(t, []feedbackCall{{"Failed:\n/a.mkv", domain.SeverityError}}, f.sink.Calls())
	assertNoMarkPlayed(t, f.api)
}

func TestOnStatusMessageSuccessMarksPlayed(t *testing.T) {
	f := newFixture(t)

	f.orch.OnStatusMessage(context.Background(), []byte(`{"status":"success","message":"Started","title":"Movie","id":"42","markItemsPlayed":true}`))

	assert.Equal(t, []feedbackCall{{"Started: Movie", domain.SeverityNormal}}, f.sink.Calls())
	select {
	case id := <-f.api.marked:
		assert.Equal(t, "42", id)
	case <-time.After(time.Second):
		t.Fatal("expected MarkPlayed call")
	}
	assertNoMarkPlayed(t, f.api)
}

func TestOnStatusMessageSuccessWithoutMark(t *testing.T) {
	for _, raw := range []string{
		`{"status":"success","message":"Started","title":"Movie","id":"42"}`,
		`{"status":"success","message":"Started","title":"Movie","id":"42","markItemsPlayed":false}`,
	} {
		f := newFixture(t)

		f.orch.OnStatusMessage(context.Background(), []byte(raw))

		assert.Equal(t, []feedbackCall{{"Started: Movie", domain.SeverityNormal}}, f.sink.Calls())
		assertNoMarkPlayed(t, f.api)
	}
}

func TestOnStatusMessageMarkPlayedFailureIsSilent(t *testing.T) {
	f := newFixture(t)
	f.api.markErr = domain.ErrServerOffline

	f.orch.OnStatusMessage(context.Background(), []byte(`{"status":"success","message":"Started","title":"Movie","id":"42","markItemsPlayed":true}`))

	<-f.api.marked
	// only the success notice, never an error for the scrobble
	assert.Equal(t, []feedbackCall{{"Started: Movie", domain.SeverityNormal}}, f.sink.Calls())
}

func TestOnStatusMessageMarkPlayedOutlivesContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.orch.OnStatusMessage(ctx, []byte(`{"status":"success","message":"Started","title":"Movie","id":"42","markItemsPlayed":1}`))
	cancel()

	select {
	case id := <-f.api.marked:
		assert.Equal(t, "42", id)
	case <-time.After(time.Second):
		t.Fatal("expected MarkPlayed call")
	}
}

func TestOnStatusMessageIgnored(t *testing.T) {
	for _, raw := range []string{
		`{"status":"pending","message":"x"}`,
		`{"message":"no status"}`,
		`{"type":"playback","filePath":"/a.mkv"}`,
		`{"status":42}`,
		`[1,2,3]`,
		`"hello"`,
		`garbage`,
	} {
		f := newFixture(t)

		f.orch.OnStatusMessage(context.Background(), []byte(raw))

		assert.Empty(t, f.sink.Calls(), raw)
		assertNoMarkPlayed(t, f.api)
		assert.Empty(t, f.channel.Sent(), raw)
	}
}

func TestOnStatusMessageIndependentOfRequests(t *testing.T) {
	f := newFixture(t)

	// a status for an item this session never requested is still relayed
	f.orch.OnStatusMessage(context.Background(), []byte(`{"status":"success","message":"Started","title":"Other","id":"7"}`))
	flow := f.orch.OnUserAction(context.Background())
	f.orch.OnStatusMessage(context.Background(), []byte(`{"status":"error","message":"Failed","filePath":"/a.mkv"}`))

	assert.Equal(t, FlowSent, flow.State)
	assert.Equal(t, []feedbackCall{
		{"Started: Other", domain.SeverityNormal},
		{"Failed:\n/a.mkv", domain.SeverityError},
	}, f.sink.Calls())
}

func TestOnUserActionForUsesGivenItem(t *testing.T) {
	f := newFixture(t)
	// the live selection has moved on since the press
	f.api.itemID = "99"
	f.api.metadata = func(_ context.Context, id string) (*domain.ItemMetadata, error) {
		return metadataFor(id, "Movie "+id, "/"+id+".mkv", "/stream/"+id), nil
	}

	first := f.orch.OnUserActionFor(context.Background(), "41")
	second := f.orch.OnUserActionFor(context.Background(), "42")

	assert.Equal(t, FlowSent, first.State)
	assert.Equal(t, "41", first.ItemID)
	assert.Equal(t, "42", second.ItemID)
	assert.Equal(t, []string{"41", "42"}, f.api.MetadataCalls())
	sent := f.channel.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "41", sent[0].ID)
	assert.Equal(t, "42", sent[1].ID)
}

func TestOnUserActionForEmptyItem(t *testing.T) {
	f := newFixture(t)

	flow := f.orch.OnUserActionFor(context.Background(), "")

	assert.Equal(t, FlowFailedLocally, flow.State)
	require.ErrorIs(t, flow.Err, domain.ErrNoMediaID)
	assert.Empty(t, f.api.MetadataCalls())
	assert.Equal(t, []feedbackCall{{MsgNoMediaID, domain.SeverityError}}, f.sink.Calls())
}

func TestFlowStartsIdle(t *testing.T) {
	var flow Flow
	assert.Equal(t, FlowIdle, flow.State)
	assert.Equal(t, "idle", flow.State.String())
}

func TestFlowStateString(t *testing.T) {
	assert.Equal(t, "sent", FlowSent.String())
	assert.Equal(t, "failed_locally", FlowFailedLocally.String())
	assert.Equal(t, "unknown", FlowState(99).String())
}

func assertNoMarkPlayed(t *testing.T, api *fakeAPI) {
	t.Helper()
	select {
	case id := <-api.marked:
		t.Fatalf("unexpected MarkPlayed(%q)", id)
	case <-time.After(50 * time.Millisecond):
	}
}

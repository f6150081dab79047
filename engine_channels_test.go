package goUserbot

import (
	"context"
	"errors"
	"testing"
)

func newChannelsTestEngine(t *testing.T, transport Transport, pageSize int) *Engine {
	t.Helper()
	cfg := testConfig()
	cfg.Registry.PageSize = pageSize
	engine, err := New().
		WithConfig(cfg).
		WithTransport(transport).
		WithClock(newTestClock()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func dialogsPage(full bool, nextID int64, chats ...map[string]any) map[string]any {
	dialogs := make([]any, 0, len(chats))
	for range chats {
		dialogs = append(dialogs, map[string]any{"_": "dialog"})
	}
	if full && len(dialogs) == 1 {
		// Pad so the page reads as full even when only one chat is a channel.
		dialogs = append(dialogs, map[string]any{"_": "dialog"})
	}
	raw := make([]any, 0, len(chats))
	for _, c := range chats {
		raw = append(raw, c)
	}
	return map[string]any{
		"dialogs":          dialogs,
		"chats":            raw,
		"next_offset_id":   nextID,
		"next_offset_date": nextID * 10,
	}
}

func TestChannelsRequiresAuthentication(t *testing.T) {
	transport := newFakeTransport()
	engine := newChannelsTestEngine(t, transport, 2)

	var seen []error
	for _, err := range engine.Channels(context.Background(), "15551234") {
		seen = append(seen, err)
	}
	if len(seen) != 1 || !errors.Is(seen[0], ErrNotAuthenticated) {
		t.Fatalf("expected a single ErrNotAuthenticated element, got %v", seen)
	}
}

func TestChannelsPaginatesAndFilters(t *testing.T) {
	transport := newFakeTransport()
	engine := newChannelsTestEngine(t, transport, 2)
	ctx := context.Background()
	authenticate(t, engine, transport, "15551234")

	// Page one is full: two dialogs, one channel plus one plain chat that
	// must be filtered out. Page two is short and ends the enumeration.
	pageOne := dialogsPage(true, 500,
		channelChat(1, "alpha"),
		map[string]any{"_": "chat", "id": int64(2), "title": "plain group"},
	)
	pageTwo := dialogsPage(false, 0, channelChat(3, "beta"))

	transport.expect("messages.getDialogs", pageOne, nil)
	transport.expect("messages.getDialogs", pageTwo, nil)

	records, err := engine.ListChannels(ctx, "15551234")
	if err != nil {
		t.Fatalf("ListChannels failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 channels, got %d: %+v", len(records), records)
	}
	if records[0].ID != 1 || records[0].Title != "alpha" || records[1].ID != 3 {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[0].Status != StatusMember || records[0].FetchedAt.IsZero() {
		t.Fatalf("record not filled in: %+v", records[0])
	}

	// The second page carried the continuation cursor from the first.
	secondCall := transport.params[len(transport.params)-1]
	if secondCall["offset_id"] != int64(500) || secondCall["offset_date"] != int64(5000) {
		t.Fatalf("continuation cursor not forwarded: %v", secondCall)
	}

	snapshot := engine.MetricsSnapshot()
	if snapshot.Counters[MetricDialogPages] != 2 {
		t.Fatalf("expected 2 dialog pages counted, got %v", snapshot.Counters)
	}
}

func TestChannelsDerivesRolesFromListing(t *testing.T) {
	transport := newFakeTransport()
	engine := newChannelsTestEngine(t, transport, 10)
	ctx := context.Background()
	authenticate(t, engine, transport, "15551234")

	owned := channelChat(1, "owned")
	owned["creator"] = true
	admined := channelChat(2, "admined")
	admined["admin_rights"] = map[string]any{"ban_users": true, "pin_messages": true}
	left := channelChat(3, "departed")
	left["left"] = true

	transport.expect("messages.getDialogs",
		dialogsPage(false, 0, owned, admined, left, channelChat(4, "plain")), nil)

	records, err := engine.ListChannels(ctx, "15551234")
	if err != nil {
		t.Fatalf("ListChannels failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("left channels must be skipped, got %d records", len(records))
	}
	if records[0].Status != StatusCreator || records[0].Rights == nil || !records[0].Rights.AddAdmins {
		t.Fatalf("creator record wrong: %+v", records[0])
	}
	if records[1].Status != StatusAdmin || records[1].Rights == nil || !records[1].Rights.BanUsers || records[1].Rights.PostMessages {
		t.Fatalf("admin record wrong: %+v", records[1])
	}
	if records[2].Status != StatusMember || records[2].Rights != nil {
		t.Fatalf("member record wrong: %+v", records[2])
	}
}

func TestChannelsIsRestartable(t *testing.T) {
	transport := newFakeTransport()
	engine := newChannelsTestEngine(t, transport, 10)
	ctx := context.Background()
	authenticate(t, engine, transport, "15551234")

	transport.expect("messages.getDialogs", dialogsPage(false, 0, channelChat(1, "alpha")), nil)
	transport.expect("messages.getDialogs", dialogsPage(false, 0, channelChat(1, "alpha")), nil)

	for range 2 {
		records, err := engine.ListChannels(ctx, "15551234")
		if err != nil {
			t.Fatalf("ListChannels failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
	}

	// Each enumeration started from a zero cursor.
	for _, p := range transport.params[2:] {
		if p["offset_id"] != int64(0) {
			t.Fatalf("fresh enumeration reused a cursor: %v", p)
		}
	}
}

func TestChannelsEarlyBreakStopsCalling(t *testing.T) {
	transport := newFakeTransport()
	engine := newChannelsTestEngine(t, transport, 2)
	ctx := context.Background()
	authenticate(t, engine, transport, "15551234")

	transport.expect("messages.getDialogs",
		dialogsPage(true, 500, channelChat(1, "alpha"), channelChat(2, "beta")), nil)

	count := 0
	for record, err := range engine.Channels(ctx, "15551234") {
		if err != nil {
			t.Fatalf("unexpected iterator error: %v", err)
		}
		if record.ID == 0 {
			t.Fatal("empty record yielded")
		}
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected a single consumed element, got %d", count)
	}
	// Only the first page was fetched: auth (2 calls) + one pagination call.
	if transport.callCount() != 3 {
		t.Fatalf("early break still paged on: %d calls", transport.callCount())
	}
}

func TestChannelsPropagatesPageFailure(t *testing.T) {
	transport := newFakeTransport()
	engine := newChannelsTestEngine(t, transport, 2)
	ctx := context.Background()
	authenticate(t, engine, transport, "15551234")

	transport.expect("messages.getDialogs",
		dialogsPage(true, 500, channelChat(1, "alpha"), channelChat(2, "beta")), nil)
	transport.expect("messages.getDialogs", nil, errors.New("connection reset"))

	var records []ChannelRecord
	var finalErr error
	for record, err := range engine.Channels(ctx, "15551234") {
		if err != nil {
			finalErr = err
			continue
		}
		records = append(records, record)
	}
	if len(records) != 2 {
		t.Fatalf("elements before the failure must still be yielded, got %d", len(records))
	}
	if !errors.Is(finalErr, ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure as the final element, got %v", finalErr)
	}
}

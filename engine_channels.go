package goUserbot

import (
	"context"
	"iter"

	"github.com/MrEthical07/goUserbot/internal/rate"
	"github.com/MrEthical07/goUserbot/internal/rpc"
	"github.com/MrEthical07/goUserbot/session"
)

// Channels lazily enumerates every channel the account belongs to, paging
// through the dialog list. The sequence is finite and restartable: each range
// starts a fresh enumeration and cursors are never reused across calls.
// Admin rights are derived from the listing payload itself, so no
// per-channel round trips happen.
//
// A failure is yielded as the final element's error and ends the sequence.
// The identity lock is held only for the authentication check, not across
// the iteration, so the consumer may issue other operations for the same
// identity from inside the loop.
func (e *Engine) Channels(ctx context.Context, identity string) iter.Seq2[ChannelRecord, error] {
	return func(yield func(ChannelRecord, error) bool) {
		if e == nil {
			yield(ChannelRecord{}, ErrEngineNotReady)
			return
		}
		if err := e.checkAuthenticated(ctx, identity); err != nil {
			yield(ChannelRecord{}, err)
			return
		}

		pageSize := e.config.Registry.PageSize
		var offsetID, offsetDate int64
		for {
			resp, err := e.invoke(ctx, rate.CategoryDialogs, rpc.MethodGetDialogs,
				rpc.GetDialogsParams(offsetID, offsetDate, pageSize))
			if err != nil {
				e.emitAudit(ctx, auditEventChannelListing, identity, 0, err, nil)
				yield(ChannelRecord{}, asTransportFailure(err))
				return
			}
			e.metricInc(MetricDialogPages)

			now := e.clock.Now()
			for _, chat := range rpc.List(resp, "chats") {
				if rpc.Str(chat, "_") != "channel" || rpc.Bool(chat, "left") {
					continue
				}
				record := channelRecordFrom(chat)
				record.FetchedAt = now
				record.Status, record.Rights = membershipFromChat(chat)
				if !yield(record, nil) {
					return
				}
			}

			dialogs := rpc.List(resp, "dialogs")
			if len(dialogs) == 0 || len(dialogs) < pageSize {
				e.emitAudit(ctx, auditEventChannelListing, identity, 0, nil, nil)
				return
			}
			offsetID = rpc.Int64(resp, "next_offset_id")
			offsetDate = rpc.Int64(resp, "next_offset_date")
		}
	}
}

// ListChannels collects [Engine.Channels] into a slice.
func (e *Engine) ListChannels(ctx context.Context, identity string) ([]ChannelRecord, error) {
	var records []ChannelRecord
	for record, err := range e.Channels(ctx, identity) {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (e *Engine) checkAuthenticated(ctx context.Context, identity string) error {
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return err
	}
	if s.State != session.StateAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// membershipFromChat reads the account's standing out of a dialog-list chat
// payload. The listing marks creators and carries the admin-rights object
// inline for admins; everything else in the list is a plain membership.
func membershipFromChat(chat rpc.Object) (MembershipStatus, *AdminRights) {
	if rpc.Bool(chat, "creator") {
		return StatusCreator, creatorRights(rpc.Bool(rpc.Map(chat, "admin_rights"), "anonymous"))
	}
	if rights := rpc.Map(chat, "admin_rights"); rights != nil {
		return StatusAdmin, adminRightsFrom(rights)
	}
	return StatusMember, nil
}

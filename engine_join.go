package goUserbot

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goUserbot/internal/rate"
	"github.com/MrEthical07/goUserbot/internal/rpc"
	"github.com/MrEthical07/goUserbot/invite"
	"github.com/MrEthical07/goUserbot/session"
)

// Join resolves a channel reference (invite link, @username, or raw invite
// hash) and joins the channel, returning the resulting membership record.
//
// Joining a channel the account already belongs to is not an error: the
// existing record is returned. A channel that requires join approval yields a
// record with [StatusPending] and no admin rights. For every other outcome
// the record is complete: the account's own role and admin rights are fetched
// with a follow-up call before Join returns, because a join response alone
// does not carry role data.
func (e *Engine) Join(ctx context.Context, identity, reference string) (ChannelRecord, error) {
	if e == nil {
		return ChannelRecord{}, ErrEngineNotReady
	}
	lock := e.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.loadOrInitSession(ctx, identity)
	if err != nil {
		return ChannelRecord{}, err
	}
	if s.State != session.StateAuthenticated {
		return ChannelRecord{}, ErrNotAuthenticated
	}

	target, err := invite.Parse(reference)
	if err != nil {
		e.metricInc(MetricJoinFailure)
		return ChannelRecord{}, fmt.Errorf("%w: %q", ErrInviteInvalid, reference)
	}

	var (
		chat          rpc.Object
		alreadyMember bool
		pending       bool
	)
	switch target.Kind {
	case invite.KindHash:
		chat, alreadyMember, pending, err = e.joinByHash(ctx, target.Value)
	case invite.KindPublicName:
		chat, alreadyMember, pending, err = e.joinByUsername(ctx, target.Value)
	}
	if err != nil {
		e.metricInc(MetricJoinFailure)
		e.emitAudit(ctx, auditEventChannelJoin, identity, 0, err,
			map[string]string{"reference": reference})
		return ChannelRecord{}, err
	}

	record := channelRecordFrom(chat)
	record.InviteLink = reference
	record.FetchedAt = e.clock.Now()

	if pending {
		record.Status = StatusPending
		e.metricInc(MetricJoinPending)
		e.emitAudit(ctx, auditEventChannelJoin, identity, record.ID, nil,
			map[string]string{"status": record.Status.String()})
		return record, nil
	}

	status, rights, err := e.fetchSelfRole(ctx, record.ID, record.AccessHash)
	if err != nil {
		// A membership with unknown role is not a valid terminal record;
		// surface the probe failure instead of guessing.
		e.metricInc(MetricJoinFailure)
		e.emitAudit(ctx, auditEventChannelJoin, identity, record.ID, err, nil)
		return ChannelRecord{}, err
	}
	record.Status = status
	record.Rights = rights

	if alreadyMember {
		e.metricInc(MetricJoinAlreadyMember)
	} else {
		e.metricInc(MetricJoinSuccess)
	}
	e.emitAudit(ctx, auditEventChannelJoin, identity, record.ID, nil,
		map[string]string{"status": record.Status.String()})
	return record, nil
}

// joinByHash imports a private invite. The already-member rejection is
// resolved by fetching the channel through the invite preview call so the
// caller still gets the full record.
func (e *Engine) joinByHash(ctx context.Context, hash string) (chat rpc.Object, alreadyMember, pending bool, err error) {
	resp, err := e.invoke(ctx, rate.CategoryJoin, rpc.MethodImportInvite, rpc.ImportInviteParams(hash))
	if err != nil {
		switch code, _ := remoteCode(err); code {
		case rpc.CodeInviteHashExpired:
			return nil, false, false, fmt.Errorf("%w: %s", ErrInviteExpired, hash)
		case rpc.CodeInviteHashInvalid:
			return nil, false, false, fmt.Errorf("%w: %s", ErrInviteInvalid, hash)
		case rpc.CodeUserAlreadyParticip:
			preview, previewErr := e.invoke(ctx, rate.CategoryJoin, rpc.MethodCheckInvite, rpc.CheckInviteParams(hash))
			if previewErr != nil {
				return nil, false, false, asTransportFailure(previewErr)
			}
			return rpc.FirstChat(preview), true, false, nil
		case rpc.CodeInviteRequestSent, rpc.CodeChannelPrivate:
			// Approval required. The preview call fills in what it can; a
			// pending record with no channel details is still valid.
			preview, previewErr := e.invoke(ctx, rate.CategoryJoin, rpc.MethodCheckInvite, rpc.CheckInviteParams(hash))
			if previewErr == nil {
				return rpc.FirstChat(preview), false, true, nil
			}
			return nil, false, true, nil
		}
		return nil, false, false, asTransportFailure(err)
	}
	chat = rpc.FirstChat(resp)
	if chat == nil {
		return nil, false, false, fmt.Errorf("%w: join response carried no chat", ErrTransportFailure)
	}
	return chat, false, false, nil
}

// joinByUsername resolves a public username and joins the channel it names.
func (e *Engine) joinByUsername(ctx context.Context, username string) (chat rpc.Object, alreadyMember, pending bool, err error) {
	resolved, err := e.invoke(ctx, rate.CategoryResolve, rpc.MethodResolveUsername, rpc.ResolveUsernameParams(username))
	if err != nil {
		switch code, _ := remoteCode(err); code {
		case rpc.CodeUsernameNotOccupied, rpc.CodeUsernameInvalid:
			return nil, false, false, fmt.Errorf("%w: @%s", ErrInviteInvalid, username)
		}
		return nil, false, false, asTransportFailure(err)
	}
	chat = rpc.FirstChat(resolved)
	if chat == nil {
		return nil, false, false, fmt.Errorf("%w: @%s did not resolve to a channel", ErrInviteInvalid, username)
	}

	id := rpc.Int64(chat, "id")
	accessHash := rpc.Int64(chat, "access_hash")
	_, err = e.invoke(ctx, rate.CategoryJoin, rpc.MethodJoinChannel, rpc.JoinChannelParams(id, accessHash))
	if err != nil {
		switch code, _ := remoteCode(err); code {
		case rpc.CodeUserAlreadyParticip:
			return chat, true, false, nil
		case rpc.CodeInviteRequestSent, rpc.CodeChannelPrivate:
			return chat, false, true, nil
		}
		return nil, false, false, asTransportFailure(err)
	}
	return chat, false, false, nil
}

// fetchSelfRole asks the remote service for the account's own participant
// entry in the channel. Not being allowed to see the participant list just
// means the account is an ordinary member.
func (e *Engine) fetchSelfRole(ctx context.Context, id, accessHash int64) (MembershipStatus, *AdminRights, error) {
	resp, err := e.invoke(ctx, rate.CategoryJoin, rpc.MethodGetParticipant, rpc.SelfParticipantParams(id, accessHash))
	if err != nil {
		switch code, _ := remoteCode(err); code {
		case rpc.CodeChatAdminRequired, rpc.CodeUserNotParticipant:
			return StatusMember, nil, nil
		}
		return StatusNotMember, nil, asTransportFailure(err)
	}

	participant := rpc.Map(resp, "participant")
	switch rpc.Str(participant, "_") {
	case "channelParticipantCreator":
		return StatusCreator, creatorRights(rpc.Bool(rpc.Map(participant, "admin_rights"), "anonymous")), nil
	case "channelParticipantAdmin":
		return StatusAdmin, adminRightsFrom(rpc.Map(participant, "admin_rights")), nil
	}
	return StatusMember, nil, nil
}

func adminRightsFrom(obj rpc.Object) *AdminRights {
	if obj == nil {
		return nil
	}
	return &AdminRights{
		ChangeInfo:     rpc.Bool(obj, "change_info"),
		PostMessages:   rpc.Bool(obj, "post_messages"),
		EditMessages:   rpc.Bool(obj, "edit_messages"),
		DeleteMessages: rpc.Bool(obj, "delete_messages"),
		BanUsers:       rpc.Bool(obj, "ban_users"),
		InviteUsers:    rpc.Bool(obj, "invite_users"),
		PinMessages:    rpc.Bool(obj, "pin_messages"),
		AddAdmins:      rpc.Bool(obj, "add_admins"),
		Anonymous:      rpc.Bool(obj, "anonymous"),
		ManageCall:     rpc.Bool(obj, "manage_call"),
		Other:          rpc.Bool(obj, "other"),
	}
}

func channelRecordFrom(chat rpc.Object) ChannelRecord {
	return ChannelRecord{
		ID:          rpc.Int64(chat, "id"),
		AccessHash:  rpc.Int64(chat, "access_hash"),
		Title:       rpc.Str(chat, "title"),
		Username:    rpc.Str(chat, "username"),
		MemberCount: rpc.Int(chat, "participants_count"),
		Megagroup:   rpc.Bool(chat, "megagroup"),
		Broadcast:   rpc.Bool(chat, "broadcast"),
	}
}

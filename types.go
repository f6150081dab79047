package goUserbot

import (
	"context"
	"time"
)

// Transport is the opaque RPC collaborator. Implementations carry the actual
// wire protocol; the engine only issues named method calls with parameter maps
// and interprets [RemoteError] codes in the responses.
//
// ExportAuth and ImportAuth move the transport's credential material (key set,
// server association) in and out as opaque bytes so the engine can persist it
// through the session store and seed a fresh transport on restore. The bytes
// must round-trip exactly.
type Transport interface {
	Call(ctx context.Context, method string, params map[string]any) (map[string]any, error)
	ExportAuth() ([]byte, error)
	ImportAuth(data []byte) error
}

// RemoteError is the failure shape returned by a [Transport] for calls the
// remote service rejected. Code is the machine-readable error identifier
// (for example "PHONE_CODE_INVALID" or "FLOOD_WAIT_420"); the engine maps it
// into the package error taxonomy.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote error: " + e.Code
	}
	return "remote error: " + e.Code + ": " + e.Message
}

// Clock abstracts time for flood-wait bookkeeping and backoff so tests can
// run wait scenarios without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// MembershipStatus is the account's standing in a channel.
type MembershipStatus uint8

const (
	// StatusNotMember means the account does not belong to the channel.
	StatusNotMember MembershipStatus = iota
	// StatusPending means a join request was sent and awaits approval.
	StatusPending
	// StatusMember means the account is an ordinary member.
	StatusMember
	// StatusAdmin means the account holds admin rights in the channel.
	StatusAdmin
	// StatusCreator means the account created the channel.
	StatusCreator
)

// String reports the lowercase wire-style name of the status.
func (s MembershipStatus) String() string {
	switch s {
	case StatusNotMember:
		return "not_member"
	case StatusPending:
		return "pending"
	case StatusMember:
		return "member"
	case StatusAdmin:
		return "admin"
	case StatusCreator:
		return "creator"
	}
	return "unknown"
}

// AdminRights is the set of elevated permissions granted to the account
// within a channel. A creator implicitly holds every right.
type AdminRights struct {
	ChangeInfo     bool
	PostMessages   bool
	EditMessages   bool
	DeleteMessages bool
	BanUsers       bool
	InviteUsers    bool
	PinMessages    bool
	AddAdmins      bool
	Anonymous      bool
	ManageCall     bool
	Other          bool
}

func creatorRights(anonymous bool) *AdminRights {
	return &AdminRights{
		ChangeInfo:     true,
		PostMessages:   true,
		EditMessages:   true,
		DeleteMessages: true,
		BanUsers:       true,
		InviteUsers:    true,
		PinMessages:    true,
		AddAdmins:      true,
		Anonymous:      anonymous,
		ManageCall:     true,
		Other:          true,
	}
}

// ChannelRecord is a snapshot of one channel membership. FetchedAt marks when
// the snapshot was taken; records are never auto-expired, callers re-fetch
// when staleness matters.
type ChannelRecord struct {
	ID          int64
	AccessHash  int64
	Title       string
	Username    string
	MemberCount int
	Megagroup   bool
	Broadcast   bool
	Status      MembershipStatus
	Rights      *AdminRights
	InviteLink  string
	FetchedAt   time.Time
}

// UserProfile is the authenticated account's own remote profile, as returned
// by [Engine.Me] and the restore validation call.
type UserProfile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

package rpc

import (
	"strconv"
	"strings"
	"time"
)

// Remote error codes the engine maps into its error taxonomy. Codes not
// listed here fall through to the generic transport-failure class.
const (
	CodePhoneNumberInvalid    = "PHONE_NUMBER_INVALID"
	CodePhoneNumberBanned     = "PHONE_NUMBER_BANNED"
	CodeAPIIDInvalid          = "API_ID_INVALID"
	CodePhoneCodeInvalid      = "PHONE_CODE_INVALID"
	CodePhoneCodeExpired      = "PHONE_CODE_EXPIRED"
	CodeSessionPasswordNeeded = "SESSION_PASSWORD_NEEDED"
	CodePasswordHashInvalid   = "PASSWORD_HASH_INVALID"
	CodeAuthKeyUnregistered   = "AUTH_KEY_UNREGISTERED"
	CodeSessionRevoked        = "SESSION_REVOKED"
	CodeInviteHashInvalid     = "INVITE_HASH_INVALID"
	CodeInviteHashExpired     = "INVITE_HASH_EXPIRED"
	CodeInviteRequestSent     = "INVITE_REQUEST_SENT"
	CodeUserAlreadyParticip   = "USER_ALREADY_PARTICIPANT"
	CodeChannelPrivate        = "CHANNEL_PRIVATE"
	CodeUsernameNotOccupied   = "USERNAME_NOT_OCCUPIED"
	CodeUsernameInvalid       = "USERNAME_INVALID"
	CodeChatAdminRequired     = "CHAT_ADMIN_REQUIRED"
	CodeUserNotParticipant    = "USER_NOT_PARTICIPANT"
)

const floodWaitPrefix = "FLOOD_WAIT_"

// FloodWait parses a "FLOOD_WAIT_<seconds>" code into the mandatory wait
// duration. ok is false for every other code.
func FloodWait(code string) (wait time.Duration, ok bool) {
	rest, found := strings.CutPrefix(code, floodWaitPrefix)
	if !found {
		return 0, false
	}
	seconds, err := strconv.Atoi(rest)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

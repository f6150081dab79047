package rpc

// Method names issued by the engine. They follow the remote service's
// namespaced naming so transport implementations can route them directly.
const (
	MethodSendCode        = "auth.sendCode"
	MethodSignIn          = "auth.signIn"
	MethodCheckPassword   = "auth.checkPassword"
	MethodLogOut          = "auth.logOut"
	MethodGetState        = "updates.getState"
	MethodGetSelf         = "users.getSelf"
	MethodImportInvite    = "messages.importChatInvite"
	MethodCheckInvite     = "messages.checkChatInvite"
	MethodResolveUsername = "contacts.resolveUsername"
	MethodJoinChannel     = "channels.joinChannel"
	MethodGetParticipant  = "channels.getParticipant"
	MethodGetDialogs      = "messages.getDialogs"
)

// SendCodeParams builds the code-request parameter map. The device fields
// show up in the account's active-session list on the remote side.
func SendCodeParams(phone string, apiID int32, apiHash, deviceModel, systemVersion, appVersion, langCode, systemLangCode string) map[string]any {
	return map[string]any{
		"phone_number":     phone,
		"api_id":           apiID,
		"api_hash":         apiHash,
		"device_model":     deviceModel,
		"system_version":   systemVersion,
		"app_version":      appVersion,
		"lang_code":        langCode,
		"system_lang_code": systemLangCode,
	}
}

// SignInParams builds the code-submission parameter map. phoneCodeHash is the
// continuation token returned by the code-request call.
func SignInParams(phone, phoneCodeHash, code string) map[string]any {
	return map[string]any{
		"phone_number":    phone,
		"phone_code_hash": phoneCodeHash,
		"phone_code":      code,
	}
}

// CheckPasswordParams builds the two-factor parameter map.
func CheckPasswordParams(password string) map[string]any {
	return map[string]any{"password": password}
}

// ImportInviteParams builds the private-invite join parameter map.
func ImportInviteParams(hash string) map[string]any {
	return map[string]any{"hash": hash}
}

// CheckInviteParams builds the invite-preview parameter map, used to fetch
// channel details when a join reports the account is already a participant.
func CheckInviteParams(hash string) map[string]any {
	return map[string]any{"hash": hash}
}

// ResolveUsernameParams builds the public-name resolution parameter map.
func ResolveUsernameParams(username string) map[string]any {
	return map[string]any{"username": username}
}

// ChannelPeer identifies a channel in join/participant calls.
func ChannelPeer(id, accessHash int64) map[string]any {
	return map[string]any{"channel_id": id, "access_hash": accessHash}
}

// JoinChannelParams builds the public-channel join parameter map.
func JoinChannelParams(id, accessHash int64) map[string]any {
	return map[string]any{"channel": ChannelPeer(id, accessHash)}
}

// SelfParticipantParams builds the own-role lookup parameter map.
func SelfParticipantParams(id, accessHash int64) map[string]any {
	return map[string]any{
		"channel":     ChannelPeer(id, accessHash),
		"participant": "self",
	}
}

// GetDialogsParams builds one dialog-list pagination call. offsetID and
// offsetDate are zero on the first page and carried forward from the last
// dialog of the previous page afterwards.
func GetDialogsParams(offsetID int64, offsetDate int64, limit int) map[string]any {
	return map[string]any{
		"offset_id":   offsetID,
		"offset_date": offsetDate,
		"limit":       limit,
	}
}

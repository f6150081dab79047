package invite

import (
	"errors"
	"regexp"
	"strings"
)

// Kind discriminates the two target forms a reference can resolve to.
type Kind uint8

const (
	// KindHash targets a private channel through an invite hash.
	KindHash Kind = iota
	// KindPublicName targets a public channel through its username.
	KindPublicName
)

// Target is the normalized channel reference produced by [Parse]. Callers
// never construct one directly.
type Target struct {
	Kind  Kind
	Value string
}

// ErrInvalid is returned for any reference that matches neither the invite
// link forms nor a username.
var ErrInvalid = errors.New("invalid channel reference")

var (
	inviteLinkPattern = regexp.MustCompile(
		`^(?:https?://)?(?:www\.)?(?:t\.me|telegram\.me)/(?:joinchat/|\+)([A-Za-z0-9_-]+)/?$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,31}$`)
	bareHashChars   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Parse resolves a channel reference string into a [Target]. Recognized
// forms, after trimming surrounding whitespace:
//
//   - t.me/joinchat/<hash> and t.me/+<hash> URLs, with optional scheme,
//     optional www., and telegram.me as an alternate host ([KindHash])
//   - @username ([KindPublicName])
//   - a bare token shaped like a raw invite hash: 20 to 50 chars of the hash
//     alphabet with both upper and lower case present ([KindHash])
//   - any other bare token in the username alphabet, without '_' or '-'
//     ([KindPublicName])
//
// A bare token containing '_' or '-' is ambiguous with the raw-hash form, so
// it is only ever considered as a hash; use the @ prefix to force username
// interpretation. Everything else yields [ErrInvalid].
func Parse(reference string) (Target, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Target{}, ErrInvalid
	}

	if m := inviteLinkPattern.FindStringSubmatch(reference); m != nil {
		return Target{Kind: KindHash, Value: m[1]}, nil
	}

	if name, ok := strings.CutPrefix(reference, "@"); ok {
		if !usernamePattern.MatchString(name) {
			return Target{}, ErrInvalid
		}
		return Target{Kind: KindPublicName, Value: name}, nil
	}

	// URL-ish input that did not match the invite forms is never a bare
	// token; reject it rather than misread a host as a username.
	if strings.ContainsAny(reference, "/:. ") {
		return Target{}, ErrInvalid
	}

	if looksLikeBareHash(reference) {
		return Target{Kind: KindHash, Value: reference}, nil
	}

	if !strings.ContainsAny(reference, "_-") && usernamePattern.MatchString(reference) {
		return Target{Kind: KindPublicName, Value: reference}, nil
	}

	return Target{}, ErrInvalid
}

// looksLikeBareHash applies the raw-hash heuristic: invite hashes are
// base64-flavored, 20–50 characters, and mix upper and lower case.
func looksLikeBareHash(token string) bool {
	if len(token) < 20 || len(token) > 50 {
		return false
	}
	if !bareHashChars.MatchString(token) {
		return false
	}
	hasUpper := strings.IndexFunc(token, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
	hasLower := strings.IndexFunc(token, func(r rune) bool { return r >= 'a' && r <= 'z' }) >= 0
	return hasUpper && hasLower
}

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrEthical07/goUserbot"
)

// simTransport answers engine calls from an in-memory model of the remote
// service: a fixed set of channels addressable by invite hash or username,
// and one shared membership set. Every nth join-class call can be told to
// fail with a flood wait to exercise the limiter.
type simTransport struct {
	mu         sync.Mutex
	channels   []simChannel
	byHash     map[string]int
	byUsername map[string]int
	joined     map[int64]bool
	joinCalls  int
	floodEvery int
	auth       []byte
}

type simChannel struct {
	id       int64
	hash     string
	username string
	title    string
}

func newSimTransport(channelCount, floodEvery int) *simTransport {
	s := &simTransport{
		byHash:     make(map[string]int, channelCount),
		byUsername: make(map[string]int, channelCount),
		joined:     make(map[int64]bool),
		floodEvery: floodEvery,
		auth:       []byte("sim-auth-key"),
	}
	for i := 0; i < channelCount; i++ {
		ch := simChannel{
			id:       int64(i + 1),
			hash:     fmt.Sprintf("SimInviteHash%08dAbc", i),
			username: fmt.Sprintf("simchannel%d", i),
			title:    fmt.Sprintf("simulated channel %d", i),
		}
		s.channels = append(s.channels, ch)
		s.byHash[ch.hash] = i
		s.byUsername[ch.username] = i
	}
	return s
}

// references returns one joinable reference per channel, alternating between
// invite-link and username form so both resolution paths run.
func (s *simTransport) references() []string {
	refs := make([]string, len(s.channels))
	for i, ch := range s.channels {
		if i%2 == 0 {
			refs[i] = "https://t.me/+" + ch.hash
		} else {
			refs[i] = "@" + ch.username
		}
	}
	return refs
}

func (s *simTransport) chatObject(ch simChannel) map[string]any {
	return map[string]any{
		"_":                  "channel",
		"id":                 ch.id,
		"access_hash":        ch.id * 7919,
		"title":              ch.title,
		"username":           ch.username,
		"participants_count": 100 + int(ch.id),
		"megagroup":          ch.id%2 == 0,
		"broadcast":          ch.id%2 != 0,
	}
}

func (s *simTransport) Call(_ context.Context, method string, params map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch method {
	case "auth.sendCode":
		return map[string]any{"phone_code_hash": "sim-pch"}, nil
	case "auth.signIn", "auth.checkPassword", "users.getSelf":
		return map[string]any{"user": map[string]any{"id": int64(1), "username": "simuser"}}, nil
	case "updates.getState":
		return map[string]any{"seq": int64(1)}, nil
	case "auth.logOut", "channels.joinChannel":
		if method == "channels.joinChannel" {
			return s.join(params)
		}
		return map[string]any{}, nil
	case "messages.importChatInvite":
		return s.importInvite(params)
	case "messages.checkChatInvite":
		hash, _ := params["hash"].(string)
		if i, ok := s.byHash[hash]; ok {
			return map[string]any{"chat": s.chatObject(s.channels[i])}, nil
		}
		return nil, &goUserbot.RemoteError{Code: "INVITE_HASH_INVALID"}
	case "contacts.resolveUsername":
		username, _ := params["username"].(string)
		if i, ok := s.byUsername[username]; ok {
			return map[string]any{"chats": []any{s.chatObject(s.channels[i])}}, nil
		}
		return nil, &goUserbot.RemoteError{Code: "USERNAME_NOT_OCCUPIED"}
	case "channels.getParticipant":
		return map[string]any{"participant": map[string]any{"_": "channelParticipant"}}, nil
	case "messages.getDialogs":
		return s.dialogs(params), nil
	}
	return nil, &goUserbot.RemoteError{Code: "METHOD_UNKNOWN", Message: method}
}

func (s *simTransport) importInvite(params map[string]any) (map[string]any, error) {
	if err := s.maybeFlood(); err != nil {
		return nil, err
	}
	hash, _ := params["hash"].(string)
	i, ok := s.byHash[hash]
	if !ok {
		return nil, &goUserbot.RemoteError{Code: "INVITE_HASH_INVALID"}
	}
	ch := s.channels[i]
	if s.joined[ch.id] {
		return nil, &goUserbot.RemoteError{Code: "USER_ALREADY_PARTICIPANT"}
	}
	s.joined[ch.id] = true
	return map[string]any{"chats": []any{s.chatObject(ch)}}, nil
}

func (s *simTransport) join(params map[string]any) (map[string]any, error) {
	if err := s.maybeFlood(); err != nil {
		return nil, err
	}
	peer, _ := params["channel"].(map[string]any)
	id, _ := peer["channel_id"].(int64)
	if s.joined[id] {
		return nil, &goUserbot.RemoteError{Code: "USER_ALREADY_PARTICIPANT"}
	}
	s.joined[id] = true
	return map[string]any{}, nil
}

func (s *simTransport) maybeFlood() error {
	s.joinCalls++
	if s.floodEvery > 0 && s.joinCalls%s.floodEvery == 0 {
		return &goUserbot.RemoteError{Code: "FLOOD_WAIT_1"}
	}
	return nil
}

func (s *simTransport) dialogs(params map[string]any) map[string]any {
	limit, _ := params["limit"].(int)
	if limit <= 0 {
		limit = 100
	}
	offset, _ := params["offset_id"].(int64)

	var chats []any
	var dialogs []any
	var last int64
	for _, ch := range s.channels {
		if !s.joined[ch.id] || ch.id <= offset {
			continue
		}
		chats = append(chats, s.chatObject(ch))
		dialogs = append(dialogs, map[string]any{"_": "dialog"})
		last = ch.id
		if len(dialogs) == limit {
			break
		}
	}
	return map[string]any{
		"dialogs":          dialogs,
		"chats":            chats,
		"next_offset_id":   last,
		"next_offset_date": int64(0),
	}
}

func (s *simTransport) ExportAuth() ([]byte, error) {
	return s.auth, nil
}

func (s *simTransport) ImportAuth(data []byte) error {
	s.mu.Lock()
	s.auth = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

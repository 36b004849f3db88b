package view

import "sync"

// Selection reports what the user is currently looking at. It is owned by the
// navigation layer; the sync engine only reads it.
type Selection interface {
	// CurrentServerID returns the open server, or "" outside any server.
	CurrentServerID() string

	// CurrentChannelID returns the open channel, or "" if none.
	CurrentChannelID() string
}

// StaticSelection is a Selection guarded by a mutex, for callers that track
// navigation themselves.
type StaticSelection struct {
	mu        sync.RWMutex
	serverID  string
	channelID string
}

// Select sets the current server and channel. Empty strings clear them.
func (s *StaticSelection) Select(serverID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverID = serverID
	s.channelID = channelID
}

func (s *StaticSelection) CurrentServerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverID
}

func (s *StaticSelection) CurrentChannelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

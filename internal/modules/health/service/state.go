package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	startedAt time.Time

	venue             atomic.Pointer[func() bool]
	telegramConnected atomic.Bool
	lastMessageUnix   atomic.Int64 // unix seconds
	lastSignalUnix    atomic.Int64
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

// SetVenue пробник живости соединения с терминалом.
func (s *State) SetVenue(probe func() bool) { s.venue.Store(&probe) }

func (s *State) VenueConnected() bool {
	p := s.venue.Load()
	return p != nil && (*p)()
}

// Ready: терминал подключён, можно исполнять сигналы.
func (s *State) Ready() bool { return s.VenueConnected() }

func (s *State) SetTelegramConnected(v bool) { s.telegramConnected.Store(v) }
func (s *State) TelegramConnected() bool     { return s.telegramConnected.Load() }

func (s *State) TouchMessage(t time.Time) { s.lastMessageUnix.Store(t.Unix()) }
func (s *State) TouchSignal(t time.Time)  { s.lastSignalUnix.Store(t.Unix()) }

func (s *State) LastMessage() time.Time { return unix(s.lastMessageUnix.Load()) }
func (s *State) LastSignal() time.Time  { return unix(s.lastSignalUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func unix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

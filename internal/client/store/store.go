// Package store holds the client-side user list. State changes only through
// Reduce, and Store is the single owner of the current State.
package store

import (
	"sync"

	"usermanager/internal/model"
)

// Status is the load state of the list.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is an immutable snapshot; Reduce never mutates its input.
type State struct {
	Users  []model.User
	Status Status
	Err    string
}

// Find returns the user with id from the snapshot.
func (s State) Find(id uint) (model.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// Action is a state transition request.
type Action interface {
	action()
}

type (
	// Loading marks a fetch in flight.
	Loading struct{}
	// Loaded replaces the list with a fresh fetch.
	Loaded struct{ Users []model.User }
	// Created appends a new user.
	Created struct{ User model.User }
	// Updated replaces the user with the same id.
	Updated struct{ User model.User }
	// Removed drops the user with ID.
	Removed struct{ ID uint }
	// Failed records an error; the list is kept.
	Failed struct{ Err error }
)

func (Loading) action() {}
func (Loaded) action()  {}
func (Created) action() {}
func (Updated) action() {}
func (Removed) action() {}
func (Failed) action()  {}

// Reduce returns the state that results from applying a to s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Loading:
		s.Status = StatusLoading
		s.Err = ""
	case Loaded:
		s.Users = withoutPasswords(a.Users)
		s.Status = StatusReady
		s.Err = ""
	case Created:
		if _, exists := s.Find(a.User.ID); exists {
			return Reduce(s, Updated(a))
		}
		users := make([]model.User, 0, len(s.Users)+1)
		users = append(users, s.Users...)
		s.Users = append(users, *a.User.WithoutPassword())
		s.Err = ""
	case Updated:
		users := make([]model.User, len(s.Users))
		for i, u := range s.Users {
			if u.ID == a.User.ID {
				u = *a.User.WithoutPassword()
			}
			users[i] = u
		}
		s.Users = users
		s.Err = ""
	case Removed:
		users := make([]model.User, 0, len(s.Users))
		for _, u := range s.Users {
			if u.ID != a.ID {
				users = append(users, u)
			}
		}
		s.Users = users
		s.Err = ""
	case Failed:
		s.Status = StatusFailed
		if a.Err != nil {
			s.Err = a.Err.Error()
		}
	}
	return s
}

func withoutPasswords(in []model.User) []model.User {
	out := make([]model.User, len(in))
	for i := range in {
		out[i] = *in[i].WithoutPassword()
	}
	return out
}

// Store serializes dispatches and notifies subscribers after each one.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers []func(State)
}

// New returns a store in the idle state.
func New() *Store {
	return &Store{}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to run with every new state.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Dispatch applies a and returns the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	state := s.state
	subscribers := append([]func(State){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
	return state
}

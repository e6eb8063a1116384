package client

import "sync"

// Session mirrors the server-side login state for UI decisions: logged-in
// flag, bearer token, email, user id. It is populated on login/register and
// cleared on logout or account deletion. It is a convenience cache, never an
// authorization source — the server re-verifies the token on every request.
type Session struct {
	mu       sync.RWMutex
	loggedIn bool
	token    string
	email    string
	userID   int64
}

func (s *Session) set(token, email string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = true
	s.token = token
	s.email = email
	s.userID = userID
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.token = ""
	s.email = ""
	s.userID = 0
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

package service

import "faves_sorter/internal/domain"

// Session is the authenticated caller of one request: the local user and a
// remote source authorized with that user's access token.
type Session struct {
	User   *domain.User
	Remote RemoteSource
}

func (s *Session) ownerID() string {
	return s.User.ID
}

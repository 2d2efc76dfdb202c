package membership

import "context"

// Service resolves whether a user administers the control group. The core
// consults it on every admin action and never caches the answer.
type Service interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type staticService struct {
	admins map[int64]struct{}
}

// NewStatic builds a membership service over a fixed admin id set, typically
// sourced from configuration.
func NewStatic(adminIDs []int64) Service {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &staticService{admins: admins}
}

func (s *staticService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	_, ok := s.admins[userID]
	return ok, nil
}

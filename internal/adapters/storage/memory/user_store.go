package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gviz-app/gviz-api/internal/domain"
)

// UserStore is an in-memory implementation of domain.UserStore. It is NOT
// persistent and is only suitable for development and tests.
type UserStore struct {
	mu      sync.RWMutex
	users   map[domain.UserID]*domain.User
	byEmail map[string]domain.UserID
	now     func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[domain.UserID]*domain.User),
		byEmail: make(map[string]domain.UserID),
		now:     time.Now,
	}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return nil, domain.ErrDuplicateEmail
	}

	stored := cloneUser(user)
	if stored.ID == "" {
		stored.ID = domain.UserID(uuid.NewString())
	}
	now := s.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.users[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID

	return cloneUser(stored), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *UserStore) Update(ctx context.Context, id domain.UserID, update domain.UserUpdate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.Skills != nil {
		user.Skills = append([]string(nil), (*update.Skills)...)
	}
	if update.JobInterests != nil {
		user.JobInterests = append([]string(nil), (*update.JobInterests)...)
	}
	user.UpdatedAt = s.now()

	return cloneUser(user), nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Skills = append([]string(nil), u.Skills...)
	c.JobInterests = append([]string(nil), u.JobInterests...)
	return &c
}

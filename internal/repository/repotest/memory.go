// Package repotest provides in-memory implementations of the repository interfaces
// with the same ownership and uniqueness semantics as the Postgres stores.
package repotest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard-be/internal/entities"
	"taskboard-be/internal/models"
	"taskboard-be/internal/repository"
)

// ErrInjected is returned by a store whose Fail field is set.
var ErrInjected = errors.New("injected store failure")

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*entities.User
	Fail  bool
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*entities.User)}
}

func (s *UserStore) Create(ctx context.Context, name, email, passwordHash string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	for _, u := range s.users {
		if u.Email == email {
			return nil, repository.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrInjected
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a user, used to simulate an account vanishing under a live token.
func (s *UserStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// TaskStore is an in-memory repository.TaskRepository that keeps insertion order.
type TaskStore struct {
	mu    sync.Mutex
	tasks []*entities.Task
	Fail  bool

	// ListCalls counts ListByOwner invocations so cache tests can observe store traffic.
	ListCalls int
}

var _ repository.TaskRepository = (*TaskStore)(nil)

func NewTaskStore() *TaskStore {
	return &TaskStore{}
}

func (s *TaskStore) Create(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	now := time.Now().UTC()
	created := *task
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.tasks = append(s.tasks, &created)
	out := created
	return &out, nil
}

func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.Fail {
		return nil, ErrInjected
	}
	tasks := make([]*entities.Task, 0)
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			copied := *t
			tasks = append(tasks, &copied)
		}
	}
	return tasks, nil
}

func (s *TaskStore) UpdateOwned(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	for _, t := range s.tasks {
		if t.ID != id || t.UserID != ownerID {
			continue
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			v := *patch.Description
			t.Description = &v
		}
		if patch.Status != nil {
			t.Status = entities.TaskStatus(*patch.Status)
		}
		if patch.Priority != nil {
			v := *patch.Priority
			t.Priority = &v
		}
		if patch.Deadline != nil {
			v := patch.Deadline.UTC()
			t.Deadline = &v
		}
		if !patch.Empty() {
			t.UpdatedAt = time.Now().UTC()
		}
		copied := *t
		return &copied, nil
	}
	return nil, repository.ErrTaskNotFound
}

func (s *TaskStore) DeleteOwned(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrInjected
	}
	for i, t := range s.tasks {
		if t.ID == id && t.UserID == ownerID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return repository.ErrTaskNotFound
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskboard-be/internal/apperr"
	"taskboard-be/internal/cache"
	"taskboard-be/internal/entities"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/models"
	"taskboard-be/internal/repository"
)

const (
	MsgTitleRequired = "Title is required"
	MsgInvalidStatus = "Status must be one of: To-Do, In Progress, Under Review, Finished"

	taskListCache = "task_list"
)

// TaskService defines the interface for task business logic. Every method is
// scoped to the caller: tasks of other users are invisible.
type TaskService interface {
	List(ctx context.Context, callerID string) ([]*entities.Task, error)
	Create(ctx context.Context, callerID string, req *models.CreateTaskRequest) (*entities.Task, error)
	Update(ctx context.Context, callerID, taskID string, patch models.TaskPatch) (*entities.Task, error)
	Delete(ctx context.Context, callerID, taskID string) error
}

type taskService struct {
	repo     repository.TaskRepository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// NewTaskService creates a new task service. A nil cache disables list caching.
func NewTaskService(
	repo repository.TaskRepository,
	cacheClient cache.Cache,
	cacheTTL time.Duration,
	logger logrus.FieldLogger,
	m *metrics.Metrics,
) TaskService {
	svc := &taskService{
		repo:     repo,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  m,
	}
	// Only set cache if provided (allows graceful degradation)
	if cacheClient != nil && cacheTTL > 0 {
		svc.cache = cacheClient
	}
	return svc
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation(MsgTitleRequired)
	}
	return nil
}

func validateStatus(status string) error {
	if !entities.TaskStatus(status).Valid() {
		return apperr.Validation(MsgInvalidStatus)
	}
	return nil
}

// List returns the caller's tasks, reading through the per-owner cache.
// The cache key carries the owner's list version as read before the store query,
// so a snapshot taken before a concurrent write is filed under a version no reader uses.
func (s *taskService) List(ctx context.Context, callerID string) ([]*entities.Task, error) {
	var key string

	if s.cache != nil {
		if version, ok := s.listVersion(ctx, callerID); ok {
			key = cache.TaskListKey(callerID, version)

			var cached []*entities.Task
			err := s.cache.GetJSON(ctx, key, &cached)
			switch {
			case err == nil && cached != nil:
				s.metrics.CacheHit(taskListCache)
				return cached, nil
			case err != nil && !errors.Is(err, cache.ErrMiss):
				s.logger.WithError(err).WithField("user_id", callerID).Warn("task list cache read failed")
			}
			s.metrics.CacheMiss(taskListCache)
		}
	}

	tasks, err := s.repo.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, classify(s.logger.WithField("user_id", callerID), "tasks.list", err)
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, tasks, s.cacheTTL); err != nil {
			s.logger.WithError(err).WithField("user_id", callerID).Warn("task list cache write failed")
		}
	}

	return tasks, nil
}

// listVersion reads the owner's list version. An owner never written to is at "0".
func (s *taskService) listVersion(ctx context.Context, ownerID string) (string, bool) {
	version, err := s.cache.Get(ctx, cache.TaskListVersionKey(ownerID))
	if errors.Is(err, cache.ErrMiss) {
		return "0", true
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", ownerID).Warn("task list version read failed")
		return "", false
	}
	return version, true
}

// Create stores a new task owned by the caller
func (s *taskService) Create(ctx context.Context, callerID string, req *models.CreateTaskRequest) (*entities.Task, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	status := entities.DefaultTaskStatus
	if req.Status != nil {
		if err := validateStatus(*req.Status); err != nil {
			return nil, err
		}
		status = entities.TaskStatus(*req.Status)
	}

	task := &entities.Task{
		UserID:      callerID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, classify(s.logger.WithField("user_id", callerID), "tasks.create", err)
	}

	s.invalidate(ctx, callerID)
	return created, nil
}

// Update applies a partial update to one of the caller's tasks
func (s *taskService) Update(ctx context.Context, callerID, taskID string, patch models.TaskPatch) (*entities.Task, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return nil, err
		}
	}
	if !validTaskID(taskID) {
		return nil, repository.ErrTaskNotFound
	}

	task, err := s.repo.UpdateOwned(ctx, taskID, callerID, patch)
	if err != nil {
		return nil, classify(s.logger.WithFields(logrus.Fields{"user_id": callerID, "task_id": taskID}), "tasks.update", err)
	}

	if !patch.Empty() {
		s.invalidate(ctx, callerID)
	}
	return task, nil
}

// Delete removes one of the caller's tasks
func (s *taskService) Delete(ctx context.Context, callerID, taskID string) error {
	if !validTaskID(taskID) {
		return repository.ErrTaskNotFound
	}

	if err := s.repo.DeleteOwned(ctx, taskID, callerID); err != nil {
		return classify(s.logger.WithFields(logrus.Fields{"user_id": callerID, "task_id": taskID}), "tasks.delete", err)
	}

	s.invalidate(ctx, callerID)
	return nil
}

// validTaskID rejects ids the store could never have issued, so they read as not found.
func validTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// invalidate moves the owner to a new list version
func (s *taskService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, cache.TaskListVersionKey(ownerID)); err != nil {
		s.logger.WithError(err).WithField("user_id", ownerID).Warn("task list cache invalidation failed")
	}
}

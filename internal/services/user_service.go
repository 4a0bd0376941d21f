package services

import (
	"context"
	"errors"

	"github.com/AnshRaj112/journal-backend/internal/metrics"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService wraps the users collection.
type UserService struct {
	users   repository.Repository[*models.User]
	metrics *metrics.Metrics
}

// NewUserService creates a user service. m may be nil.
func NewUserService(users repository.Repository[*models.User], m *metrics.Metrics) *UserService {
	return &UserService{users: users, metrics: m}
}

// SaveUser upserts the user by id. User names are not checked for uniqueness.
func (s *UserService) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	saved, err := s.users.Save(ctx, user)
	s.metrics.RecordOperation("user.save", err)
	return saved, err
}

func (s *UserService) GetAll(ctx context.Context) ([]*models.User, error) {
	return s.users.FindAll(ctx)
}

// GetUserByID reports found=false instead of an error when no user has the id.
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, bool, error) {
	return found(s.users.FindByID(ctx, id))
}

// DeleteUserByID removes the user document only. The user's entries stay in the entry collection.
func (s *UserService) DeleteUserByID(ctx context.Context, id primitive.ObjectID) error {
	err := s.users.DeleteByID(ctx, id)
	s.metrics.RecordOperation("user.delete", err)
	return err
}

// FindByUserName returns the first user with the given name. With duplicate names the match is arbitrary.
func (s *UserService) FindByUserName(ctx context.Context, userName string) (*models.User, bool, error) {
	return found(s.users.FindOneBy(ctx, "userName", userName))
}

func found[T any](doc T, err error) (T, bool, error) {
	if errors.Is(err, repository.ErrNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return doc, true, nil
}

package authService

import (
	"context"
	"errors"
	"time"

	"sitecooking/internal/api/auth"
	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/response"

	"github.com/sirupsen/logrus"
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgEmailTaken    = "A user with that email already exists."
)

// RegisterUser creates an account. Taken usernames and emails come back as
// field errors.
func (s *userService) RegisterUser(c context.Context, req auth.RegisterRequest) (entity.User, error) {
	requestID := contextPkg.GetRequestID(c)

	repo, err := s.authRepository.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}
	defer repo.Rollback()

	fields := response.FieldErrors{}

	taken, err := repo.Users.UsernameExists(c, req.Username)
	if err != nil {
		return entity.User{}, err
	}
	if taken {
		fields.Add("username", msgUsernameTaken)
	}

	if _, err := repo.Users.GetByEmail(c, req.Email); err == nil {
		fields.Add("email", msgEmailTaken)
	} else if !errors.Is(err, auth.ErrUserNotFound) {
		return entity.User{}, err
	}

	if len(fields) > 0 {
		return entity.User{}, response.NewValidationError(fields)
	}

	hashed, err := s.bcryptUtils.HashPassword(req.Password)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash password")
		return entity.User{}, auth.ErrFailedToCreateUser
	}

	user, err := s.newUser(req.Username, req.Email, hashed)
	if err != nil {
		return entity.User{}, err
	}

	if err := repo.Users.CreateUser(c, user); err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			fields.Add("username", msgUsernameTaken)
			return entity.User{}, response.NewValidationError(fields)
		}
		return entity.User{}, auth.ErrFailedToCreateUser
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return entity.User{}, auth.ErrFailedToCreateUser
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
		"username":   user.Username,
	}).Info("User registered")

	return user, nil
}

func (s *userService) GetByID(c context.Context, id string) (entity.User, error) {
	repo, err := s.authRepository.NewClient(false)
	if err != nil {
		return entity.User{}, err
	}
	return repo.Users.GetByID(c, id)
}

func (s *authService) newUser(username, email, hashedPassword string) (entity.User, error) {
	now := time.Now().UTC().Truncate(time.Second)

	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to generate ULID")
		return entity.User{}, err
	}

	return entity.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: now,
	}, nil
}

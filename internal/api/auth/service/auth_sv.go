package authService

import (
	"context"
	"errors"

	"sitecooking/internal/api/auth"
	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"
	jwtPkg "sitecooking/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *authDomainService) Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	repo, err := s.authRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.LoginUserResponse{}, err
	}

	user, err := repo.Users.GetByUsername(c, req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return auth.LoginUserResponse{}, auth.ErrInvalidUsernameOrPassword
		}
		return auth.LoginUserResponse{}, err
	}

	if user.Password == "" {
		return auth.LoginUserResponse{}, auth.ErrInvalidUsernameOrPassword
	}

	if err := s.bcryptUtils.ComparePassword(user.Password, req.Password); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"username":   req.Username,
		}).Warn("Password mismatch")
		return auth.LoginUserResponse{}, auth.ErrInvalidUsernameOrPassword
	}

	return s.IssueToken(user)
}

func (s *authDomainService) IssueToken(user entity.User) (auth.LoginUserResponse, error) {
	token, _, err := jwtPkg.Sign(MakeUserData(user), accessTokenTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Error("Failed to sign access token")
		return auth.LoginUserResponse{}, err
	}

	return auth.LoginUserResponse{
		AccessToken:      token,
		ExpiresInMinutes: accessTokenTTL.Minutes(),
	}, nil
}

func (s *authDomainService) GoogleEnabled() bool {
	return s.googleProvider != nil
}

func (s *authDomainService) LoginGoogle(state string) (string, error) {
	if s.googleProvider == nil {
		return "", auth.ErrGoogleLoginDisabled
	}
	return s.googleProvider.AuthCodeURL(state), nil
}

// UserLoginGoogle signs in the owner of a verified Google email, creating an
// account without a usable password on first visit.
func (s *authDomainService) UserLoginGoogle(c context.Context, code string) (auth.LoginUserResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	if s.googleProvider == nil {
		return auth.LoginUserResponse{}, auth.ErrGoogleLoginDisabled
	}

	info, err := s.googleProvider.GetUserInfo(c, code)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get google user info")
		return auth.LoginUserResponse{}, err
	}
	if !info.VerifiedEmail || info.Email == "" {
		return auth.LoginUserResponse{}, auth.ErrUnverifiedEmail
	}

	repo, err := s.authRepository.NewClient(true)
	if err != nil {
		return auth.LoginUserResponse{}, err
	}
	defer repo.Rollback()

	user, err := repo.Users.GetByEmail(c, info.Email)
	if errors.Is(err, auth.ErrUserNotFound) {
		username, err := s.freeUsername(c, repo.Users.UsernameExists, usernameFromEmail(info.Email))
		if err != nil {
			return auth.LoginUserResponse{}, err
		}

		user, err = s.newUser(username, info.Email, "")
		if err != nil {
			return auth.LoginUserResponse{}, err
		}
		if err := repo.Users.CreateUser(c, user); err != nil {
			return auth.LoginUserResponse{}, auth.ErrFailedToCreateUser
		}

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
		}).Info("User registered through google")
	} else if err != nil {
		return auth.LoginUserResponse{}, err
	}

	if err := repo.Commit(); err != nil {
		return auth.LoginUserResponse{}, err
	}

	return s.IssueToken(user)
}

func (s *authDomainService) freeUsername(c context.Context, exists func(context.Context, string) (bool, error), base string) (string, error) {
	candidate := base
	for i := 0; i < 5; i++ {
		taken, err := exists(c, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + randomSuffix()
	}
	return "", auth.ErrUserAlreadyExists
}

// NewState returns a random value for the OAuth state cookie.
func NewState() string {
	return uuid.NewString()
}

func randomSuffix() string {
	return uuid.NewString()[:6]
}

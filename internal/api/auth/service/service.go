package authService

import (
	"context"
	"time"

	"sitecooking/internal/api/auth"
	authRepository "sitecooking/internal/api/auth/repository"
	"sitecooking/internal/entity"
	"sitecooking/pkg/bcrypt"
	"sitecooking/pkg/google"
	"sitecooking/pkg/utils"

	"github.com/sirupsen/logrus"
)

const accessTokenTTL = 24 * time.Hour

type AuthService interface {
	User() UserDomain
	Auth() AuthDomain
}

type UserDomain interface {
	RegisterUser(c context.Context, req auth.RegisterRequest) (entity.User, error)
	GetByID(c context.Context, id string) (entity.User, error)
}

type AuthDomain interface {
	Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error)
	IssueToken(user entity.User) (auth.LoginUserResponse, error)
	GoogleEnabled() bool
	LoginGoogle(state string) (string, error)
	UserLoginGoogle(c context.Context, code string) (auth.LoginUserResponse, error)
}

type authService struct {
	log            *logrus.Logger
	authRepository authRepository.Repository
	googleProvider google.ItfGoogle
	bcryptUtils    bcrypt.IBcrypt
	utils          utils.IUtils

	userDomain UserDomain
	authDomain AuthDomain
}

func (a *authService) User() UserDomain {
	return a.userDomain
}

func (a *authService) Auth() AuthDomain {
	return a.authDomain
}

func New(
	log *logrus.Logger,
	authRepo authRepository.Repository,
	googleProvider google.ItfGoogle,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
) AuthService {
	svc := &authService{
		log:            log,
		authRepository: authRepo,
		googleProvider: googleProvider,
		bcryptUtils:    bcryptUtils,
		utils:          utils,
	}

	svc.userDomain = &userService{svc}
	svc.authDomain = &authDomainService{svc}

	return svc
}

type userService struct {
	*authService
}

type authDomainService struct {
	*authService
}

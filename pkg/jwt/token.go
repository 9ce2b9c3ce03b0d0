package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"sitecooking/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// CookieName is the cookie browsers carry the access token in.
const CookieName = "access_token"

var ErrNoToken = errors.New("no access token")

func Sign(Data map[string]interface{}, ExpiredAt time.Duration) (string, int64, error) {
	expiredAt := time.Now().Add(ExpiredAt).Unix()

	JWTSecretKey := os.Getenv("JWT_ACCESS_TOKEN_SECRET")
	if JWTSecretKey == "" {
		return "", 0, fmt.Errorf("JWT_ACCESS_TOKEN_SECRET not set")
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt
	claims["authorization"] = true

	for i, v := range Data {
		claims[i] = v
	}

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := to.SignedString([]byte(JWTSecretKey))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(c *fiber.Ctx) (string, error) {
	if header := c.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", errors.New("invalid Authorization format")
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			return "", errors.New("empty token")
		}
		return token, nil
	}

	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie, nil
	}

	return "", ErrNoToken
}

func Verify(accessToken string, secretEnvKey string) (*jwt.Token, error) {
	JWTSecretKey := os.Getenv(secretEnvKey)
	if JWTSecretKey == "" {
		return nil, errors.New("JWT secret not configured")
	}

	return jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(JWTSecretKey), nil
	})
}

// UserFromToken reads the login claims. All of id, email and username must
// be present.
func UserFromToken(token *jwt.Token) (entity.UserLoginData, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.UserLoginData{}, errors.New("invalid token claims")
	}

	id, idOk := claims["id"].(string)
	email, emailOk := claims["email"].(string)
	username, usernameOk := claims["username"].(string)
	if !idOk || !emailOk || !usernameOk {
		return entity.UserLoginData{}, errors.New("token claims are missing required fields")
	}

	return entity.UserLoginData{
		ID:       id,
		Email:    email,
		Username: username,
	}, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	userData := c.Locals("user")

	user, ok := userData.(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}

// CurrentUser is GetUserLoginData for templates and optional auth pages.
func CurrentUser(c *fiber.Ctx) *entity.UserLoginData {
	user, err := GetUserLoginData(c)
	if err != nil {
		return nil
	}
	return &user
}

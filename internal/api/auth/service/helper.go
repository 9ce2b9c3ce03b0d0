package authService

import (
	"strings"

	"sitecooking/internal/entity"

	"github.com/gosimple/slug"
)

func MakeUserData(user entity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
	}
}

// usernameFromEmail turns the local part of an email into a username.
func usernameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}

	name := slug.Make(local)
	if len(name) < 3 {
		name = "cook-" + name
	}
	if len(name) > 140 {
		name = name[:140]
	}
	return strings.Trim(name, "-")
}

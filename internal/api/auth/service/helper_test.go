package authService

import "testing"

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "maria.cook@example.com", want: "maria-cook"},
		{email: "al@example.com", want: "cook-al"},
		{email: "@example.com", want: "example-com"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := usernameFromEmail(tt.email); got != tt.want {
				t.Errorf("usernameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

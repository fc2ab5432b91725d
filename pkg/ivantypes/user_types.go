package ivantypes

import "time"

// User is the public profile of an account.
type User struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Account is the stored record for a registered user. The password is kept in
// plain text: this is the simulated cloud backend, cryptographic authentication
// is explicitly out of scope.
type Account struct {
	Profile   User      `json:"profile"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"ivancode/internal/services"
	"ivancode/pkg/ivantypes"
)

// Login walks the register-or-login flow against the simulated cloud account
// store and returns the authenticated profile. An email passed on the command
// line that already has an account skips the interactive prompt entirely.
func Login(storage *services.StorageService, presetEmail string) (ivantypes.User, error) {
	rl, err := readline.New("")
	if err != nil {
		return ivantypes.User{}, fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	email := strings.TrimSpace(presetEmail)
	if email == "" {
		email, err = promptLine(rl, "email: ")
		if err != nil {
			return ivantypes.User{}, err
		}
	}
	if email == "" {
		return ivantypes.User{}, fmt.Errorf("email is required")
	}

	if storage.UserExists(email) {
		password, err := promptPassword(rl, "password: ")
		if err != nil {
			return ivantypes.User{}, err
		}
		user, err := storage.LoginUser(email, password)
		if errors.Is(err, services.ErrWrongPassword) {
			return ivantypes.User{}, fmt.Errorf("wrong password for %s", email)
		}
		if err != nil {
			return ivantypes.User{}, err
		}
		return user, nil
	}

	fmt.Printf("No account for %s yet, let's create one.\n", email)
	name, err := promptLine(rl, "name: ")
	if err != nil {
		return ivantypes.User{}, err
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	password, err := promptPassword(rl, "choose a password: ")
	if err != nil {
		return ivantypes.User{}, err
	}

	user := ivantypes.User{Name: name, Email: email}
	if err := storage.RegisterUser(user, password); err != nil {
		return ivantypes.User{}, err
	}
	return user, nil
}

func promptLine(rl *readline.Instance, prompt string) (string, error) {
	rl.SetPrompt(prompt)
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(rl *readline.Instance, prompt string) (string, error) {
	password, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(password)), nil
}

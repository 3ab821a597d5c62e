package app

import (
	"fmt"
	"strings"

	"photoshare/pkg/auth"
	"photoshare/pkg/domain"
	"photoshare/pkg/store"
)

// Register creates a new account. Usernames and emails are unique; passwords
// are checked against the policy and stored as bcrypt hashes.
func (a *App) Register(username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}

	taken, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.User{}, ErrUsernameTaken
	}
	taken, err = a.store.HasEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return domain.User{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.store.CreateUser(domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if err != nil {
		// a concurrent registration can win the race between the
		// existence checks and the insert
		if store.IsDuplicateKey(err) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	a.logger.Info("user registered", "userId", user.ID, "username", user.Username)
	return user, nil
}

// Login checks credentials and returns the account. The same error covers an
// unknown username and a wrong password.
func (a *App) Login(username, password string) (domain.User, error) {
	user, ok, err := a.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser fetches an account by id.
func (a *App) GetUser(id uint) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

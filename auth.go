package socialmuse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// normalizeEmail is the form under which emails are compared and stored.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a user and signs it in. It fails with ErrDuplicateEmail,
// leaving the user collection untouched, if the email is already taken.
func (w *Workspace) SignUp(ctx context.Context, name, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrMissingAuthFields
	}

	w.authMu.Lock()
	defer w.authMu.Unlock()

	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if normalizeEmail(u.Email) == email {
			return User{}, ErrDuplicateEmail
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user := User{
		ID:           w.newID(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := w.store.SaveUser(ctx, user); err != nil {
		return User{}, err
	}
	if err := w.signIn(ctx, user); err != nil {
		return User{}, err
	}
	w.log.Info("user signed up", zap.String("workspace", w.ID), zap.String("user", user.ID))
	return user, nil
}

// SignIn signs in the user with email after checking password against the
// stored bcrypt hash.
func (w *Workspace) SignIn(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrMissingAuthFields
	}

	w.authMu.Lock()
	defer w.authMu.Unlock()

	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if normalizeEmail(u.Email) != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return User{}, ErrInvalidCredentials
		}
		if err := w.signIn(ctx, u); err != nil {
			return User{}, err
		}
		return u, nil
	}
	return User{}, ErrInvalidCredentials
}

func (w *Workspace) signIn(ctx context.Context, u User) error {
	u.PasswordHash = ""
	if err := w.store.SetCurrentUser(ctx, &u); err != nil {
		return err
	}
	return w.switchUser(ctx, &u)
}

// SignOut clears the session user and shows the anonymous history.
func (w *Workspace) SignOut(ctx context.Context) error {
	w.authMu.Lock()
	defer w.authMu.Unlock()
	if err := w.store.SetCurrentUser(ctx, nil); err != nil {
		return err
	}
	return w.switchUser(ctx, nil)
}

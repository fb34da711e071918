package socialmuse

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSignUpCreatesAndSignsIn(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t, staticDrafter(), nil)

	u, err := w.SignUp(ctx, " Ada ", " Ada@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if u.Email != "ada@example.com" || u.Name != "Ada" {
		t.Errorf("user = %+v, want normalized name and email", u)
	}
	if u.PasswordHash == "" || u.PasswordHash == "correct horse" {
		t.Error("password is not hashed")
	}

	cur, err := w.store.CurrentUser(ctx)
	if err != nil || cur == nil || cur.ID != u.ID {
		t.Fatalf("current user = %+v, %v", cur, err)
	}
	if s := w.Snapshot(); s.User == nil || s.User.ID != u.ID {
		t.Errorf("snapshot user = %+v", s.User)
	}
}

func TestSignUpDuplicateEmailDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t, staticDrafter(), nil)
	if _, err := w.SignUp(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	before, _ := w.store.ListUsers(ctx)

	_, err := w.SignUp(ctx, "Impostor", "ADA@example.com", "other")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("error = %v, want ErrDuplicateEmail", err)
	}
	after, _ := w.store.ListUsers(ctx)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("users changed by a rejected sign-up (-before +after):\n%s", diff)
	}
	if UserMessage(err) != "Email already exists" {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
}

func TestSignInVerifiesPassword(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t, staticDrafter(), nil)
	created, err := w.SignUp(ctx, "Ada", "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := w.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "bob@example.com", "pw", ErrInvalidCredentials},
		{"wrong password", "ada@example.com", "nope", ErrInvalidCredentials},
		{"missing password", "ada@example.com", "", ErrMissingAuthFields},
		{"missing email", "", "pw", ErrMissingAuthFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.SignIn(ctx, tt.email, tt.password); !errors.Is(err, tt.wantErr) {
				t.Fatalf("SignIn error = %v, want %v", err, tt.wantErr)
			}
			if s := w.Snapshot(); s.User != nil {
				t.Errorf("user signed in after a failed attempt: %+v", s.User)
			}
		})
	}

	u, err := w.SignIn(ctx, "ADA@example.com", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("signed in as %s, want %s", u.ID, created.ID)
	}
}

func TestSignOutClearsCurrentUser(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkspace(t, staticDrafter(), nil)
	if _, err := w.SignUp(ctx, "Ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := w.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if cur, _ := w.store.CurrentUser(ctx); cur != nil {
		t.Errorf("current user after sign-out = %+v", cur)
	}
}

package services

import (
	"context"
	"testing"

	"tokenup/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(store.NewMemoryStore(), zerolog.Nop(), false)

	u, err := svc.Register(ctx, RegisterInput{Username: " alice ", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "secret1", u.Password, "password is stored hashed")
	assert.Zero(t, u.TotalTokens)
	assert.False(t, u.IsAdmin)

	got, err := svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "bob", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "another", Name: "Again"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"short username", RegisterInput{Username: "ab", Password: "secret1", Name: "A"}, "username"},
		{"bad username", RegisterInput{Username: "a b c", Password: "secret1", Name: "A"}, "username"},
		{"short password", RegisterInput{Username: "alice", Password: "12345", Name: "A"}, "password"},
		{"missing name", RegisterInput{Username: "alice", Password: "secret1"}, "name"},
		{"bad avatar", RegisterInput{Username: "alice", Password: "secret1", Name: "A", Avatar: "javascript:alert(1)"}, "avatar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(store.NewMemoryStore(), zerolog.Nop(), false)
			_, err := svc.Register(context.Background(), tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdateAvatar(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewUserService(st, zerolog.Nop(), false)
	u := seedUser(t, st, "alice", false)

	got, err := svc.UpdateAvatar(ctx, u, "/uploads/certificates/me.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/certificates/me.png", got.Avatar)

	got, err = svc.UpdateAvatar(ctx, u, "https://cdn.example.com/me.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/me.png", got.Avatar)

	for _, bad := range []string{"", "ftp://x/y.png", "//evil.example.com/x", "data:image/png;base64,AAAA"} {
		_, err := svc.UpdateAvatar(ctx, u, bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
	_, err = svc.UpdateAvatar(ctx, nil, "/x.png")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewUserService(st, zerolog.Nop(), false)
	admin := seedUser(t, st, "admin", true)
	alice := seedUser(t, st, "alice", false)

	_, err := svc.Promote(ctx, alice, admin.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Promote(ctx, admin, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	_, err = svc.Promote(ctx, admin, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPromoteSelfIsGated(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	alice := seedUser(t, st, "alice", false)

	_, err := NewUserService(st, zerolog.Nop(), false).PromoteSelf(ctx, alice)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := NewUserService(st, zerolog.Nop(), true).PromoteSelf(ctx, alice)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
}

func TestEnsureAdmins(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewUserService(st, zerolog.Nop(), false)
	seedUser(t, st, "alice", false)
	seedUser(t, st, "root", true)

	n, err := svc.EnsureAdmins(ctx, []string{"alice", "root", "ghost", " "})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	alice, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, alice.IsAdmin)
}

func TestTokenHistory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewUserService(st, zerolog.Nop(), false)
	u := seedUser(t, st, "alice", false)

	history, err := svc.TokenHistory(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.TokenHistory(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

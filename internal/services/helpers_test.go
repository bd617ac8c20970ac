package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"tokenup/internal/models"
	"tokenup/internal/store"

	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, st store.Store, username string, admin bool) *models.User {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Username: username, Password: "hash", Name: username}
	require.NoError(t, st.CreateUser(ctx, u))
	if admin {
		var err error
		u, err = st.MakeUserAdmin(ctx, u.ID)
		require.NoError(t, err)
	}
	return u
}

var errInjected = errors.New("injected award failure")

// flakyStore fails AwardTokens while failAwards is set.
type flakyStore struct {
	*store.MemoryStore
	failAwards atomic.Bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (f *flakyStore) AwardTokens(ctx context.Context, award *models.TokenAward) (*models.User, error) {
	if f.failAwards.Load() {
		return nil, errInjected
	}
	return f.MemoryStore.AwardTokens(ctx, award)
}

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"tokenup/internal/models"
	"tokenup/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engagementFixture(t *testing.T) (*EngagementService, store.Store, *models.User, *models.Certificate) {
	t.Helper()
	st := store.NewMemoryStore()
	user := seedUser(t, st, "alice", false)
	cert := &models.Certificate{UserID: user.ID, Title: "t", Issuer: "i", ImageURL: "/x.png", CertificateType: models.TypeNPTEL, TokenValue: 2}
	require.NoError(t, st.CreateCertificate(context.Background(), cert))
	return NewEngagementService(st, zerolog.Nop()), st, user, cert
}

func TestLikeToggle(t *testing.T) {
	ctx := context.Background()
	svc, _, user, cert := engagementFixture(t)

	require.NoError(t, svc.Like(ctx, user, cert.ID))
	require.NoError(t, svc.Like(ctx, user, cert.ID))

	sum, err := svc.Summary(ctx, user, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, LikesSummary{Count: 1, Liked: true}, *sum)

	anon, err := svc.Summary(ctx, nil, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, LikesSummary{Count: 1, Liked: false}, *anon)

	require.NoError(t, svc.Unlike(ctx, user, cert.ID))
	require.NoError(t, svc.Unlike(ctx, user, cert.ID))

	liked, err := svc.HasLiked(ctx, user, cert.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	sum, err = svc.Summary(ctx, user, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Count)
}

func TestLikeErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, user, _ := engagementFixture(t)

	assert.ErrorIs(t, svc.Like(ctx, nil, 1), ErrUnauthenticated)
	assert.ErrorIs(t, svc.Unlike(ctx, nil, 1), ErrUnauthenticated)
	assert.ErrorIs(t, svc.Like(ctx, user, 9999), store.ErrNotFound)
	_, err := svc.HasLiked(ctx, user, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentLikesFromTwoUsers(t *testing.T) {
	ctx := context.Background()
	svc, st, alice, cert := engagementFixture(t)
	bob := seedUser(t, st, "bob", false)

	var wg sync.WaitGroup
	for _, u := range []*models.User{alice, bob} {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			assert.NoError(t, svc.Like(ctx, u, cert.ID))
		}(u)
	}
	wg.Wait()

	got, err := st.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LikesCount)
}

func TestCommentStripsMarkupAndEnriches(t *testing.T) {
	ctx := context.Background()
	svc, st, user, cert := engagementFixture(t)
	user, err := st.UpdateUserAvatar(ctx, user.ID, "https://example.com/a.png")
	require.NoError(t, err)

	c, err := svc.Comment(ctx, user, cert.ID, "  <b>nice</b> <script>alert(1)</script>work ")
	require.NoError(t, err)
	assert.Equal(t, "nice work", c.Content)
	require.NotNil(t, c.Poster)
	assert.Equal(t, models.UserSummary{ID: user.ID, Name: "alice", Avatar: "https://example.com/a.png"}, *c.Poster)
}

func TestCommentValidation(t *testing.T) {
	ctx := context.Background()
	svc, st, user, cert := engagementFixture(t)

	for _, content := range []string{"", "   ", "<p></p>", strings.Repeat("a", maxCommentLength+1)} {
		_, err := svc.Comment(ctx, user, cert.ID, content)
		assert.ErrorIs(t, err, ErrValidation, "content %.20q", content)
	}
	_, err := svc.Comment(ctx, nil, cert.ID, "hi")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Comment(ctx, user, 9999, "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := st.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CommentsCount, "rejected comments leave the counter alone")
}

func TestCommentsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, st, alice, cert := engagementFixture(t)
	bob := seedUser(t, st, "bob", false)

	_, err := svc.Comment(ctx, alice, cert.ID, "one")
	require.NoError(t, err)
	_, err = svc.Comment(ctx, bob, cert.ID, "two")
	require.NoError(t, err)

	comments, err := svc.Comments(ctx, cert.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "two", comments[0].Content)
	assert.Equal(t, "bob", comments[0].Poster.Name)
	assert.Equal(t, "one", comments[1].Content)
	assert.Equal(t, alice.ID, comments[1].Poster.ID)

	_, err = svc.Comments(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentComments(t *testing.T) {
	ctx := context.Background()
	svc, st, user, cert := engagementFixture(t)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Comment(ctx, user, cert.ID, fmt.Sprintf("comment %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := st.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.CommentsCount)
}

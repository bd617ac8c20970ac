package services

import (
	"context"
	"sync"
	"testing"

	"tokenup/internal/models"
	"tokenup/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(typ string) CreateCertificateInput {
	return CreateCertificateInput{
		Title:           "Intro to Go",
		Issuer:          "NPTEL",
		ImageURL:        "/uploads/certificates/a.png",
		Description:     "**Top** 5%",
		CertificateType: typ,
	}
}

func TestCreateCertificate(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCertificateService(st, zerolog.Nop())
	owner := seedUser(t, st, "alice", false)

	cert, err := svc.Create(context.Background(), owner.ID, validInput(models.TypeResearchPaper))
	require.NoError(t, err)
	assert.Equal(t, 4, cert.TokenValue)
	assert.False(t, cert.IsVerified)
	assert.Equal(t, "image/jpeg", cert.FileType)
	assert.Contains(t, cert.DescriptionHTML, "<strong>Top</strong>")

	pdf := validInput(models.TypeUdemy)
	pdf.FileType = "application/pdf"
	cert, err = svc.Create(context.Background(), owner.ID, pdf)
	require.NoError(t, err)
	assert.True(t, cert.IsPDF)
	assert.Equal(t, 1, cert.TokenValue)
}

func TestCreateCertificateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateCertificateInput)
		field  string
	}{
		{"unknown type", func(in *CreateCertificateInput) { in.CertificateType = "BOOTCAMP" }, "certificateType"},
		{"lowercase type", func(in *CreateCertificateInput) { in.CertificateType = "nptel" }, "certificateType"},
		{"missing title", func(in *CreateCertificateInput) { in.Title = "   " }, "title"},
		{"missing issuer", func(in *CreateCertificateInput) { in.Issuer = "" }, "issuer"},
		{"missing image", func(in *CreateCertificateInput) { in.ImageURL = "" }, "imageUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			svc := NewCertificateService(st, zerolog.Nop())
			owner := seedUser(t, st, "alice", false)

			in := validInput(models.TypeNPTEL)
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), owner.ID, in)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			all, err := st.GetCertificates(context.Background(), nil)
			require.NoError(t, err)
			assert.Empty(t, all, "nothing is stored on validation failure")
		})
	}
}

func TestCreateCertificateUnknownOwner(t *testing.T) {
	svc := NewCertificateService(store.NewMemoryStore(), zerolog.Nop())
	_, err := svc.Create(context.Background(), 42, validInput(models.TypeNPTEL))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyRequiresAdmin(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCertificateService(st, zerolog.Nop())
	owner := seedUser(t, st, "alice", false)
	cert, err := svc.Create(context.Background(), owner.ID, validInput(models.TypeNPTEL))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), nil, cert.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Verify(context.Background(), owner, cert.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := st.GetCertificate(context.Background(), cert.ID)
	require.NoError(t, err)
	assert.False(t, got.IsVerified)
	u, err := st.GetUser(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Zero(t, u.TotalTokens)
}

func TestVerifyAwardsOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewCertificateService(st, zerolog.Nop())
	admin := seedUser(t, st, "admin", true)
	owner := seedUser(t, st, "alice", false)

	cert, err := svc.Create(ctx, owner.ID, validInput(models.TypeStateCompetition))
	require.NoError(t, err)

	res, err := svc.Verify(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.True(t, res.Certificate.IsVerified)
	assert.Equal(t, owner.ID, res.User.ID)
	assert.Equal(t, 3, res.User.TotalTokens)

	res, err = svc.Verify(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.User.TotalTokens, "second verify does not pay again")

	history, err := st.ListTokenAwards(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ActionCertificateVerified, history[0].Action)

	_, err = svc.Verify(ctx, admin, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyConcurrentAwardsOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewCertificateService(st, zerolog.Nop())
	admin := seedUser(t, st, "admin", true)
	owner := seedUser(t, st, "alice", false)
	cert, err := svc.Create(ctx, owner.ID, validInput(models.TypeInternationalCompetition))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Verify(ctx, admin, cert.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := st.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, u.TotalTokens)
}

func TestFailedAwardIsRedrivenByVerify(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStore()
	svc := NewCertificateService(st, zerolog.Nop())
	admin := seedUser(t, st, "admin", true)
	owner := seedUser(t, st, "alice", false)
	cert, err := svc.Create(ctx, owner.ID, validInput(models.TypeHackathon))
	require.NoError(t, err)

	st.failAwards.Store(true)
	_, err = svc.Verify(ctx, admin, cert.ID)
	require.ErrorIs(t, err, errInjected)

	got, err := st.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified, "flag write happened before the failed award")
	has, err := st.HasAward(ctx, cert.ID)
	require.NoError(t, err)
	assert.False(t, has)

	st.failAwards.Store(false)
	res, err := svc.Verify(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.User.TotalTokens)

	res, err = svc.Verify(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.User.TotalTokens)
}

func TestReconcileAwardsPendingOnce(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStore()
	svc := NewCertificateService(st, zerolog.Nop())
	admin := seedUser(t, st, "admin", true)
	owner := seedUser(t, st, "alice", false)

	a, err := svc.Create(ctx, owner.ID, validInput(models.TypeNPTEL))
	require.NoError(t, err)
	b, err := svc.Create(ctx, owner.ID, validInput(models.TypeWorkshop))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, validInput(models.TypeCoursera))
	require.NoError(t, err)

	st.failAwards.Store(true)
	for _, id := range []uint{a.ID, b.ID} {
		_, err := svc.Verify(ctx, admin, id)
		require.Error(t, err)
	}

	res, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Checked: 2, Awarded: 0, Failed: 2}, *res)

	st.failAwards.Store(false)
	res, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Checked: 2, Awarded: 2}, *res)

	res, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, *res)

	u, err := st.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, u.TotalTokens)

	history, err := st.ListTokenAwards(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ActionReconciled, history[0].Action)
}

func TestListCertificatesByOwner(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewCertificateService(st, zerolog.Nop())
	alice := seedUser(t, st, "alice", false)
	bob := seedUser(t, st, "bob", false)

	_, err := svc.Create(ctx, alice.ID, validInput(models.TypeNPTEL))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, validInput(models.TypeUdemy))
	require.NoError(t, err)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, &bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.TypeUdemy, mine[0].CertificateType)
	assert.NotEmpty(t, mine[0].DescriptionHTML)
}

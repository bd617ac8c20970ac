package services

import (
	"context"
	"errors"
	"fmt"

	"tokenup/internal/metrics"
	"tokenup/internal/models"
	"tokenup/internal/store"
)

// Ledger actions
const (
	ActionCertificateVerified = "certificate verified"
	ActionReconciled          = "certificate verified (reconciled)"
)

// award credits a verified certificate's token value to its owner exactly
// once. awarded is false when the ledger already had an entry.
func award(ctx context.Context, st store.Store, cert *models.Certificate, action string) (user *models.User, awarded bool, err error) {
	if !cert.IsVerified {
		return nil, false, fmt.Errorf("certificate %d is not verified", cert.ID)
	}
	user, err = st.AwardTokens(ctx, &models.TokenAward{
		UserID:        cert.UserID,
		CertificateID: cert.ID,
		Amount:        cert.TokenValue,
		Action:        action,
	})
	if errors.Is(err, store.ErrAlreadyAwarded) {
		user, err = st.GetUser(ctx, cert.UserID)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	metrics.TokensAwarded.Add(float64(cert.TokenValue))
	return user, true, nil
}

// Package store holds users, certificates, likes, comments and the token
// ledger behind one contract. Every backend implements every method.
package store

import (
	"context"
	"errors"
	"fmt"

	"tokenup/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrAlreadyAwarded is returned by AwardTokens when the certificate already
	// has a ledger entry.
	ErrAlreadyAwarded = fmt.Errorf("%w: tokens already awarded for certificate", ErrConflict)
)

// Store is the persistence contract used by the services.
//
// Counter fields (Certificate.LikesCount, Certificate.CommentsCount,
// User.TotalTokens) are only changed by the operations that own them, and
// each such change is applied atomically together with the row it
// denormalizes.
type Store interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// CreateUser assigns ID and CreatedAt and forces TotalTokens=0, IsAdmin=false.
	// A taken username yields ErrConflict.
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateUserTokens adds delta to the user's balance.
	UpdateUserTokens(ctx context.Context, userID uint, delta int) (*models.User, error)
	// GetTopUsers orders by TotalTokens descending, ties by ID ascending.
	GetTopUsers(ctx context.Context, limit int) ([]models.User, error)
	MakeUserAdmin(ctx context.Context, userID uint) (*models.User, error)
	UpdateUserAvatar(ctx context.Context, userID uint, avatar string) (*models.User, error)

	GetCertificate(ctx context.Context, id uint) (*models.Certificate, error)
	// GetCertificates returns all certificates, or only those owned by userID
	// when it is non-nil. Ordered by ID.
	GetCertificates(ctx context.Context, userID *uint) ([]models.Certificate, error)
	// CreateCertificate assigns ID and CreatedAt; counters start at zero.
	CreateCertificate(ctx context.Context, cert *models.Certificate) error
	// VerifyCertificate sets IsVerified. changed reports whether this call
	// performed the pending -> verified transition.
	VerifyCertificate(ctx context.Context, id uint) (cert *models.Certificate, changed bool, err error)

	// AwardTokens records the ledger entry and adds award.Amount to the
	// owner's balance in one step. A second award for the same certificate
	// returns ErrAlreadyAwarded and changes nothing.
	AwardTokens(ctx context.Context, award *models.TokenAward) (*models.User, error)
	HasAward(ctx context.Context, certificateID uint) (bool, error)
	// ListTokenAwards is newest first.
	ListTokenAwards(ctx context.Context, userID uint) ([]models.TokenAward, error)
	// ListUnawardedCertificates returns verified certificates with no ledger entry.
	ListUnawardedCertificates(ctx context.Context) ([]models.Certificate, error)

	// LikeCertificate reports whether a new like was created.
	LikeCertificate(ctx context.Context, userID, certificateID uint) (bool, error)
	// UnlikeCertificate reports whether an existing like was removed.
	UnlikeCertificate(ctx context.Context, userID, certificateID uint) (bool, error)
	GetLikes(ctx context.Context, certificateID uint) ([]models.Like, error)
	HasLiked(ctx context.Context, userID, certificateID uint) (bool, error)

	AddComment(ctx context.Context, userID, certificateID uint, content string) (*models.Comment, error)
	// GetComments is newest first with User populated.
	GetComments(ctx context.Context, certificateID uint) ([]models.Comment, error)
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

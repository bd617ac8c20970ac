package store

import (
	"context"
	"errors"
	"time"

	"tokenup/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore backs the contract with a relational database (Postgres in
// production, SQLite for local runs and tests). Counters are moved with
// SQL expressions inside the same transaction as the row they count.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return err
}

// --- USERS ---

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = 0
	user.TotalTokens = 0
	user.IsAdmin = false
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
		if err := tx.Create(user).Error; err != nil {
			// unique index still guards the race between count and insert
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) UpdateUserTokens(ctx context.Context, userID uint, delta int) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addTokens(tx, userID, delta, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func addTokens(tx *gorm.DB, userID uint, delta int, out *models.User) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("total_tokens", gorm.Expr("total_tokens + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("user", userID)
	}
	return tx.First(out, userID).Error
}

func (s *GormStore) GetTopUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("total_tokens DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) MakeUserAdmin(ctx context.Context, userID uint) (*models.User, error) {
	return s.updateUser(ctx, userID, map[string]interface{}{"is_admin": true})
}

func (s *GormStore) UpdateUserAvatar(ctx context.Context, userID uint, avatar string) (*models.User, error) {
	return s.updateUser(ctx, userID, map[string]interface{}{"avatar": avatar})
}

func (s *GormStore) updateUser(ctx context.Context, userID uint, updates map[string]interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("user", userID)
		}
		return tx.First(&user, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// --- CERTIFICATES ---

func (s *GormStore) GetCertificate(ctx context.Context, id uint) (*models.Certificate, error) {
	var cert models.Certificate
	if err := s.db.WithContext(ctx).First(&cert, id).Error; err != nil {
		return nil, translate(err, "certificate", id)
	}
	return &cert, nil
}

func (s *GormStore) GetCertificates(ctx context.Context, userID *uint) ([]models.Certificate, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var certs []models.Certificate
	if err := query.Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

func (s *GormStore) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	cert.ID = 0
	cert.LikesCount = 0
	cert.CommentsCount = 0
	if cert.FileType == "" {
		cert.FileType = "image/jpeg"
	}
	return s.db.WithContext(ctx).Create(cert).Error
}

func (s *GormStore) VerifyCertificate(ctx context.Context, id uint) (*models.Certificate, bool, error) {
	var (
		cert    models.Certificate
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// conditional update: only one caller can win the pending -> verified flip
		res := tx.Model(&models.Certificate{}).
			Where("id = ? AND is_verified = ?", id, false).
			Updates(map[string]interface{}{"is_verified": true, "verified_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected == 1
		if err := tx.First(&cert, id).Error; err != nil {
			return translate(err, "certificate", id)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &cert, changed, nil
}

// --- TOKEN LEDGER ---

func (s *GormStore) AwardTokens(ctx context.Context, award *models.TokenAward) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", award.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("user", award.UserID)
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(award)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyAwarded
		}
		return addTokens(tx, award.UserID, award.Amount, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) HasAward(ctx context.Context, certificateID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TokenAward{}).
		Where("certificate_id = ?", certificateID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ListTokenAwards(ctx context.Context, userID uint) ([]models.TokenAward, error) {
	var awards []models.TokenAward
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&awards).Error
	if err != nil {
		return nil, err
	}
	return awards, nil
}

func (s *GormStore) ListUnawardedCertificates(ctx context.Context) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := s.db.WithContext(ctx).
		Where("is_verified = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM token_awards WHERE token_awards.certificate_id = certificates.id)").
		Order("id ASC").
		Find(&certs).Error
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// --- LIKES ---

func certificateExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Certificate{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("certificate", id)
	}
	return nil
}

func (s *GormStore) LikeCertificate(ctx context.Context, userID, certificateID uint) (bool, error) {
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := certificateExists(tx, certificateID); err != nil {
			return err
		}
		like := models.Like{UserID: userID, CertificateID: certificateID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&models.Certificate{}).
			Where("id = ?", certificateID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).
			Error
	})
	return created, err
}

func (s *GormStore) UnlikeCertificate(ctx context.Context, userID, certificateID uint) (bool, error) {
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := certificateExists(tx, certificateID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND certificate_id = ?", userID, certificateID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Certificate{}).
			Where("id = ?", certificateID).
			UpdateColumn("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).
			Error
	})
	return removed, err
}

func (s *GormStore) GetLikes(ctx context.Context, certificateID uint) ([]models.Like, error) {
	var likes []models.Like
	err := s.db.WithContext(ctx).
		Where("certificate_id = ?", certificateID).
		Order("id ASC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (s *GormStore) HasLiked(ctx context.Context, userID, certificateID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND certificate_id = ?", userID, certificateID).
		Count(&count).Error
	return count > 0, err
}

// --- COMMENTS ---

func (s *GormStore) AddComment(ctx context.Context, userID, certificateID uint, content string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return translate(err, "user", userID)
		}
		if err := certificateExists(tx, certificateID); err != nil {
			return err
		}

		comment = models.Comment{UserID: userID, CertificateID: certificateID, Content: content}
		if err := tx.Omit("User").Create(&comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Certificate{}).
			Where("id = ?", certificateID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).
			Error; err != nil {
			return err
		}
		comment.User = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *GormStore) GetComments(ctx context.Context, certificateID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("certificate_id = ?", certificateID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"tokenup/internal/metrics"
	"tokenup/internal/models"
	"tokenup/internal/store"
	"tokenup/internal/utils"

	"github.com/rs/zerolog"
)

const maxCommentLength = 2000

// EngagementService handles likes and comments. Each call moves the
// certificate counter together with the row it counts.
type EngagementService struct {
	store store.Store
	log   zerolog.Logger
}

func NewEngagementService(st store.Store, log zerolog.Logger) *EngagementService {
	return &EngagementService{store: st, log: log.With().Str("service", "engagement").Logger()}
}

// Like is idempotent: liking twice leaves one like.
func (s *EngagementService) Like(ctx context.Context, actor *models.User, certificateID uint) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	created, err := s.store.LikeCertificate(ctx, actor.ID, certificateID)
	if err != nil {
		return err
	}
	if created {
		metrics.LikeChanges.WithLabelValues("like").Inc()
		s.log.Debug().Uint("user_id", actor.ID).Uint("certificate_id", certificateID).Msg("certificate liked")
	}
	return nil
}

// Unlike removes the caller's like if there is one.
func (s *EngagementService) Unlike(ctx context.Context, actor *models.User, certificateID uint) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	removed, err := s.store.UnlikeCertificate(ctx, actor.ID, certificateID)
	if err != nil {
		return err
	}
	if removed {
		metrics.LikeChanges.WithLabelValues("unlike").Inc()
		s.log.Debug().Uint("user_id", actor.ID).Uint("certificate_id", certificateID).Msg("certificate unliked")
	}
	return nil
}

func (s *EngagementService) HasLiked(ctx context.Context, actor *models.User, certificateID uint) (bool, error) {
	if actor == nil {
		return false, ErrUnauthenticated
	}
	if _, err := s.store.GetCertificate(ctx, certificateID); err != nil {
		return false, err
	}
	return s.store.HasLiked(ctx, actor.ID, certificateID)
}

// LikesSummary is the like count plus whether the caller is among the likers.
type LikesSummary struct {
	Count int  `json:"count"`
	Liked bool `json:"liked"`
}

// Summary works for anonymous callers too; Liked is then false.
func (s *EngagementService) Summary(ctx context.Context, actor *models.User, certificateID uint) (*LikesSummary, error) {
	cert, err := s.store.GetCertificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	sum := &LikesSummary{Count: cert.LikesCount}
	if actor != nil {
		if sum.Liked, err = s.store.HasLiked(ctx, actor.ID, certificateID); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// Comment stores the text with markup stripped.
func (s *EngagementService) Comment(ctx context.Context, actor *models.User, certificateID uint, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	text := utils.StripHTML(content)
	if text == "" {
		return nil, invalid("content", "is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, invalid("content", fmt.Sprintf("must be at most %d characters", maxCommentLength))
	}

	comment, err := s.store.AddComment(ctx, actor.ID, certificateID, text)
	if err != nil {
		return nil, err
	}
	metrics.CommentsPosted.Inc()
	s.log.Debug().Uint("user_id", actor.ID).Uint("certificate_id", certificateID).Uint("comment_id", comment.ID).Msg("comment posted")
	return withPoster(comment), nil
}

// Comments lists a certificate's comments, newest first.
func (s *EngagementService) Comments(ctx context.Context, certificateID uint) ([]models.Comment, error) {
	if _, err := s.store.GetCertificate(ctx, certificateID); err != nil {
		return nil, err
	}
	comments, err := s.store.GetComments(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		withPoster(&comments[i])
	}
	return comments, nil
}

func withPoster(c *models.Comment) *models.Comment {
	if c.User.ID != 0 {
		poster := c.User.Summary()
		c.Poster = &poster
	}
	return c
}

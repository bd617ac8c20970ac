package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"tokenup/internal/models"
	"tokenup/internal/store"
	"tokenup/internal/utils"

	"github.com/rs/zerolog"
)

const (
	minPasswordLength = 6
	maxNameLength     = 100
	maxBioLength      = 500
	maxAvatarLength   = 2048
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

// UserService covers accounts and admin promotion.
type UserService struct {
	store            store.Store
	log              zerolog.Logger
	allowSelfPromote bool
}

func NewUserService(st store.Store, log zerolog.Logger, allowSelfPromote bool) *UserService {
	return &UserService{
		store:            st,
		log:              log.With().Str("service", "user").Logger(),
		allowSelfPromote: allowSelfPromote,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
	Avatar   string
	Bio      string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Avatar = strings.TrimSpace(in.Avatar)
	in.Bio = strings.TrimSpace(in.Bio)

	switch {
	case !usernamePattern.MatchString(in.Username):
		return nil, invalid("username", "must be 3-64 letters, digits, '.', '_' or '-'")
	case len(in.Password) < minPasswordLength:
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	case in.Name == "":
		return nil, invalid("name", "is required")
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		return nil, invalid("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	case utf8.RuneCountInString(in.Bio) > maxBioLength:
		return nil, invalid("bio", fmt.Sprintf("must be at most %d characters", maxBioLength))
	}
	if in.Avatar != "" {
		if err := validateAvatar(in.Avatar); err != nil {
			return nil, err
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username: in.Username,
		Password: hash,
		Name:     in.Name,
		Avatar:   in.Avatar,
		Bio:      in.Bio,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("username %q is already taken: %w", in.Username, store.ErrConflict)
		}
		return nil, err
	}

	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate checks a username/password pair. Unknown usernames and wrong
// passwords give the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// UpdateAvatar accepts an http(s) URL or a path on this server.
func (s *UserService) UpdateAvatar(ctx context.Context, actor *models.User, avatar string) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return nil, invalid("avatar", "is required")
	}
	if err := validateAvatar(avatar); err != nil {
		return nil, err
	}
	return s.store.UpdateUserAvatar(ctx, actor.ID, avatar)
}

func validateAvatar(avatar string) error {
	if len(avatar) > maxAvatarLength {
		return invalid("avatar", "is too long")
	}
	u, err := url.Parse(avatar)
	if err != nil {
		return invalid("avatar", "must be a valid URL")
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		if u.Host == "" {
			return invalid("avatar", "must be a valid URL")
		}
		return nil
	}
	if u.Scheme == "" && strings.HasPrefix(avatar, "/") && !strings.HasPrefix(avatar, "//") {
		return nil
	}
	return invalid("avatar", "must be an http(s) URL or a local path")
}

// TokenHistory is the caller's award ledger, newest first.
func (s *UserService) TokenHistory(ctx context.Context, actor *models.User) ([]models.TokenAward, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.store.ListTokenAwards(ctx, actor.ID)
}

// Promote grants admin to another user. Only admins may do this.
func (s *UserService) Promote(ctx context.Context, actor *models.User, userID uint) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.store.MakeUserAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("user_id", userID).Uint("admin_id", actor.ID).Msg("user promoted to admin")
	return user, nil
}

// PromoteSelf lets the caller grant itself admin when auth.allow_self_promote is on.
func (s *UserService) PromoteSelf(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !s.allowSelfPromote {
		return nil, ErrForbidden
	}
	user, err := s.store.MakeUserAdmin(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	s.log.Warn().Uint("user_id", actor.ID).Msg("user promoted itself to admin")
	return user, nil
}

// EnsureAdmins promotes the configured usernames. Usernames that are not
// registered yet are skipped; they are picked up on a later start.
func (s *UserService) EnsureAdmins(ctx context.Context, usernames []string) (int, error) {
	promoted := 0
	for _, name := range usernames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		user, err := s.store.GetUserByUsername(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn().Str("username", name).Msg("configured admin not registered")
			continue
		}
		if err != nil {
			return promoted, err
		}
		if user.IsAdmin {
			continue
		}
		if _, err := s.store.MakeUserAdmin(ctx, user.ID); err != nil {
			return promoted, err
		}
		promoted++
		s.log.Info().Str("username", name).Msg("configured admin promoted")
	}
	return promoted, nil
}

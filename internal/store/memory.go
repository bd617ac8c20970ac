package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tokenup/internal/models"
)

type likeKey struct {
	userID        uint
	certificateID uint
}

// MemoryStore keeps everything in maps behind one RWMutex. Every mutation
// holds the write lock for its whole read-modify-write, so counters cannot
// drift under concurrent requests.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[uint]*models.User
	usernames    map[string]uint
	certificates map[uint]*models.Certificate
	likes        map[likeKey]*models.Like
	comments     map[uint]*models.Comment
	awards       map[uint]*models.TokenAward // keyed by certificate ID

	nextUserID        uint
	nextCertificateID uint
	nextLikeID        uint
	nextCommentID     uint
	nextAwardID       uint

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uint]*models.User),
		usernames:    make(map[string]uint),
		certificates: make(map[uint]*models.Certificate),
		likes:        make(map[likeKey]*models.Like),
		comments:     make(map[uint]*models.Comment),
		awards:       make(map[uint]*models.TokenAward),
		now:          time.Now,
	}
}

// --- USERS ---

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[user.Username]; taken {
		return ErrConflict
	}
	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.TotalTokens = 0
	user.IsAdmin = false
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	s.users[user.ID] = &cp
	s.usernames[user.Username] = user.ID
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateUserTokens(ctx context.Context, userID uint, delta int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTokensLocked(userID, delta)
}

func (s *MemoryStore) addTokensLocked(userID uint, delta int) (*models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	u.TotalTokens += delta
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetTopUsers(ctx context.Context, limit int) ([]models.User, error) {
	users, _ := s.ListUsers(ctx)
	// ListUsers is ID ordered, so a stable sort keeps creation order on ties
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].TotalTokens > users[j].TotalTokens
	})
	if limit >= 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *MemoryStore) MakeUserAdmin(ctx context.Context, userID uint) (*models.User, error) {
	return s.updateUser(userID, func(u *models.User) { u.IsAdmin = true })
}

func (s *MemoryStore) UpdateUserAvatar(ctx context.Context, userID uint, avatar string) (*models.User, error) {
	return s.updateUser(userID, func(u *models.User) { u.Avatar = avatar })
}

func (s *MemoryStore) updateUser(userID uint, fn func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	fn(u)
	u.UpdatedAt = s.now()
	cp := *u
	return &cp, nil
}

// --- CERTIFICATES ---

func (s *MemoryStore) GetCertificate(ctx context.Context, id uint) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[id]
	if !ok {
		return nil, notFound("certificate", id)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetCertificates(ctx context.Context, userID *uint) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Certificate, 0, len(s.certificates))
	for _, c := range s.certificates {
		if userID != nil && c.UserID != *userID {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCertificateID++
	cert.ID = s.nextCertificateID
	cert.CreatedAt = s.now()
	cert.LikesCount = 0
	cert.CommentsCount = 0
	if cert.FileType == "" {
		cert.FileType = "image/jpeg"
	}
	cp := *cert
	s.certificates[cert.ID] = &cp
	return nil
}

func (s *MemoryStore) VerifyCertificate(ctx context.Context, id uint) (*models.Certificate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certificates[id]
	if !ok {
		return nil, false, notFound("certificate", id)
	}
	changed := !c.IsVerified
	if changed {
		now := s.now()
		c.IsVerified = true
		c.VerifiedAt = &now
	}
	cp := *c
	return &cp, changed, nil
}

// --- TOKEN LEDGER ---

func (s *MemoryStore) AwardTokens(ctx context.Context, award *models.TokenAward) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[award.UserID]; !ok {
		return nil, notFound("user", award.UserID)
	}
	if _, done := s.awards[award.CertificateID]; done {
		return nil, ErrAlreadyAwarded
	}
	s.nextAwardID++
	award.ID = s.nextAwardID
	award.CreatedAt = s.now()
	cp := *award
	s.awards[award.CertificateID] = &cp
	return s.addTokensLocked(award.UserID, award.Amount)
}

func (s *MemoryStore) HasAward(ctx context.Context, certificateID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.awards[certificateID]
	return ok, nil
}

func (s *MemoryStore) ListTokenAwards(ctx context.Context, userID uint) ([]models.TokenAward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TokenAward, 0)
	for _, a := range s.awards {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListUnawardedCertificates(ctx context.Context) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Certificate, 0)
	for id, c := range s.certificates {
		if _, done := s.awards[id]; c.IsVerified && !done {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- LIKES ---

func (s *MemoryStore) LikeCertificate(ctx context.Context, userID, certificateID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certificates[certificateID]
	if !ok {
		return false, notFound("certificate", certificateID)
	}
	key := likeKey{userID: userID, certificateID: certificateID}
	if _, exists := s.likes[key]; exists {
		return false, nil
	}
	s.nextLikeID++
	s.likes[key] = &models.Like{
		ID:            s.nextLikeID,
		UserID:        userID,
		CertificateID: certificateID,
		CreatedAt:     s.now(),
	}
	c.LikesCount++
	return true, nil
}

func (s *MemoryStore) UnlikeCertificate(ctx context.Context, userID, certificateID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certificates[certificateID]
	if !ok {
		return false, notFound("certificate", certificateID)
	}
	key := likeKey{userID: userID, certificateID: certificateID}
	if _, exists := s.likes[key]; !exists {
		return false, nil
	}
	delete(s.likes, key)
	if c.LikesCount > 0 {
		c.LikesCount--
	}
	return true, nil
}

func (s *MemoryStore) GetLikes(ctx context.Context, certificateID uint) ([]models.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Like, 0)
	for _, l := range s.likes {
		if l.CertificateID == certificateID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) HasLiked(ctx context.Context, userID, certificateID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[likeKey{userID: userID, certificateID: certificateID}]
	return ok, nil
}

// --- COMMENTS ---

func (s *MemoryStore) AddComment(ctx context.Context, userID, certificateID uint, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	c, ok := s.certificates[certificateID]
	if !ok {
		return nil, notFound("certificate", certificateID)
	}
	s.nextCommentID++
	comment := &models.Comment{
		ID:            s.nextCommentID,
		UserID:        userID,
		CertificateID: certificateID,
		Content:       content,
		CreatedAt:     s.now(),
	}
	s.comments[comment.ID] = comment
	c.CommentsCount++

	cp := *comment
	cp.User = *u
	return &cp, nil
}

func (s *MemoryStore) GetComments(ctx context.Context, certificateID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.CertificateID != certificateID {
			continue
		}
		cp := *c
		if u, ok := s.users[c.UserID]; ok {
			cp.User = *u
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

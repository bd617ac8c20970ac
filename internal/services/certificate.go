package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"tokenup/internal/metrics"
	"tokenup/internal/models"
	"tokenup/internal/store"
	"tokenup/internal/utils"

	"github.com/rs/zerolog"
)

const (
	maxTitleLength       = 200
	maxIssuerLength      = 200
	maxDescriptionLength = 5000
	defaultFileType      = "image/jpeg"
	pdfFileType          = "application/pdf"
)

// CertificateService runs the certificate lifecycle: pending on creation,
// verified once by an admin, token value credited to the owner exactly once.
type CertificateService struct {
	store store.Store
	log   zerolog.Logger
}

func NewCertificateService(st store.Store, log zerolog.Logger) *CertificateService {
	return &CertificateService{store: st, log: log.With().Str("service", "certificate").Logger()}
}

// CreateCertificateInput is what an owner may submit. There is deliberately
// no token value field: it always comes from the type catalog.
type CreateCertificateInput struct {
	Title           string
	Issuer          string
	ImageURL        string
	Description     string
	CertificateType string
	FileType        string
	IsPDF           bool
}

func (in *CreateCertificateInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Issuer = strings.TrimSpace(in.Issuer)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Description = strings.TrimSpace(in.Description)
	in.CertificateType = strings.TrimSpace(in.CertificateType)
	in.FileType = strings.ToLower(strings.TrimSpace(in.FileType))
	if in.FileType == "" {
		in.FileType = defaultFileType
	}
	if in.FileType == pdfFileType {
		in.IsPDF = true
	}
}

func (in *CreateCertificateInput) validate() (models.CertificateType, error) {
	switch {
	case in.Title == "":
		return models.CertificateType{}, invalid("title", "is required")
	case utf8.RuneCountInString(in.Title) > maxTitleLength:
		return models.CertificateType{}, invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	case in.Issuer == "":
		return models.CertificateType{}, invalid("issuer", "is required")
	case utf8.RuneCountInString(in.Issuer) > maxIssuerLength:
		return models.CertificateType{}, invalid("issuer", fmt.Sprintf("must be at most %d characters", maxIssuerLength))
	case in.ImageURL == "":
		return models.CertificateType{}, invalid("imageUrl", "is required")
	case utf8.RuneCountInString(in.Description) > maxDescriptionLength:
		return models.CertificateType{}, invalid("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
	}
	ct, ok := models.LookupCertificateType(in.CertificateType)
	if !ok {
		return models.CertificateType{}, invalid("certificateType", fmt.Sprintf("unknown certificate type %q", in.CertificateType))
	}
	return ct, nil
}

// Create validates the submission and stores a pending certificate.
func (s *CertificateService) Create(ctx context.Context, ownerID uint, in CreateCertificateInput) (*models.Certificate, error) {
	in.normalize()
	ct, err := in.validate()
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}

	cert := &models.Certificate{
		UserID:          ownerID,
		Title:           in.Title,
		Issuer:          in.Issuer,
		ImageURL:        in.ImageURL,
		Description:     in.Description,
		CertificateType: ct.Type,
		TokenValue:      ct.Value,
		FileType:        in.FileType,
		IsPDF:           in.IsPDF,
	}
	if err := s.store.CreateCertificate(ctx, cert); err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	metrics.CertificatesCreated.WithLabelValues(ct.Type).Inc()
	s.log.Info().
		Uint("certificate_id", cert.ID).
		Uint("user_id", ownerID).
		Str("type", ct.Type).
		Msg("certificate submitted")
	return decorate(cert), nil
}

func (s *CertificateService) Get(ctx context.Context, id uint) (*models.Certificate, error) {
	cert, err := s.store.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	return decorate(cert), nil
}

// List returns every certificate, or only the owner's when ownerID is set.
func (s *CertificateService) List(ctx context.Context, ownerID *uint) ([]models.Certificate, error) {
	certs, err := s.store.GetCertificates(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range certs {
		decorate(&certs[i])
	}
	return certs, nil
}

// VerifyResult carries both sides of a verification so the caller can
// refresh the owner's balance.
type VerifyResult struct {
	Certificate *models.Certificate `json:"certificate"`
	User        *models.User        `json:"user"`
}

// Verify flags the certificate, then awards its tokens. The flag is written
// first; if the award write fails the certificate stays verified without a
// ledger entry and a later Verify or Reconcile pays it out once.
func (s *CertificateService) Verify(ctx context.Context, actor *models.User, id uint) (*VerifyResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	cert, changed, err := s.store.VerifyCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.CertificatesVerified.Inc()
		s.log.Info().
			Uint("certificate_id", cert.ID).
			Uint("admin_id", actor.ID).
			Msg("certificate verified")
	}

	owner, awarded, err := award(ctx, s.store, cert, ActionCertificateVerified)
	if err != nil {
		metrics.AwardFailures.Inc()
		s.log.Error().Err(err).
			Uint("certificate_id", cert.ID).
			Msg("token award failed, left for reconciliation")
		return nil, fmt.Errorf("award tokens for certificate %d: %w", cert.ID, err)
	}
	if awarded {
		s.log.Info().
			Uint("certificate_id", cert.ID).
			Uint("user_id", owner.ID).
			Int("tokens", cert.TokenValue).
			Bool("redriven", !changed).
			Msg("tokens awarded")
	}

	return &VerifyResult{Certificate: decorate(cert), User: owner}, nil
}

// ReconcileResult summarizes one reconciliation sweep.
type ReconcileResult struct {
	Checked int `json:"checked"`
	Awarded int `json:"awarded"`
	Failed  int `json:"failed"`
}

// Reconcile awards every verified certificate that has no ledger entry.
// Failures are counted and logged; the sweep continues.
func (s *CertificateService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	pending, err := s.store.ListUnawardedCertificates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unawarded certificates: %w", err)
	}

	res := &ReconcileResult{Checked: len(pending)}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cert := &pending[i]
		_, awarded, err := award(ctx, s.store, cert, ActionReconciled)
		if err != nil {
			res.Failed++
			s.log.Error().Err(err).Uint("certificate_id", cert.ID).Msg("reconcile award failed")
			continue
		}
		if awarded {
			res.Awarded++
		}
	}

	if res.Checked > 0 {
		s.log.Info().
			Int("checked", res.Checked).
			Int("awarded", res.Awarded).
			Int("failed", res.Failed).
			Msg("token reconciliation finished")
	}
	return res, nil
}

func decorate(cert *models.Certificate) *models.Certificate {
	cert.DescriptionHTML = utils.RenderMarkdown(cert.Description)
	return cert
}

func requireAdmin(actor *models.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

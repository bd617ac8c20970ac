package services

import (
	"context"
	"fmt"
	"time"

	"tokenup/internal/models"
	"tokenup/internal/store"
	"tokenup/internal/utils"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const dayLayout = "2006-01-02"

// ReporterOptions configures leaderboard limits and the analytics window.
type ReporterOptions struct {
	DefaultLimit int
	MaxLimit     int
	Days         int
	Location     *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Reporter computes read only rollups on every call. Nothing is cached.
type Reporter struct {
	store store.Store
	log   zerolog.Logger
	opts  ReporterOptions
}

func NewReporter(st store.Store, log zerolog.Logger, opts ReporterOptions) *Reporter {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reporter{store: st, log: log.With().Str("service", "reporter").Logger(), opts: opts}
}

// Leaderboard returns the top users by balance. A non-positive limit means
// the default; anything above the maximum is clamped.
func (r *Reporter) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = r.opts.DefaultLimit
	}
	if limit > r.opts.MaxLimit {
		limit = r.opts.MaxLimit
	}
	return r.store.GetTopUsers(ctx, limit)
}

type TypeCount struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type BucketCount struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type DailyActivity struct {
	Date          string `json:"date"`
	Certificates  int    `json:"certificates"`
	Verifications int    `json:"verifications"`
	Signups       int    `json:"signups"`
}

type TotalStats struct {
	TotalCertificates    int `json:"totalCertificates"`
	VerifiedCertificates int `json:"verifiedCertificates"`
	TotalTokensAwarded   int `json:"totalTokensAwarded"`
	ActiveUsers          int `json:"activeUsers"`
}

type AnalyticsReport struct {
	CertificateTypeDistribution []TypeCount     `json:"certificateTypeDistribution"`
	TokenDistribution           []BucketCount   `json:"tokenDistribution"`
	DailyActivity               []DailyActivity `json:"dailyActivity"`
	TotalStats                  TotalStats      `json:"totalStats"`
}

// Analytics is admin only.
func (r *Reporter) Analytics(ctx context.Context, actor *models.User) (*AnalyticsReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		users []models.User
		certs []models.Certificate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if users, err = r.store.ListUsers(gctx); err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if certs, err = r.store.GetCertificates(gctx, nil); err != nil {
			return fmt.Errorf("list certificates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		r.log.Error().Err(err).Msg("analytics load failed")
		return nil, err
	}

	return BuildAnalytics(users, certs, r.opts.Now(), r.opts.Location, r.opts.Days), nil
}

// BuildAnalytics is the pure rollup behind Analytics. Daily rows cover the
// days window ending on now's calendar date in loc, oldest first.
func BuildAnalytics(users []models.User, certs []models.Certificate, now time.Time, loc *time.Location, days int) *AnalyticsReport {
	report := &AnalyticsReport{
		CertificateTypeDistribution: []TypeCount{},
		TokenDistribution:           make([]BucketCount, 0, 5),
		DailyActivity:               make([]DailyActivity, days),
	}

	byType := make(map[string]int)
	for _, c := range certs {
		byType[c.CertificateType]++
		report.TotalStats.TotalCertificates++
		if c.IsVerified {
			report.TotalStats.VerifiedCertificates++
		}
	}
	for _, ct := range models.CertificateTypes() {
		if n := byType[ct.Type]; n > 0 {
			report.CertificateTypeDistribution = append(report.CertificateTypeDistribution, TypeCount{Type: ct.Type, Label: ct.Label, Count: n})
		}
	}

	buckets := utils.TokenBuckets()
	counts := make([]int, len(buckets))
	for _, u := range users {
		counts[utils.TokenBucketIndex(u.TotalTokens)]++
		report.TotalStats.TotalTokensAwarded += u.TotalTokens
		if u.TotalTokens > 0 {
			report.TotalStats.ActiveUsers++
		}
	}
	for i, b := range buckets {
		report.TokenDistribution = append(report.TokenDistribution, BucketCount{Range: b.Label, Count: counts[i]})
	}

	today := now.In(loc)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-days+1).Format(dayLayout)
		report.DailyActivity[i].Date = date
		index[date] = i
	}
	for _, c := range certs {
		if i, ok := index[c.CreatedAt.In(loc).Format(dayLayout)]; ok {
			report.DailyActivity[i].Certificates++
			if c.IsVerified {
				report.DailyActivity[i].Verifications++
			}
		}
	}
	for _, u := range users {
		if i, ok := index[u.CreatedAt.In(loc).Format(dayLayout)]; ok {
			report.DailyActivity[i].Signups++
		}
	}

	return report
}

package services

import (
	"context"
	"fmt"
	"time"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// digestRoles are the officer queues reported by the digest job
var digestRoles = []domain.Role{domain.RoleARO, domain.RoleFAO, domain.RoleFDO}

// CronService runs the scheduled pending-queue digest
type CronService struct {
	apps  domain.ApplicationStore
	funds *FundService
	spec  string
	cron  *cron.Cron
	log   *zap.Logger
}

// NewCronService creates a new cron service. An empty spec disables the schedule.
func NewCronService(apps domain.ApplicationStore, funds *FundService, spec string, log *zap.Logger) *CronService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CronService{
		apps:  apps,
		funds: funds,
		spec:  spec,
		cron:  cron.New(),
		log:   log,
	}
}

// Start registers the digest job and starts the scheduler
func (s *CronService) Start() error {
	if s.spec == "" {
		s.log.Info("pending digest disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.RunDigest(ctx); err != nil {
			s.log.Error("pending digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid DIGEST_CRON %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.Info("pending digest scheduled", zap.String("spec", s.spec))
	return nil
}

// Stop waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
}

// RunDigest counts each officer queue, publishes the pending gauges and fund
// balances, and logs one summary line.
func (s *CronService) RunDigest(ctx context.Context) (map[domain.Role]int, error) {
	apps, err := s.apps.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	counts := make(map[domain.Role]int, len(digestRoles))
	fields := make([]zap.Field, 0, len(digestRoles))
	for _, role := range digestRoles {
		n := len(domain.PendingForRole(apps, role))
		counts[role] = n
		metrics.PendingApplications.WithLabelValues(string(role)).Set(float64(n))
		fields = append(fields, zap.Int(string(role), n))
	}

	if s.funds != nil {
		if err := s.funds.RefreshGauges(ctx); err != nil {
			s.log.Warn("fund gauges not refreshed", zap.Error(err))
		}
	}

	s.log.Info("pending digest", fields...)
	return counts, nil
}

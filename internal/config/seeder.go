package config

import (
	"context"
	"errors"
	"time"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seeder handles bootstrap data
type Seeder struct {
	store domain.Store
	cfg   *Config
	log   *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(store domain.Store, cfg *Config, log *zap.Logger) *Seeder {
	return &Seeder{store: store, cfg: cfg, log: log}
}

// Run executes all seeders. Individual seeders that fail are logged and skipped.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedAdminUser(ctx); err != nil {
		s.log.Warn("admin seeder skipped", zap.Error(err))
	}

	if s.cfg.IsDev() {
		if err := s.seedStaffUsers(ctx); err != nil {
			s.log.Warn("staff seeder skipped", zap.Error(err))
		}
		if err := s.seedFunds(ctx); err != nil {
			s.log.Warn("fund seeder skipped", zap.Error(err))
		}
	}
	return nil
}

// seedAdminUser creates the superadmin account when SEED_ADMIN_PASSWORD is set
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if s.cfg.Seed.AdminPassword == "" {
		s.log.Info("SEED_ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	return s.ensureUser(ctx, "admin", "Portal Administrator", domain.RoleSuperadmin, s.cfg.Seed.AdminPassword)
}

// seedStaffUsers creates one officer per staff role for local development
func (s *Seeder) seedStaffUsers(ctx context.Context) error {
	staff := []struct {
		username string
		fullName string
		role     domain.Role
	}{
		{"aro", "Application Review Officer", domain.RoleARO},
		{"fao", "Fund Allocation Officer", domain.RoleFAO},
		{"fdo", "Fund Disbursement Officer", domain.RoleFDO},
		{"student", "Demo Student", domain.RoleStudent},
	}
	for _, u := range staff {
		if err := s.ensureUser(ctx, u.username, u.fullName, u.role, "password123"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) ensureUser(ctx context.Context, username, fullName string, role domain.Role, plain string) error {
	_, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.store.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}
	s.log.Info("user seeded", zap.String("username", username), zap.String("role", string(role)))
	return nil
}

// seedFunds creates a demo fund for the current academic year
func (s *Seeder) seedFunds(ctx context.Context) error {
	funds, err := s.store.ListFunds(ctx)
	if err != nil {
		return err
	}
	if len(funds) > 0 {
		return nil
	}

	now := time.Now()
	year := now.Format("2006")
	fund := domain.Fund{
		ID:              "FUND-GENERAL-" + year,
		Name:            "General Bursary Fund",
		AcademicYear:    year,
		Amount:          decimal.NewFromInt(1000000),
		AllocatedAmount: decimal.Zero,
		DisbursedAmount: decimal.Zero,
		Status:          domain.FundActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateFund(ctx, fund); err != nil {
		return err
	}
	s.log.Info("fund seeded", zap.String("fund_id", fund.ID))
	return nil
}

package services

import (
	"context"
	"testing"
	"time"

	"bursary-portal/internal/adapters/persistence/memory"
	"bursary-portal/internal/config"
	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/jwt"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFundService(t *testing.T) {
	ctx := context.Background()
	svc := NewFundService(memory.New(), zaptest.NewLogger(t))

	_, err := svc.CreateFund(ctx, aro, CreateFundInput{Name: "General", AcademicYear: "2026", Amount: amount(1000)})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.CreateFund(ctx, fao, CreateFundInput{Name: "General", AcademicYear: "2026", Amount: amount(0)})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	precise := decimal.RequireFromString("1000.125")
	_, err = svc.CreateFund(ctx, fao, CreateFundInput{Name: "General", AcademicYear: "2026", Amount: &precise})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = svc.CreateFund(ctx, fao, CreateFundInput{Name: "General", AcademicYear: "2026", Amount: amount(10), Status: domain.FundClosed})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	fund, err := svc.CreateFund(ctx, fao, CreateFundInput{Name: " General ", AcademicYear: "2026", Amount: amount(250000)})
	require.NoError(t, err)
	assert.Regexp(t, `^FUND-[0-9A-F]{8}$`, fund.ID)
	assert.Equal(t, "General", fund.Name)
	assert.Equal(t, domain.FundActive, fund.Status)
	assert.True(t, fund.RemainingAmount.Equal(decimal.NewFromInt(250000)))

	_, err = svc.CreateFund(ctx, superadmin, CreateFundInput{ID: fund.ID, Name: "Dup", AcademicYear: "2026", Amount: amount(1)})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	funds, err := svc.ListFunds(ctx, fdo)
	require.NoError(t, err)
	assert.Len(t, funds, 1)

	_, err = svc.ListFunds(ctx, student)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	closed, err := svc.CloseFund(ctx, fao, fund.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FundClosed, closed.Status)

	_, err = svc.CloseFund(ctx, fdo, fund.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.GetFund(ctx, aro, "FUND-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, svc.RefreshGauges(ctx))
}

func TestDeadlineService(t *testing.T) {
	ctx := context.Background()
	svc := NewDeadlineService(memory.New(), zaptest.NewLogger(t))
	closes := time.Date(2026, 6, 30, 23, 59, 0, 0, time.UTC)
	opens := closes.AddDate(0, -3, 0)

	_, err := svc.SetDeadline(ctx, aro, SetDeadlineInput{AcademicYear: "2026", ClosesAt: &closes})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = svc.SetDeadline(ctx, superadmin, SetDeadlineInput{AcademicYear: "2026"})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = svc.SetDeadline(ctx, superadmin, SetDeadlineInput{AcademicYear: "2026", OpensAt: &closes, ClosesAt: &opens})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	d, err := svc.SetDeadline(ctx, superadmin, SetDeadlineInput{AcademicYear: "2026", OpensAt: &opens, ClosesAt: &closes})
	require.NoError(t, err)
	assert.Equal(t, superadmin.ID, d.UpdatedBy)
	assert.True(t, d.Accepts(opens.AddDate(0, 1, 0)))
	assert.False(t, d.Accepts(closes.Add(time.Minute)))
	assert.False(t, d.Accepts(opens.Add(-time.Minute)))

	all, err := svc.ListDeadlines(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserAndAuthServices(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	log := zaptest.NewLogger(t)
	users := NewUserService(store, log)
	auth := NewAuthService(store, config.JWTConfig{Secret: "test-secret", AccessTokenMins: 15}, log)

	_, err := users.CreateUser(ctx, aro, &CreateUserInput{Username: "fao1", Password: "password123", Role: "FAO"})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = users.CreateUser(ctx, superadmin, &CreateUserInput{Username: "fao1", Password: "short", Role: "FAO"})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = users.CreateUser(ctx, superadmin, &CreateUserInput{Username: "fao1", Password: "password123", Role: "treasurer"})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	created, err := users.CreateUser(ctx, superadmin, &CreateUserInput{Username: "fao1", Password: "password123", FullName: "Grace W.", Role: "FAO"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFAO, created.Role)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "password123", created.PasswordHash)

	_, err = users.CreateUser(ctx, superadmin, &CreateUserInput{Username: "FAO1", Password: "password123", Role: "FAO"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = auth.Login(ctx, &LoginInput{Username: "fao1", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = auth.Login(ctx, &LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	resp, err := auth.Login(ctx, &LoginInput{Username: " fao1 ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, 15*60, resp.ExpiresIn)

	claims, err := auth.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "FAO", claims.Role)

	_, err = jwt.ValidateAccessToken(resp.AccessToken, "other-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenInvalid)

	me, err := auth.Me(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "fao1", me.Username)

	_, err = users.SetActive(ctx, superadmin, superadmin.ID, false)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	updated, err := users.SetActive(ctx, superadmin, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = auth.Login(ctx, &LoginInput{Username: "fao1", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)

	list, err := users.ListUsers(ctx, superadmin)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCronService_RunDigest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.submitted(t)
	app := f.submitted(t)
	_, err := f.svc.Review(ctx, aro, app.ID, ReviewInput{Decision: DecisionApproved, ApprovedAmount: amount(1000), ForwardToFAO: true})
	require.NoError(t, err)

	cron := NewCronService(f.store, NewFundService(f.store, nil), "", zaptest.NewLogger(t))
	require.NoError(t, cron.Start())
	defer cron.Stop()

	counts, err := cron.RunDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Role]int{domain.RoleARO: 1, domain.RoleFAO: 1, domain.RoleFDO: 0}, counts)
}

func TestCronService_InvalidSpec(t *testing.T) {
	cron := NewCronService(memory.New(), nil, "not a cron spec", zaptest.NewLogger(t))
	assert.Error(t, cron.Start())
}

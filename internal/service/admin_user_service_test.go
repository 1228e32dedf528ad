package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

func setupAdminUserService(t *testing.T) (AdminUserService, *recordingRealtime, *countingNotifier, models.User) {
	t.Helper()
	db := newServiceTestDB(t)
	user := seedServiceUser(t, db, "jane@example.com", models.UserRoleUser)
	realtime := &recordingRealtime{}
	notifier := &countingNotifier{}
	svc := NewAdminUserService(repository.NewUserRepository(db), validator.New(), realtime, notifier, testLogger())
	return svc, realtime, notifier, user
}

func TestAdminUserServiceUpdateSanitisesAndNotifies(t *testing.T) {
	svc, realtime, notifier, user := setupAdminUserService(t)

	name := "<b>Jane</b> Doe"
	updated, err := svc.Update(context.Background(), user.ID, dto.AdminUserUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", updated.Name)
	require.Equal(t, user.Email, updated.Email, "fields not supplied stay unchanged")

	events := realtime.published(dto.EventUserUpdate)
	require.Len(t, events, 1)
	require.Equal(t, "update", events[0].payload.(dto.EntityUpdatePayload).Action)
	require.Equal(t, []string{StatsSourceUserUpdate}, notifier.calls())
}

func TestAdminUserServiceRejectsEmptyUpdate(t *testing.T) {
	svc, _, notifier, user := setupAdminUserService(t)

	_, err := svc.Update(context.Background(), user.ID, dto.AdminUserUpdateRequest{})
	require.ErrorIs(t, err, ErrNothingToUpdate)
	require.Empty(t, notifier.calls())
}

func TestAdminUserServiceStatusValidation(t *testing.T) {
	svc, realtime, notifier, user := setupAdminUserService(t)

	_, err := svc.UpdateStatus(context.Background(), user.ID, dto.AdminUserStatusRequest{Status: "banned"})
	require.ErrorIs(t, err, ErrInvalidUserStatus)
	require.Empty(t, notifier.calls(), "failed mutations never publish")

	updated, err := svc.UpdateStatus(context.Background(), user.ID, dto.AdminUserStatusRequest{Status: "Suspended"})
	require.NoError(t, err)
	require.Equal(t, models.UserStatusSuspended, updated.Status)
	require.Equal(t, "status", realtime.published(dto.EventUserUpdate)[0].payload.(dto.EntityUpdatePayload).Action)
	require.Equal(t, []string{StatsSourceUserStatus}, notifier.calls())
}

func TestAdminUserServiceRoleAndDelete(t *testing.T) {
	svc, _, notifier, user := setupAdminUserService(t)

	_, err := svc.UpdateRole(context.Background(), user.ID, dto.AdminUserRoleRequest{Role: "superuser"})
	require.Error(t, err)

	updated, err := svc.UpdateRole(context.Background(), user.ID, dto.AdminUserRoleRequest{Role: "ADMIN"})
	require.NoError(t, err)
	require.Equal(t, models.UserRoleAdmin, updated.Role)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), user.ID), ErrUserNotFound)

	require.Equal(t, []string{StatsSourceUserRole, StatsSourceUserDelete}, notifier.calls())
}

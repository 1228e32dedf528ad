package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

type failingStatsRepo struct {
	repository.StatsRepository
	err error
}

func (r failingStatsRepo) CountCharts(context.Context) (int64, error) {
	return 0, r.err
}

func TestStatsSnapshotPropagatesCountFailure(t *testing.T) {
	db := newServiceTestDB(t)
	boom := errors.New("count failed")
	repo := failingStatsRepo{StatsRepository: repository.NewStatsRepository(db), err: boom}

	svc := newStatsService(repo, time.UTC, nil, testLogger())
	_, err := svc.Snapshot(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestStatsSnapshotIsIdempotentWithoutMutations(t *testing.T) {
	db := newServiceTestDB(t)
	owner := seedServiceUser(t, db, "owner@example.com", models.UserRoleUser)
	now := time.Now().UTC()
	bar := models.ChartTypeBar
	require.NoError(t, db.Create(&models.Dataset{Filename: "a.xlsx", UploadedBy: owner.ID, ChartType: &bar, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&models.UserLog{UserID: owner.ID, Action: models.UserLogActionUpload, CreatedAt: now}).Error)

	svc := newStatsService(repository.NewStatsRepository(db), time.UTC, func() time.Time { return now }, testLogger())

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, dto.StatsSnapshot{Users: 1, Files: 1, Charts: 1, Logs: 1, TodaysUploads: 1, TodaysLogs: 1}, first)
	require.True(t, first.Consistent())
}

func TestStatsSnapshotBucketsByCalendarDay(t *testing.T) {
	db := newServiceTestDB(t)
	owner := seedServiceUser(t, db, "owner@example.com", models.UserRoleUser)

	lateEvening := time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)
	earlyMorning := time.Date(2024, 5, 11, 0, 0, 1, 0, time.UTC)

	for _, at := range []time.Time{lateEvening, earlyMorning} {
		require.NoError(t, db.Create(&models.Dataset{Filename: "f.xlsx", UploadedBy: owner.ID, CreatedAt: at, UploadedAt: at}).Error)
		require.NoError(t, db.Create(&models.UserLog{UserID: owner.ID, Action: models.UserLogActionUpload, CreatedAt: at}).Error)
	}

	repo := repository.NewStatsRepository(db)
	clock := lateEvening
	svc := newStatsService(repo, time.UTC, func() time.Time { return clock }, testLogger())

	onFirstDay, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), onFirstDay.Files)
	require.Equal(t, int64(2), onFirstDay.TodaysUploads, "the later row is in the future but still on or after today's midnight")
	require.Equal(t, int64(2), onFirstDay.TodaysLogs)

	clock = earlyMorning.Add(time.Second)
	onSecondDay, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), onSecondDay.Files)
	require.Equal(t, int64(1), onSecondDay.TodaysUploads, "yesterday's upload drops out after midnight")
	require.Equal(t, int64(1), onSecondDay.TodaysLogs)
	require.True(t, onSecondDay.Consistent())
}

func TestStartOfDayUsesConfiguredLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	instant := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)

	require.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), StartOfDay(instant, time.UTC))
	require.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, jakarta), StartOfDay(instant, jakarta))
}

func TestLegacyLogStatsCountsFileHistory(t *testing.T) {
	db := newServiceTestDB(t)
	owner := seedServiceUser(t, db, "owner@example.com", models.UserRoleUser)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.FileHistory{Filename: "old.xlsx", UploadedBy: owner.ID, FileSize: 1, UploadedAt: now.Add(-24 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.FileHistory{Filename: "new.xlsx", UploadedBy: owner.ID, FileSize: 1, UploadedAt: now}).Error)
	require.NoError(t, db.Create(&models.UserLog{UserID: owner.ID, Action: models.UserLogActionUpload, CreatedAt: now}).Error)

	svc := newStatsService(repository.NewStatsRepository(db), time.UTC, func() time.Time { return now }, testLogger())
	stats, err := svc.LegacyLogStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, dto.LegacyLogStatsResponse{TodayLogs: 1, TotalLogs: 1, TodayUploads: 1, TotalUploads: 2}, stats)
}

func TestStatsSnapshotTodayAcrossTimezones(t *testing.T) {
	db := newServiceTestDB(t)
	owner := seedServiceUser(t, db, "owner@example.com", models.UserRoleUser)
	wib := time.FixedZone("WIB", 7*60*60)

	// 18:00 UTC on the 10th is 01:00 WIB on the 11th.
	storedUTC := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Dataset{Filename: "utc.xlsx", UploadedBy: owner.ID, CreatedAt: storedUTC, UploadedAt: storedUTC}).Error)
	// Written with a local offset: 16:30 UTC on the 10th, still yesterday in WIB.
	storedWIB := time.Date(2024, 5, 10, 23, 30, 0, 0, wib)
	require.NoError(t, db.Create(&models.UserLog{UserID: owner.ID, Action: models.UserLogActionUpload, CreatedAt: storedWIB}).Error)
	require.NoError(t, db.Create(&models.UserLog{UserID: owner.ID, Action: models.UserLogActionChartSave, CreatedAt: storedUTC}).Error)

	now := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	svc := newStatsService(repository.NewStatsRepository(db), wib, func() time.Time { return now }, testLogger())

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, dto.StatsSnapshot{Users: 1, Files: 1, Charts: 0, Logs: 2, TodaysUploads: 1, TodaysLogs: 1}, snapshot)
}

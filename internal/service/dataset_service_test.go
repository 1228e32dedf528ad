package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

func TestDatasetServiceSaveChartMeta(t *testing.T) {
	db := newServiceTestDB(t)
	owner := seedServiceUser(t, db, "owner@example.com", models.UserRoleUser)
	dataset := models.Dataset{Filename: "raw.xlsx", UploadedBy: owner.ID}
	require.NoError(t, db.Create(&dataset).Error)

	realtime := &recordingRealtime{}
	notifier := &countingNotifier{}
	svc := NewDatasetService(repository.NewDatasetRepository(db), validator.New(), realtime, notifier, testLogger())

	_, err := svc.SaveChartMeta(context.Background(), owner.ID, dto.ChartMetaRequest{ChartType: "bar", DatasetID: dataset.ID})
	require.Error(t, err, "title is required")

	_, err = svc.SaveChartMeta(context.Background(), owner.ID, dto.ChartMetaRequest{Title: "Sales", ChartType: "bar", DatasetID: dataset.ID + 99})
	require.ErrorIs(t, err, ErrDatasetNotFound)
	require.Empty(t, notifier.calls())

	x, y := "month", "total"
	resp, err := svc.SaveChartMeta(context.Background(), owner.ID, dto.ChartMetaRequest{
		Title:     "Monthly Sales",
		ChartType: "line",
		DatasetID: dataset.ID,
		Dataset:   dto.ChartDataset{XAxis: &x, YAxis: &y, Data: json.RawMessage(`[10,12]`)},
	})
	require.NoError(t, err)
	require.Equal(t, "Monthly Sales", resp.Filename)
	require.Equal(t, "line", resp.ChartType)

	full, err := svc.Get(context.Background(), dataset.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "month", *full.Dataset.XAxis)
	require.JSONEq(t, `[10,12]`, string(full.Dataset.Data))

	_, err = svc.Get(context.Background(), dataset.ID, owner.ID+1)
	require.ErrorIs(t, err, ErrDatasetNotFound)

	require.Len(t, realtime.published(dto.EventLogUpdate), 1)
	require.Equal(t, []string{StatsSourceChartSave}, notifier.calls())

	dashboard, err := svc.Dashboard(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), dashboard.TotalFiles)
	require.Equal(t, 1, dashboard.UniqueChartTypes)
	require.Len(t, dashboard.RecentUploads, 1)
}

func TestAdminContentServicePreviewDefaultsAndDelete(t *testing.T) {
	db := newServiceTestDB(t)
	owner := seedServiceUser(t, db, "owner@example.com", models.UserRoleUser)
	plain := models.Dataset{Filename: "plain.xlsx", UploadedBy: owner.ID, FileSize: 42}
	require.NoError(t, db.Create(&plain).Error)

	realtime := &recordingRealtime{}
	notifier := &countingNotifier{}
	repo := repository.NewDatasetRepository(db)
	svc := NewAdminContentService(repo, repository.NewActivityLogRepository(db), realtime, notifier, testLogger())

	preview, err := svc.ChartPreview(context.Background(), plain.ID)
	require.NoError(t, err)
	require.Equal(t, models.ChartTypeBar, preview.Type)
	require.Equal(t, "plain.xlsx", preview.Title)
	require.Equal(t, "X Axis", preview.XAxis)

	download, err := svc.Download(context.Background(), plain.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), download.Size)

	require.ErrorIs(t, svc.DeleteChart(context.Background(), plain.ID), ErrChartNotFound)
	require.Empty(t, notifier.calls())

	require.NoError(t, svc.DeleteFile(context.Background(), plain.ID))
	require.ErrorIs(t, svc.DeleteFile(context.Background(), plain.ID), ErrFileNotFound)

	events := realtime.published(dto.EventFileUpdate)
	require.Len(t, events, 1)
	require.Equal(t, "delete", events[0].payload.(dto.EntityUpdatePayload).Action)
	require.Equal(t, []string{StatsSourceFileDelete}, notifier.calls())
}

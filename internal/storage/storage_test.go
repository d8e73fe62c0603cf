package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

var _ service.Storage = (*SQLiteStorage)(nil)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testProducts() []*model.Product {
	done := model.NewProduct("MTR-1", "Молоток слесарный", "шт", "Инструмент")
	done.Row = 2
	done.Category = model.CategoryHammer
	done.DetectionConfidence = 0.5
	done.Status = model.StatusCompleted
	done.OKPD2Code = "25.73.30.123"
	done.NormalizedUnit = "штука"
	done.Comment = model.CommentNormalized
	done.ConfidenceScore = 0.9
	done.ProcessedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	done.Specifications = map[string]string{"length_mm": "320", "manufacturer": "Зубр"}

	failed := model.NewProduct("MTR-2", "Болт", "шт", "")
	failed.Row = 3
	failed.Status = model.StatusFailed
	failed.ErrorMessage = "research: oracle unavailable"

	return []*model.Product{done, failed}
}

func TestNewSQLiteStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mtr.db")
	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))

	version, err := store.schemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	run := &service.Run{
		ID:         "run-1",
		SourceFile: "mtr.xlsx",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Total:      2,
		Successful: 1,
		Failed:     1,
	}
	products := testProducts()
	require.NoError(t, store.SaveRun(ctx, run, products))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "mtr.xlsx", got.SourceFile)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, 1, got.Failed)

	loaded, err := store.GetRunProducts(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	first := loaded[0]
	assert.Equal(t, products[0].ID, first.ID)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, model.CategoryHammer, first.Category)
	assert.Equal(t, model.StatusCompleted, first.Status)
	assert.Equal(t, "25.73.30.123", first.OKPD2Code)
	assert.Equal(t, "штука", first.NormalizedUnit)
	assert.Equal(t, "Инструмент", first.CategoryName)
	assert.Equal(t, products[0].Specifications, first.Specifications)
	assert.True(t, first.ProcessedAt.Equal(products[0].ProcessedAt))
	assert.InDelta(t, 0.9, first.ConfidenceScore, 1e-9)

	second := loaded[1]
	assert.Equal(t, model.StatusFailed, second.Status)
	assert.Equal(t, "research: oracle unavailable", second.ErrorMessage)
	assert.True(t, second.ProcessedAt.IsZero())
	assert.Empty(t, second.Specifications)
}

func TestSaveRun_Replace(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	run := &service.Run{ID: "run-1", StartedAt: time.Now(), FinishedAt: time.Now(), Total: 2}
	require.NoError(t, store.SaveRun(ctx, run, testProducts()))

	run.Total = 1
	require.NoError(t, store.SaveRun(ctx, run, testProducts()[:1]))

	loaded, err := store.GetRunProducts(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
}

func TestSaveRun_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		run      *service.Run
		products []*model.Product
		target   error
	}{
		{name: "nil run", run: nil, target: ErrNilParameter},
		{name: "empty id", run: &service.Run{}, target: ErrInvalidRun},
		{name: "counters exceed total", run: &service.Run{ID: "r", Total: 1, Successful: 1, Failed: 1}, target: ErrInvalidRun},
		{name: "nil product", run: &service.Run{ID: "r", Total: 1}, products: []*model.Product{nil}, target: ErrNilParameter},
		{name: "product without id", run: &service.Run{ID: "r", Total: 1}, products: []*model.Product{{}}, target: ErrEmptyString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveRun(ctx, tt.run, tt.products), tt.target)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store := createTestStorage(t)
	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveRun(ctx, &service.Run{ID: id, StartedAt: start, FinishedAt: start}, nil))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestResearchCache(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetResearch(ctx, "Молоток")
	require.ErrorIs(t, err, common.ErrNotFound)

	research := &model.ResearchOutcome{
		Manufacturer:   "Зубр",
		Model:          "20025",
		ProductType:    "молоток",
		Specifications: map[string]string{"length_mm": "320"},
		Sources:        []string{"https://zubr.ru"},
		Confidence:     0.8,
	}
	require.NoError(t, store.SaveResearch(ctx, "Молоток", model.CategoryHammer, research))

	got, err := store.GetResearch(ctx, "Молоток")
	require.NoError(t, err)
	assert.Equal(t, research, got)

	_, err = store.GetResearch(ctx, "Молоток")
	require.NoError(t, err)
	count, err := store.ResearchUseCount(ctx, "Молоток")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	research.Manufacturer = "Stayer"
	require.NoError(t, store.SaveResearch(ctx, "Молоток", model.CategoryHammer, research))
	got, err = store.GetResearch(ctx, "Молоток")
	require.NoError(t, err)
	assert.Equal(t, "Stayer", got.Manufacturer)

	count, err = store.ResearchUseCount(ctx, "Молоток")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "updates keep the use count")
}

func TestSaveResearch_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	assert.ErrorIs(t, store.SaveResearch(ctx, "", model.CategoryHammer, &model.ResearchOutcome{}), ErrEmptyString)
	assert.ErrorIs(t, store.SaveResearch(ctx, "x", model.CategoryHammer, nil), ErrNilParameter)

	require.NoError(t, store.SaveResearch(ctx, "x", model.CategoryHammer, &model.ResearchOutcome{}))
	got, err := store.GetResearch(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, got.Specifications)
	assert.Empty(t, got.Sources)
}

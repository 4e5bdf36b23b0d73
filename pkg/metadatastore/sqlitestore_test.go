package metadatastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(name string, created time.Time) *models.MLModel {
	return &models.MLModel{
		ID:              uuid.New().String(),
		Name:            name,
		Type:            models.ModelTypeRandomForest,
		Status:          models.ModelStatusTrained,
		Hyperparameters: map[string]float64{"n_estimators": 100},
		CVScore:         0.91,
		PerformanceMetrics: &models.PerformanceMetrics{
			Accuracy:        0.9,
			ConfusionMatrix: [][]int{{40, 5}, {5, 50}},
		},
		Features:  []string{"amount", "apr"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSaveAndGetMLModel(t *testing.T) {
	store := newStore(t)
	m := record("random_forest", time.Now())
	require.NoError(t, store.SaveMLModel(m))
	assert.Equal(t, 1, m.Version)

	got, err := store.GetMLModel(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.Hyperparameters, got.Hyperparameters)
	assert.Equal(t, m.PerformanceMetrics.ConfusionMatrix, got.PerformanceMetrics.ConfusionMatrix)
	assert.Equal(t, 1, got.Version)
}

func TestVersionsIncreasePerName(t *testing.T) {
	store := newStore(t)
	base := time.Now().Add(-time.Hour)

	first := record("random_forest", base)
	second := record("random_forest", base.Add(time.Minute))
	other := record("logistic_regression", base.Add(2*time.Minute))
	for _, m := range []*models.MLModel{first, second, other} {
		require.NoError(t, store.SaveMLModel(m))
	}
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 1, other.Version)

	latest, err := store.GetLatestMLModel("random_forest")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	byName, err := store.ListMLModelsByName("random_forest")
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, second.ID, byName[0].ID)

	all, err := store.ListMLModels()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)
}

func TestSaveReplacesExistingRecord(t *testing.T) {
	store := newStore(t)
	m := record("decision_tree", time.Now())
	m.Status = models.ModelStatusTraining
	require.NoError(t, store.SaveMLModel(m))

	m.Status = models.ModelStatusTrained
	m.ModelArtifactPath = "/models/decision_tree.gob"
	require.NoError(t, store.SaveMLModel(m))

	got, err := store.GetMLModel(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusTrained, got.Status)
	assert.Equal(t, 1, got.Version)

	all, err := store.ListMLModels()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetMLModel("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetLatestMLModel("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteMLModel("missing"), ErrNotFound)
}

func TestDeleteMLModel(t *testing.T) {
	store := newStore(t)
	m := record("random_forest", time.Now())
	require.NoError(t, store.SaveMLModel(m))

	require.NoError(t, store.DeleteMLModel(m.ID))
	_, err := store.GetMLModel(m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRequiresID(t *testing.T) {
	store := newStore(t)
	m := record("random_forest", time.Now())
	m.ID = ""
	assert.Error(t, store.SaveMLModel(m))
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	m := record("random_forest", time.Now())
	require.NoError(t, store.SaveMLModel(m))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.GetMLModel(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestListRejectsCorruptRecord(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SaveMLModel(record("decision_tree", time.Now())))

	now := time.Now().UTC()
	_, err := store.db.Exec(`INSERT INTO ml_models (id, name, type, status, version, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, "broken", "decision_tree", "decision_tree", "trained", 2, now, now, "{not json")
	require.NoError(t, err)

	_, err = store.ListMLModels()
	assert.ErrorContains(t, err, "failed to unmarshal model")

	_, err = store.ListMLModelsByName("decision_tree")
	assert.ErrorContains(t, err, "failed to unmarshal model")
}

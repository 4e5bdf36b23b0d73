package metadatastore

import (
	"errors"

	"github.com/mimir-aip/credit-decision/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// MetadataStore persists the model registry: one record per training run
// describing what was trained, how it scored and where its artifact lives.
// The fitted pipelines themselves are kept by the artifact store.
type MetadataStore interface {
	SaveMLModel(model *models.MLModel) error
	GetMLModel(id string) (*models.MLModel, error)
	// GetLatestMLModel returns the most recently trained model with the
	// given name.
	GetLatestMLModel(name string) (*models.MLModel, error)
	ListMLModels() ([]*models.MLModel, error)
	ListMLModelsByName(name string) ([]*models.MLModel, error)
	DeleteMLModel(id string) error

	Close() error
}

package classifier

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultModelPath is the classifier.model_path used when none is configured.
const DefaultModelPath = "models/forgery_clf.json"

// LoadOrTrain returns the forest cached at path, training and writing the
// default forest when the file is missing or unreadable. created reports
// whether a new artifact was written. A non-nil error means the artifact
// could not be written; the returned forest is still usable.
func LoadOrTrain(path string) (f *Forest, created bool, err error) {
	if path != "" {
		if cached, loadErr := load(path); loadErr == nil {
			return cached, false, nil
		}
	}

	f = Default()
	if path == "" {
		return f, false, nil
	}
	if err := save(path, f); err != nil {
		return f, false, err
	}
	return f, true, nil
}

func load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &f, nil
}

func save(path string, f *Forest) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Store is a Classifier backed by the on-disk forest artifact. The artifact
// is loaded, or created, on the first Probability call.
type Store struct {
	path   string
	logger *slog.Logger

	once  sync.Once
	model *Forest
}

// NewStore creates a lazily loaded classifier. An empty path keeps the model
// in memory only.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Model returns the loaded forest, loading it on first use.
func (s *Store) Model() *Forest {
	s.once.Do(func() {
		f, created, err := LoadOrTrain(s.path)
		switch {
		case err != nil:
			s.logger.Warn("classifier artifact not persisted, using in-memory model",
				"path", s.path, "error", err)
		case created:
			s.logger.Info("classifier artifact created", "path", s.path, "trees", len(f.Trees))
		default:
			s.logger.Debug("classifier artifact loaded", "path", s.path)
		}
		s.model = f
	})
	return s.model
}

// Probability implements Classifier.
func (s *Store) Probability(st Stats) float64 {
	return s.Model().Probability(st)
}

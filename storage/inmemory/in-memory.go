package inmemory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/and161185/metricspush/model"
	"github.com/and161185/metricspush/storage"
)

type MemStorage struct {
	runners map[string]*model.Submission
	mu      sync.RWMutex
}

func NewMemStorage(ctx context.Context) *MemStorage {
	return &MemStorage{
		runners: make(map[string]*model.Submission),
	}
}

// Save replaces whatever the runner submitted before.
func (store *MemStorage) Save(ctx context.Context, s *model.Submission) error {
	if s.Runner == "" {
		return errors.New("save submission: empty runner")
	}
	cp := *s

	store.mu.Lock()
	defer store.mu.Unlock()
	store.runners[s.Runner] = &cp
	return nil
}

func (store *MemStorage) Get(ctx context.Context, runner string) (*model.Submission, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	s, ok := store.runners[runner]
	if !ok {
		return nil, storage.ErrRunnerNotFound
	}
	cp := *s
	return &cp, nil
}

// GetAll returns the submissions ordered by runner.
func (store *MemStorage) GetAll(ctx context.Context) ([]*model.Submission, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]*model.Submission, 0, len(store.runners))
	for _, s := range store.runners {
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Runner < result[j].Runner })
	return result, nil
}

func (store *MemStorage) SaveToFile(ctx context.Context, filePath string) error {
	subs, err := store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get submissions: %w", err)
	}

	if len(subs) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadFromFile restores a snapshot written by SaveToFile. A missing file is not an error.
func (store *MemStorage) LoadFromFile(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	var subs []*model.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return fmt.Errorf("failed to unmarshal submissions: %w", err)
	}

	for _, s := range subs {
		if err := store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to restore runner %s: %w", s.Runner, err)
		}
	}
	return nil
}

func (store *MemStorage) Ping(ctx context.Context) error {
	return nil
}

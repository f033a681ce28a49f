// Package storage defines how the receiver keeps accepted submissions.
package storage

import (
	"context"
	"errors"

	"github.com/and161185/metricspush/model"
)

var ErrRunnerNotFound = errors.New("runner not found")

// Storage keeps the latest submission of every runner.
type Storage interface {
	Save(ctx context.Context, s *model.Submission) error
	Get(ctx context.Context, runner string) (*model.Submission, error)
	GetAll(ctx context.Context) ([]*model.Submission, error)
	Ping(ctx context.Context) error
}

package rating

import (
	"context"
	"net/http"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/apperror"
)

const (
	MinScore = 1
	MaxScore = 5
)

var ErrInvalidScore = apperror.New(http.StatusBadRequest, "rating must be an integer between 1 and 5")

// Summary is the running mean of every score applied to one court.
type Summary struct {
	Mean  float64
	Count int
}

// Add folds one more score into the running mean.
// The mean is recomputed from mean*count so that the result for a fixed
// multiset of scores does not depend on the order they arrive in.
func (s Summary) Add(score int) Summary {
	next := s.Count + 1
	return Summary{
		Mean:  (s.Mean*float64(s.Count) + float64(score)) / float64(next),
		Count: next,
	}
}

func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Store persists a court's Summary. UpdateRating must run fn and write its
// result as one atomic step per court; concurrent callers for the same court
// observe each other's writes.
type Store interface {
	UpdateRating(ctx context.Context, courtID string, fn func(Summary) (Summary, error)) (Summary, error)
}

// Aggregator applies accepted review scores to a court's rating.
type Aggregator interface {
	Apply(ctx context.Context, courtID string, score int) (Summary, error)
}

type aggregator struct {
	store Store
}

func NewAggregator(store Store) Aggregator {
	return &aggregator{store: store}
}

func (a *aggregator) Apply(ctx context.Context, courtID string, score int) (Summary, error) {
	if !ValidScore(score) {
		return Summary{}, ErrInvalidScore
	}
	return a.store.UpdateRating(ctx, courtID, func(cur Summary) (Summary, error) {
		return cur.Add(score), nil
	})
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"rwscout/internal/model"
)

// Source is anything that can serve the restaurant list and filter vocabulary.
type Source interface {
	Restaurants(ctx context.Context, q Query) ([]model.Restaurant, error)
	Filters(ctx context.Context) (model.FilterVocabulary, error)
}

// Store holds the catalog for the lifetime of a session. Read-only after load.
type Store struct {
	restaurants []model.Restaurant
	vocabulary  model.FilterVocabulary
}

// NewStore builds a store, assigning each restaurant its catalog position as ID.
// Empty vocabulary dimensions are derived from the restaurants.
func NewStore(restaurants []model.Restaurant, vocab model.FilterVocabulary) *Store {
	rs := make([]model.Restaurant, len(restaurants))
	copy(rs, restaurants)
	for i := range rs {
		rs[i].ID = model.RestaurantID(i)
	}

	derived := DeriveVocabulary(rs)
	if len(vocab.Neighborhoods) == 0 {
		vocab.Neighborhoods = derived.Neighborhoods
	}
	if len(vocab.Boroughs) == 0 {
		vocab.Boroughs = derived.Boroughs
	}
	if len(vocab.Tags) == 0 {
		vocab.Tags = derived.Tags
	}
	if len(vocab.MealTypes) == 0 {
		vocab.MealTypes = derived.MealTypes
	}

	return &Store{restaurants: rs, vocabulary: vocab}
}

// Load fetches restaurants and vocabulary in parallel. Both must succeed.
// q is passed to the backend as a pre-filter; callers still filter client-side.
func Load(ctx context.Context, src Source, q Query) (*Store, error) {
	var (
		restaurants []model.Restaurant
		vocab       model.FilterVocabulary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := src.Restaurants(gctx, q)
		if err != nil {
			return err
		}
		restaurants = rs
		return nil
	})
	g.Go(func() error {
		v, err := src.Filters(gctx)
		if err != nil {
			return err
		}
		vocab = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}

	return NewStore(restaurants, vocab), nil
}

// LoadFile reads a restaurant list from a local JSON file in the backend's format
// and derives the vocabulary from it.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read catalog file: %w", model.ErrCatalogUnavailable, err)
	}
	var records []restaurantRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to parse catalog file: %w", model.ErrCatalogUnavailable, err)
	}
	return NewStore(toRestaurants(records), model.FilterVocabulary{}), nil
}

// Restaurants returns the catalog in load order. Callers must not modify the elements.
func (s *Store) Restaurants() []model.Restaurant {
	return s.restaurants
}

// Vocabulary returns the filter vocabulary.
func (s *Store) Vocabulary() model.FilterVocabulary {
	return s.vocabulary
}

// Len returns the catalog size.
func (s *Store) Len() int {
	return len(s.restaurants)
}

// DeriveVocabulary collects the distinct, sorted values of every filter dimension.
func DeriveVocabulary(restaurants []model.Restaurant) model.FilterVocabulary {
	neighborhoods := model.StringSet{}
	boroughs := model.StringSet{}
	tags := model.StringSet{}
	meals := model.StringSet{}

	for _, r := range restaurants {
		addNonEmpty(neighborhoods, r.Neighborhood)
		addNonEmpty(boroughs, r.Borough)
		for _, t := range r.Tags {
			addNonEmpty(tags, t)
		}
		for _, m := range r.MealTypes {
			addNonEmpty(meals, m)
		}
	}

	return model.FilterVocabulary{
		Neighborhoods: sortedOrNil(neighborhoods),
		Boroughs:      sortedOrNil(boroughs),
		Tags:          sortedOrNil(tags),
		MealTypes:     sortedOrNil(meals),
	}
}

func addNonEmpty(s model.StringSet, v string) {
	if strings.TrimSpace(v) != "" {
		s[v] = struct{}{}
	}
}

func sortedOrNil(s model.StringSet) []string {
	if len(s) == 0 {
		return nil
	}
	return s.Sorted()
}

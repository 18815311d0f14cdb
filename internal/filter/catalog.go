// Package filter holds the two pure filter stages: base criteria over the catalog,
// and availability toggles over probe results. Neither mutates its inputs.
package filter

import (
	"strings"

	"rwscout/internal/model"
)

// Catalog returns the restaurants matching every active dimension of c, in catalog order.
func Catalog(catalog []model.Restaurant, c model.FilterCriteria) []model.Restaurant {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]model.Restaurant, 0, len(catalog))
	for _, r := range catalog {
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		if len(c.Neighborhoods) > 0 && !c.Neighborhoods.Has(r.Neighborhood) {
			continue
		}
		if len(c.Boroughs) > 0 && !c.Boroughs.Has(r.Borough) {
			continue
		}
		if len(c.Cuisines) > 0 && !c.Cuisines.Intersects(r.Tags) {
			continue
		}
		if len(c.MealTypes) > 0 && !c.MealTypes.Intersects(r.MealTypes) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// IDs returns the identity of a filtered set: its restaurant IDs in order.
func IDs(restaurants []model.Restaurant) []model.RestaurantID {
	ids := make([]model.RestaurantID, len(restaurants))
	for i, r := range restaurants {
		ids[i] = r.ID
	}
	return ids
}

// SameIDs reports whether two identities are equal.
func SameIDs(a, b []model.RestaurantID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rwscout/internal/model"
)

func rowNames(m *RestaurantsModel) []string {
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.Name)
	}
	return out
}

func TestSortByStatusPutsAvailableFirst(t *testing.T) {
	m := NewRestaurantsModel(testRestaurants())
	m.SetResults(model.Results{
		0: model.Succeeded(nil),
		2: model.Succeeded([]model.Slot{{Time: "18:00"}}),
	}, model.DefaultTimeFrom, model.DefaultTimeTo)

	assert.True(t, m.JumpToColumn(7))
	m.SortActiveColumn(false)
	assert.Equal(t, []string{"Cote", "Altro Paradiso", "Bar Pisellino"}, rowNames(m))

	// results arriving later re-sort the rows
	m.SetResults(model.Results{
		0: model.Succeeded([]model.Slot{{Time: "19:00"}}),
		2: model.Succeeded(nil),
	}, model.DefaultTimeFrom, model.DefaultTimeTo)
	assert.Equal(t, []string{"Altro Paradiso", "Cote", "Bar Pisellino"}, rowNames(m))
}

func TestSetRowsKeepsSelection(t *testing.T) {
	rs := testRestaurants()
	m := NewRestaurantsModel(rs)
	m.MoveDown()
	m.MoveDown()
	sel, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, "Cote", sel.Name)

	m.SetRows([]model.Restaurant{rs[1], rs[2]})
	sel, _ = m.Selected()
	assert.Equal(t, "Cote", sel.Name)

	m.SetRows([]model.Restaurant{rs[0]})
	sel, _ = m.Selected()
	assert.Equal(t, "Altro Paradiso", sel.Name)
}

func TestFilterBySelectedValue(t *testing.T) {
	m := NewRestaurantsModel(testRestaurants())
	assert.True(t, m.JumpToColumn(5))
	assert.True(t, m.FilterBySelectedValue())
	assert.Equal(t, []string{"Altro Paradiso", "Cote"}, rowNames(m))
	assert.Contains(t, m.TableMeta(), `MEALS="Dinner"`)

	assert.True(t, m.ClearFilter())
	assert.Len(t, m.rows, 3)
	assert.False(t, m.ClearFilter())
}

func TestStatusColumnCannotBeValueFiltered(t *testing.T) {
	m := NewRestaurantsModel(testRestaurants())
	assert.True(t, m.JumpToColumn(7))
	assert.False(t, m.FilterBySelectedValue())
}

func TestHideColumnsKeepsOneVisible(t *testing.T) {
	m := NewRestaurantsModel(testRestaurants())
	hidden := 0
	for m.HideActiveColumn() {
		hidden++
	}
	assert.Equal(t, len(m.columns)-1, hidden)
	assert.Len(t, m.visibleColumnIndexes(), 1)

	m.ShowAllColumns()
	assert.Len(t, m.visibleColumnIndexes(), len(m.columns))
}

func TestPrefsRoundTripThroughModel(t *testing.T) {
	m := NewRestaurantsModel(testRestaurants())
	m.JumpToColumn(2)
	m.SortActiveColumn(true)
	m.JumpToColumn(3)
	m.HideActiveColumn()

	other := NewRestaurantsModel(testRestaurants())
	other.ApplyPrefs(m.Prefs())
	assert.Equal(t, m.Prefs(), other.Prefs())
	assert.Equal(t, rowNames(m), rowNames(other))
}

func TestStatusCell(t *testing.T) {
	m := NewRestaurantsModel(testRestaurants())
	m.SetResults(model.Results{
		0: model.Succeeded([]model.Slot{{Time: "12:00"}, {Time: "18:30"}}),
		2: model.Failed("failed to check"),
	}, "17:00", "20:00")

	rs := testRestaurants()
	assert.Contains(t, m.statusCell(rs[0]), "1 open")
	assert.Contains(t, m.statusCell(rs[1]), "no integration")
	assert.Contains(t, m.statusCell(rs[2]), "failed to check")
}

func TestPrefsStoreRoundTrip(t *testing.T) {
	store := prefsStore{path: t.TempDir() + "/nested/ui_prefs.json"}
	want := UIPreferences{Restaurants: TablePrefs{SortKey: "name", SortDesc: true, HiddenColumns: []string{"meals"}, ActiveColumn: "area"}}

	assert.NoError(t, store.save(want))
	assert.Equal(t, want, store.load())

	assert.Equal(t, UIPreferences{}, prefsStore{}.load())
	assert.NoError(t, prefsStore{}.save(want))
}

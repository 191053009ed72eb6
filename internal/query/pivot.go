package query

import (
	"fmt"
	"maps"
	"slices"

	"fantasy_nhl/ingestion/internal/models"

	json "github.com/goccy/go-json"
)

// dayKey is the JSON key of a HistoryRow's date; no series label may use it
const dayKey = "day"

// HistoryRow is one day of a multi-series chart: {"day": "...", "<series>": value, ...}
type HistoryRow struct {
	Day    models.Day
	Values map[string]float64
}

func (r HistoryRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for name, v := range r.Values {
		out[name] = v
	}
	out[dayKey] = r.Day
	return json.Marshal(out)
}

func (r *HistoryRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	dayRaw, ok := raw[dayKey]
	if !ok {
		return fmt.Errorf("history row without day")
	}
	if err := r.Day.UnmarshalJSON(dayRaw); err != nil {
		return err
	}
	delete(raw, dayKey)

	r.Values = make(map[string]float64, len(raw))
	for name, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("history value %q: %w", name, err)
		}
		r.Values[name] = f
	}
	return nil
}

// Pivot turns one point per (entity, day) into one row per day keyed by entity label.
// Entities without a name are labelled with fallbackFormat applied to their id.
func Pivot(points []models.SeriesPoint, fallbackFormat string) []HistoryRow {
	labels := seriesLabels(points, fallbackFormat)

	byDay := make(map[models.Day]map[string]float64)
	for _, p := range points {
		label := labels[p.EntityID]
		row, ok := byDay[p.Day]
		if !ok {
			row = make(map[string]float64)
			byDay[p.Day] = row
		}
		row[label] = p.Value
	}

	days := slices.SortedFunc(maps.Keys(byDay), func(a, b models.Day) int {
		return a.Time().Compare(b.Time())
	})

	rows := make([]HistoryRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, HistoryRow{Day: d, Values: byDay[d]})
	}
	return rows
}

// seriesLabels assigns each entity one label. A name shared by several entities, or
// equal to the day key, gets the entity id appended so no column is overwritten.
func seriesLabels(points []models.SeriesPoint, fallbackFormat string) map[int]string {
	base := make(map[int]string)
	owners := make(map[string]int)
	for _, p := range points {
		if _, ok := base[p.EntityID]; ok {
			continue
		}
		label := p.Name
		if label == "" {
			label = fmt.Sprintf(fallbackFormat, p.EntityID)
		}
		base[p.EntityID] = label
		owners[label]++
	}

	labels := make(map[int]string, len(base))
	for id, label := range base {
		if owners[label] > 1 || label == dayKey {
			label = fmt.Sprintf("%s (%d)", label, id)
		}
		labels[id] = label
	}
	return labels
}

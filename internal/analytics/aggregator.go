package analytics

import (
	"sort"

	"linkfolio/internal/events"
)

// MergeDimension folds separate click and view counts for one dimension into
// a single breakdown: values merged by name, zero-interaction entries
// dropped, sorted descending by total interactions with ties broken by value
// ascending. It is a pure function over its inputs and is used identically
// for all four dimensions.
func MergeDimension(clicks, views []events.ValueCount) []DimensionCount {
	merged := make(map[string]DimensionCount, len(clicks)+len(views))
	for _, c := range clicks {
		entry := merged[c.Name]
		entry.Name = c.Name
		entry.Clicks += c.Count
		merged[c.Name] = entry
	}
	for _, v := range views {
		entry := merged[v.Name]
		entry.Name = v.Name
		entry.Views += v.Count
		merged[v.Name] = entry
	}

	result := make([]DimensionCount, 0, len(merged))
	for _, entry := range merged {
		if entry.TotalInteractions() > 0 {
			result = append(result, entry)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].TotalInteractions(), result[j].TotalInteractions()
		if ti != tj {
			return ti > tj
		}
		return result[i].Name < result[j].Name
	})
	return result
}

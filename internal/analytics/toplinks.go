package analytics

import (
	"sort"

	"linkfolio/internal/events"
	"linkfolio/internal/links"
)

// RankLinks builds the full ranking over a user's link set: closed-month
// rollup clicks plus live window clicks merged additively, links without
// activity zero-filled, sorted descending by clicks with ties broken by link
// ID ascending.
func RankLinks(userLinks []links.Link, rollupClicks map[uint]int64, liveClicks []events.LinkCount) []LinkStat {
	liveByID := make(map[uint]int64, len(liveClicks))
	for _, lc := range liveClicks {
		liveByID[lc.LinkID] = lc.Count
	}

	ranked := make([]LinkStat, 0, len(userLinks))
	for _, link := range userLinks {
		ranked = append(ranked, LinkStat{
			ID:     link.ID,
			Title:  link.Title,
			URL:    link.URL,
			Clicks: rollupClicks[link.ID] + liveByID[link.ID],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Clicks != ranked[j].Clicks {
			return ranked[i].Clicks > ranked[j].Clicks
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// PaginateLinks returns one page of a ranking. Page and limit are clamped;
// pages past the end are empty, never an error.
func PaginateLinks(ranked []LinkStat, page, limit int) []LinkStat {
	page = ClampPage(page)
	limit = ClampLimit(limit)

	offset := (page - 1) * limit
	if offset >= len(ranked) {
		return []LinkStat{}
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end]
}

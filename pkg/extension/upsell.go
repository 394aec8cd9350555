// Package extension provides extension points for Linkfolio paid features.
// The free version uses this to describe upgrade prompts when a request hits
// a plan gate. Paid builds register their routes at startup to unlock them.
package extension

import (
	"linkfolio/internal/timerange"
)

// UpgradeInfo contains information for displaying upgrade prompts
type UpgradeInfo struct {
	Feature     string `json:"feature"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UpgradeURL  string `json:"upgradeUrl"`
	Price       string `json:"price"`
}

// RangeUpgrade returns the upgrade prompt for an analytics range that the
// caller's plan does not cover. Returns nil for ranges every plan has.
func RangeUpgrade(token timerange.Token) *UpgradeInfo {
	switch token {
	case timerange.Range90d:
		return &UpgradeInfo{
			Feature:     "analytics_90d",
			Title:       "90-Day Analytics is a Basic Feature",
			Description: "See how your profile performed over the last quarter.",
			UpgradeURL:  "https://linkfolio.app/#pricing",
			Price:       "$5/month",
		}
	case timerange.Range365d:
		return &UpgradeInfo{
			Feature:     "analytics_365d",
			Title:       "Yearly Analytics is a Pro Feature",
			Description: "Track a full year of profile views and link clicks.",
			UpgradeURL:  "https://linkfolio.app/#pricing",
			Price:       "$12/month",
		}
	case timerange.RangeAll:
		return &UpgradeInfo{
			Feature:     "analytics_all",
			Title:       "All-Time Analytics is an Ultra Feature",
			Description: "Your complete history, powered by monthly rollups for instant loads.",
			UpgradeURL:  "https://linkfolio.app/#pricing",
			Price:       "$25/month",
		}
	default:
		return nil
	}
}

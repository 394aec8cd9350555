// Package events holds the raw event relations and the read-only accessor
// queries over them. Events are written by upstream ingestion and never
// mutated here.
package events

import (
	"time"
)

// Sentinel dimension values as stored on events. Empty country and referrer
// columns are legal; queries normalize the former and handlers humanize the
// latter.
const (
	UnknownCountry = "unknown"
	DirectReferrer = ""
)

// ViewEvent records one profile view, scoped directly to the profile owner.
type ViewEvent struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index:idx_view_events_user_time,priority:1;not null"`
	OccurredAt time.Time `gorm:"index:idx_view_events_user_time,priority:2;type:datetime;not null"`
	Device     string    `gorm:"not null;default:''"`
	UserAgent  string    `gorm:"not null;default:''"`
	Country    string    `gorm:"not null;default:''"`
	Referrer   string    `gorm:"not null;default:''"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// ClickEvent records one click on a link. Ownership is indirect: clicks are
// scoped to a user through the links relation.
type ClickEvent struct {
	ID         uint      `gorm:"primaryKey"`
	LinkID     uint      `gorm:"index:idx_click_events_link_time,priority:1;not null"`
	OccurredAt time.Time `gorm:"index:idx_click_events_link_time,priority:2;type:datetime;not null"`
	Device     string    `gorm:"not null;default:''"`
	UserAgent  string    `gorm:"not null;default:''"`
	Country    string    `gorm:"not null;default:''"`
	Referrer   string    `gorm:"not null;default:''"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// DayCount is one day bucket of a grouped count query.
type DayCount struct {
	Date  string
	Count int64
}

// ValueCount is one dimension value with its event count.
type ValueCount struct {
	Name  string
	Count int64
}

// LinkCount is one link with its click count.
type LinkCount struct {
	LinkID uint
	Count  int64
}

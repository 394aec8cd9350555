// Package useragent classifies raw user agent strings into a closed set of
// operating system categories. The same rule table drives both the in-process
// classifier and the SQL CASE expression used for aggregation pushdown, so the
// two backends cannot drift apart.
package useragent

import (
	"fmt"
	"strings"
)

// OS categories reported by the analytics breakdowns.
const (
	OSiOS     = "ios"
	OSAndroid = "android"
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSLinux   = "linux"
	OSUnknown = "unknown"
)

// osRule binds a category to the substring patterns that identify it. A rule
// matches when any of its groups matches; a group matches when every
// substring in it occurs in the lowercased user agent. Rules are evaluated in
// order, first match wins.
type osRule struct {
	category string
	groups   [][]string
}

// Apple reports mobile Safari on iPads as "Mac OS X" with a mobile marker,
// hence the two-substring group under ios. The macos rule must come after
// android/windows so a desktop UA mentioning "Mac OS X" inside a quoted
// engine string does not shadow them.
var osRules = []osRule{
	{OSiOS, [][]string{{"iphone"}, {"ipad"}, {"ipod"}, {"mac os x", "mobile"}}},
	{OSAndroid, [][]string{{"android"}}},
	{OSWindows, [][]string{{"windows"}}},
	{OSMacOS, [][]string{{"macintosh"}, {"mac os x"}}},
	{OSLinux, [][]string{{"linux"}, {"x11"}}},
}

// ClassifyOS maps a user agent string to exactly one OS category.
func ClassifyOS(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, rule := range osRules {
		for _, group := range rule.groups {
			if containsAll(ua, group) {
				return rule.category
			}
		}
	}
	return OSUnknown
}

func containsAll(ua string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(ua, sub) {
			return false
		}
	}
	return true
}

// OSCaseExpression renders the rule table as a SQLite CASE expression over the
// given column, producing the same category for any user agent as ClassifyOS.
// LOWER plus LIKE mirrors the lowercase substring checks above.
func OSCaseExpression(column string) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, rule := range osRules {
		b.WriteString(" WHEN ")
		for gi, group := range rule.groups {
			if gi > 0 {
				b.WriteString(" OR ")
			}
			if len(group) > 1 {
				b.WriteString("(")
			}
			for si, sub := range group {
				if si > 0 {
					b.WriteString(" AND ")
				}
				fmt.Fprintf(&b, "LOWER(%s) LIKE '%%%s%%'", column, sub)
			}
			if len(group) > 1 {
				b.WriteString(")")
			}
		}
		fmt.Fprintf(&b, " THEN '%s'", rule.category)
	}
	fmt.Fprintf(&b, " ELSE '%s' END", OSUnknown)
	return b.String()
}

// Categories returns every category the classifier can produce, in precedence
// order with unknown last.
func Categories() []string {
	categories := make([]string, 0, len(osRules)+1)
	for _, rule := range osRules {
		categories = append(categories, rule.category)
	}
	return append(categories, OSUnknown)
}

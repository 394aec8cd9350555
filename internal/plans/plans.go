// Package plans gates analytics ranges by subscription tier. The allowance
// table lives in an embedded YAML file so tier changes stay declarative.
package plans

import (
	_ "embed"
	"fmt"
	"log"
	"sync"

	"gopkg.in/yaml.v3"

	"linkfolio/internal/timerange"
	"linkfolio/internal/users"
)

//go:embed plans.yml
var plansYAML []byte

var (
	allowedOnce sync.Once
	allowed     map[string]map[timerange.Token]bool
)

func allowanceTable() map[string]map[timerange.Token]bool {
	allowedOnce.Do(func() {
		var raw map[string][]string
		if err := yaml.Unmarshal(plansYAML, &raw); err != nil {
			log.Fatalf("plans: failed to parse embedded allowance table: %v", err)
		}
		allowed = make(map[string]map[timerange.Token]bool, len(raw))
		for plan, tokens := range raw {
			set := make(map[timerange.Token]bool, len(tokens))
			for _, t := range tokens {
				set[timerange.Token(t)] = true
			}
			allowed[plan] = set
		}
	})
	return allowed
}

// RangeNotPermittedError signals that the requested range exceeds the
// caller's effective plan. It carries the plan so the caller can render an
// upgrade prompt.
type RangeNotPermittedError struct {
	Plan  string
	Token timerange.Token
}

func (e *RangeNotPermittedError) Error() string {
	return fmt.Sprintf("range %s not permitted on plan %s", e.Token, e.Plan)
}

// AllowedRanges returns the ranges the plan may query, narrowest first.
// Unknown plans get the free allowance.
func AllowedRanges(plan string) []timerange.Token {
	set, ok := allowanceTable()[plan]
	if !ok {
		set = allowanceTable()[users.PlanFree]
	}
	var result []timerange.Token
	for _, token := range timerange.AllTokens() {
		if set[token] {
			result = append(result, token)
		}
	}
	return result
}

// Authorize checks a resolved range token against the effective plan. It runs
// before any store access so rejected requests do no aggregation work.
func Authorize(plan string, token timerange.Token) error {
	set, ok := allowanceTable()[plan]
	if !ok {
		set = allowanceTable()[users.PlanFree]
	}
	if !set[token] {
		return &RangeNotPermittedError{Plan: plan, Token: token}
	}
	return nil
}

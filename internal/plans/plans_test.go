package plans

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkfolio/internal/timerange"
	"linkfolio/internal/users"
)

func TestAuthorize(t *testing.T) {
	// Full truth table: plan x token.
	granted := map[string]map[timerange.Token]bool{
		users.PlanFree: {
			timerange.Range7d: true, timerange.Range30d: true,
		},
		users.PlanBasic: {
			timerange.Range7d: true, timerange.Range30d: true, timerange.Range90d: true,
		},
		users.PlanPro: {
			timerange.Range7d: true, timerange.Range30d: true,
			timerange.Range90d: true, timerange.Range365d: true,
		},
		users.PlanUltra: {
			timerange.Range7d: true, timerange.Range30d: true,
			timerange.Range90d: true, timerange.Range365d: true, timerange.RangeAll: true,
		},
	}

	for plan, allowedTokens := range granted {
		for _, token := range timerange.AllTokens() {
			err := Authorize(plan, token)
			if allowedTokens[token] {
				assert.NoError(t, err, "%s should allow %s", plan, token)
			} else {
				require.Error(t, err, "%s should reject %s", plan, token)

				var rangeErr *RangeNotPermittedError
				require.True(t, errors.As(err, &rangeErr))
				assert.Equal(t, plan, rangeErr.Plan)
				assert.Equal(t, token, rangeErr.Token)
			}
		}
	}
}

func TestAuthorizeUnknownPlan(t *testing.T) {
	// Unknown plans get the free allowance.
	assert.NoError(t, Authorize("enterprise", timerange.Range7d))
	assert.Error(t, Authorize("enterprise", timerange.Range90d))
}

func TestAllowedRanges(t *testing.T) {
	assert.Equal(t,
		[]timerange.Token{timerange.Range7d, timerange.Range30d},
		AllowedRanges(users.PlanFree))
	assert.Equal(t,
		timerange.AllTokens(),
		AllowedRanges(users.PlanUltra))
}

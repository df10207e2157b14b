package phases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOrderAndLookups(t *testing.T) {
	all := All()
	require.Len(t, all, 11)
	for i, info := range all {
		assert.Equal(t, Phase(i+1), info.Number)
	}

	info, ok := ByKey("letters")
	require.True(t, ok)
	assert.Equal(t, Letters, info.Number)
	assert.Equal(t, "Letters Issued", info.Long)

	_, ok = Lookup(12)
	assert.False(t, ok)
	assert.Equal(t, First, Clamp(0))
	assert.Equal(t, Last, Clamp(42))
	assert.Equal(t, "final_petition", FinalPetition.Key())
}

func TestResolveMonotonic(t *testing.T) {
	for current := First; current <= Last; current++ {
		statuses := Resolve(current, nil)
		currentCount := 0
		for _, s := range statuses {
			switch {
			case s.Number < current:
				assert.Equal(t, StatusCompleted, s.Status, "phase %d at current %d", s.Number, current)
			case s.Number == current:
				assert.Equal(t, StatusCurrent, s.Status)
				currentCount++
			default:
				assert.Equal(t, StatusPending, s.Status)
			}
		}
		assert.Equal(t, 1, currentCount)
	}
}

func TestResolveFlagTakesPrecedence(t *testing.T) {
	records := map[string]map[string]any{
		"hearing":     {"status": "complete"},
		"publication": {"status": "complete"},
		"bond":        {"status": 7},
		"letters":     nil,
	}
	statuses := Resolve(Publication, records)

	assert.Equal(t, StatusCompleted, statuses[Publication-1].Status)
	assert.Equal(t, StatusPending, statuses[Bond-1].Status)
	assert.Equal(t, StatusCompleted, statuses[Hearing-1].Status)
	assert.Equal(t, StatusPending, statuses[Letters-1].Status)

	completed, pct := Progress(statuses)
	assert.Equal(t, 4, completed)
	assert.Equal(t, 36, pct)
}

func TestResolveIdempotent(t *testing.T) {
	records := map[string]map[string]any{"filing": {"status": "complete"}}
	assert.Equal(t, Resolve(Bond, records), Resolve(Bond, records))
}

func TestCaseStatusValid(t *testing.T) {
	assert.True(t, CasePendingPayment.Valid())
	assert.False(t, CaseStatus("archived").Valid())
	assert.True(t, CaseCancelled.Terminal())
	assert.False(t, CaseOnHold.Terminal())
}

package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumns(t *testing.T) {
	persisted := []string{KeyColumn, "AAPL", "MSFT"}

	t.Run("union", func(t *testing.T) {
		p := resolveColumns(persisted, []string{"MSFT", "GOOG"}, false)
		assert.Equal(t, []string{"MSFT"}, p.Common)
		assert.Equal(t, []string{"GOOG"}, p.Added)
		assert.Empty(t, p.Dropped)
		assert.Equal(t, []string{"AAPL", "MSFT"}, p.Kept)
	})

	t.Run("prune", func(t *testing.T) {
		p := resolveColumns(persisted, []string{"MSFT", "GOOG"}, true)
		assert.Equal(t, []string{"AAPL"}, p.Dropped)
		assert.Equal(t, []string{"MSFT"}, p.Kept)
	})

	t.Run("subset adds nothing", func(t *testing.T) {
		p := resolveColumns(persisted, []string{"AAPL"}, false)
		assert.Empty(t, p.Added)
		assert.Equal(t, []string{"AAPL"}, p.Common)
	})

	t.Run("no table", func(t *testing.T) {
		p := resolveColumns(nil, []string{"AAPL"}, true)
		assert.Equal(t, []string{"AAPL"}, p.Added)
		assert.Empty(t, p.Kept)
	})
}

func TestUniqueKeys(t *testing.T) {
	update := []Date{d("2020-01-05"), d("2020-01-02"), d("2020-01-03"), d("2020-01-05"), d("2020-01-04")}
	existing := []Date{d("2020-01-01"), d("2020-01-02")}

	keys, dropped := uniqueKeys(update, existing)
	assert.Equal(t, []Date{d("2020-01-03"), d("2020-01-04"), d("2020-01-05")}, keys)
	assert.Equal(t, 2, dropped)

	keys, dropped = uniqueKeys(nil, existing)
	assert.Empty(t, keys)
	assert.Zero(t, dropped)
}

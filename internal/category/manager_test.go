package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerline/sync-agent/internal/localcache"
	"github.com/ledgerline/sync-agent/internal/notify"
)

func newTestManager(domain Domain) (*Manager, *localcache.Memory, *notify.Recorder) {
	cache := localcache.NewMemory()
	recorder := notify.NewRecorder()
	return NewManager(domain, cache, recorder, zap.NewNop()), cache, recorder
}

func TestAddAndList(t *testing.T) {
	m, _, recorder := newTestManager(DomainPurchase)

	require.NoError(t, m.Add("Raw Materials"))
	require.NoError(t, m.Add("Packaging"))

	assert.Equal(t, []string{"Raw Materials", "Packaging"}, m.List(), "insertion order preserved")
	assert.Equal(t, []string{"Packaging", "Raw Materials"}, m.Sorted())
	assert.Len(t, recorder.Successes(), 2)
}

func TestDuplicateRejectedCaseInsensitively(t *testing.T) {
	tests := []struct {
		name      string
		duplicate string
	}{
		{name: "exact", duplicate: "Packaging"},
		{name: "upper", duplicate: "PACKAGING"},
		{name: "mixed", duplicate: "pAcKaGiNg"},
		{name: "surrounding whitespace", duplicate: "  Packaging "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, recorder := newTestManager(DomainExpense)
			require.NoError(t, m.Add("Packaging"))

			err := m.Add(tt.duplicate)
			require.ErrorIs(t, err, ErrDuplicateCategory)
			assert.Len(t, m.List(), 1)
			assert.NotEmpty(t, recorder.Errors(), "duplicate rejection surfaces a user-facing message")
		})
	}
}

func TestEmptyNameRejected(t *testing.T) {
	m, _, _ := newTestManager(DomainPurchase)
	require.Error(t, m.Add("   "))
	assert.Empty(t, m.List())
}

func TestDomainsPersistIndependently(t *testing.T) {
	cache := localcache.NewMemory()
	logger := zap.NewNop()

	purchase := NewManager(DomainPurchase, cache, notify.NewRecorder(), logger)
	expense := NewManager(DomainExpense, cache, notify.NewRecorder(), logger)

	require.NoError(t, purchase.Add("Raw Materials"))
	require.NoError(t, expense.Add("Rent"))

	freshPurchase := NewManager(DomainPurchase, cache, notify.NewRecorder(), logger)
	require.NoError(t, freshPurchase.Load())
	assert.Equal(t, []string{"Raw Materials"}, freshPurchase.List())

	freshExpense := NewManager(DomainExpense, cache, notify.NewRecorder(), logger)
	require.NoError(t, freshExpense.Load())
	assert.Equal(t, []string{"Rent"}, freshExpense.List())
}

package category

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ledgerline/sync-agent/internal/localcache"
	"github.com/ledgerline/sync-agent/internal/notify"
	"go.uber.org/zap"
)

// ErrDuplicateCategory is returned synchronously when a name already exists
// under a case-insensitive comparison. No backend round-trip is made.
var ErrDuplicateCategory = errors.New("category already exists")

// Domain selects which category list a manager owns
type Domain string

const (
	DomainPurchase Domain = "purchase"
	DomainExpense  Domain = "expense"
)

func (d Domain) cacheKey() string {
	if d == DomainExpense {
		return localcache.KeyExpenseCategories
	}
	return localcache.KeyPurchaseCategories
}

// Manager keeps an append-only, case-insensitively deduplicated category
// list. Categories are a local-only feature: they persist through the
// snapshot cache and never sync to the backend.
type Manager struct {
	mu       sync.RWMutex
	domain   Domain
	names    []string
	cache    localcache.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewManager creates a category manager for one domain
func NewManager(domain Domain, cache localcache.Store, notifier notify.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		domain:   domain,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// Load restores the persisted list
func (m *Manager) Load() error {
	data, found, err := m.cache.Get(m.domain.cacheKey())
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("failed to parse %s categories: %w", m.domain, err)
	}

	m.mu.Lock()
	m.names = names
	m.mu.Unlock()
	return nil
}

func (m *Manager) persist() error {
	m.mu.RLock()
	data, err := json.Marshal(m.names)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode %s categories: %w", m.domain, err)
	}
	return m.cache.Put(m.domain.cacheKey(), data)
}

// Add appends a new category, rejecting case-insensitive duplicates
func (m *Manager) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		err := fmt.Errorf("category name is required")
		m.notifier.Error(err.Error())
		return err
	}

	m.mu.Lock()
	for _, existing := range m.names {
		if strings.EqualFold(existing, name) {
			m.mu.Unlock()
			m.notifier.Error(fmt.Sprintf("Category %q already exists", existing))
			return ErrDuplicateCategory
		}
	}
	m.names = append(m.names, name)
	m.mu.Unlock()

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to persist categories",
			zap.String("domain", string(m.domain)), zap.Error(err))
	}

	m.notifier.Success(fmt.Sprintf("Added %s category %q", m.domain, name))
	return nil
}

// List returns the categories in insertion order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

// Sorted returns the categories alphabetically, for display
func (m *Manager) Sorted() []string {
	names := m.List()
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
)

// Memory keeps everything in maps. It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	households map[string]Household
	history    []decimal.Decimal
	models     map[string]domain.Model
	modelOrder []string
	runs       []calculation.RunResult
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		households: make(map[string]Household),
		models:     make(map[string]domain.Model),
	}
}

// NewMemoryFromConfiguration loads the household, growth history and models
// of a parsed configuration
func NewMemoryFromConfiguration(cfg *domain.Configuration) (*Memory, error) {
	history, err := GrowthHistoryFromConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	m := NewMemory()
	m.PutHousehold(HouseholdFromConfiguration(cfg))
	m.SetGrowthHistory(history.Rates())
	for _, model := range cfg.Models {
		if err := m.SaveModel(context.Background(), model); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// PutHousehold stores or replaces a household
func (m *Memory) PutHousehold(h Household) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.households[h.Person.ID] = Household{
		Person:      h.Person,
		Investments: cloneInvestments(h.Investments),
		Debts:       cloneDebts(h.Debts),
	}
}

// SetGrowthHistory replaces the monthly growth table
func (m *Memory) SetGrowthHistory(rates []decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = slices.Clone(rates)
}

func (m *Memory) household(id string) (Household, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.households[id]
	if !ok {
		return Household{}, fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	return h, nil
}

func (m *Memory) GetPerson(_ context.Context, id string) (domain.Person, error) {
	h, err := m.household(id)
	return h.Person, err
}

func (m *Memory) FetchInvestmentAccounts(_ context.Context, personID string) ([]domain.InvestmentAccount, error) {
	h, err := m.household(personID)
	if err != nil {
		return nil, err
	}
	return openInvestments(h.Investments), nil
}

func (m *Memory) FetchDebtAccounts(_ context.Context, personID string) ([]domain.DebtAccount, error) {
	h, err := m.household(personID)
	if err != nil {
		return nil, err
	}
	return openDebts(h.Debts), nil
}

func (m *Memory) FetchHistoricalMonthlyGrowth(context.Context) ([]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.history) == 0 {
		return nil, fmt.Errorf("%w: no growth history loaded", domain.ErrDataIntegrity)
	}
	return slices.Clone(m.history), nil
}

func (m *Memory) FetchModel(_ context.Context, id string) (domain.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	model, ok := m.models[id]
	if !ok {
		return domain.Model{}, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	return model, nil
}

func (m *Memory) SaveModel(_ context.Context, model domain.Model) error {
	if model.ID == "" {
		return fmt.Errorf("%w: model id is required", domain.ErrConfiguration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[model.ID]; !ok {
		m.modelOrder = append(m.modelOrder, model.ID)
	}
	m.models[model.ID] = model
	return nil
}

// ListModels returns the models in the order they were first saved
func (m *Memory) ListModels(context.Context) ([]domain.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Model, 0, len(m.modelOrder))
	for _, id := range m.modelOrder {
		out = append(out, m.models[id])
	}
	return out, nil
}

func (m *Memory) SaveRunResult(_ context.Context, result calculation.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, result)
	return nil
}

// RunResults returns the saved runs of a model, oldest first
func (m *Memory) RunResults(_ context.Context, modelID string) ([]calculation.RunResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []calculation.RunResult
	for _, r := range m.runs {
		if r.ModelID == modelID {
			out = append(out, r)
		}
	}
	return out, nil
}

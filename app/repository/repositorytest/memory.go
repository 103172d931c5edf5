// Package repositorytest provides in-memory implementations of the repository
// interfaces for handler and service tests.
package repositorytest

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

// Store holds all in-memory state. Transactions snapshot the state and
// restore it when fn fails, nested transactions included.
type Store struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	plans    string
	settings *models.PaymentSettings
	aliases  map[string]models.AliasPayment // by account id
	history  []models.PaymentHistory

	// Fail, when set, is consulted before every write; a non-nil result is returned as the write error.
	Fail func(op string) error
	// Now stamps CreatedAt values.
	Now func() time.Time
}

type snapshot struct {
	accounts map[string]models.Account
	plans    string
	settings *models.PaymentSettings
	aliases  map[string]models.AliasPayment
	history  []models.PaymentHistory
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		aliases:  make(map[string]models.AliasPayment),
		Now:      time.Now,
	}
}

// Repositories returns a repository set backed by s.
func (s *Store) Repositories() *repository.Repositories {
	base := repository.Repositories{
		Account:         &accountRepo{s},
		Plan:            &planRepo{s},
		PaymentSettings: &settingsRepo{s},
		Alias:           &aliasRepo{s},
		PaymentHistory:  &historyRepo{s},
	}
	var repos *repository.Repositories
	repos = base.WithTx(func(fn func(*repository.Repositories) error) error {
		snap := s.snapshot()
		if err := fn(repos); err != nil {
			s.restore(snap)
			return err
		}
		return nil
	})
	return repos
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		accounts: make(map[string]models.Account, len(s.accounts)),
		plans:    s.plans,
		aliases:  make(map[string]models.AliasPayment, len(s.aliases)),
		history:  append([]models.PaymentHistory(nil), s.history...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.aliases {
		snap.aliases[k] = v
	}
	if s.settings != nil {
		cp := *s.settings
		snap.settings = &cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.plans = snap.plans
	s.settings = snap.settings
	s.aliases = snap.aliases
	s.history = snap.history
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

// PutAccount stores an account as-is.
func (s *Store) PutAccount(account models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
}

// Account returns a copy of the stored account.
func (s *Store) Account(id string) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

// SetRawPlans stores the plan document verbatim, malformed entries included.
func (s *Store) SetRawPlans(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = raw
}

// SetPaymentSettings stores the settings document.
func (s *Store) SetPaymentSettings(settings models.PaymentSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
}

// Aliases returns all pending aliases.
func (s *Store) Aliases() []models.AliasPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AliasPayment, 0, len(s.aliases))
	for _, a := range s.aliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// History returns the payment history in insertion order.
func (s *Store) History() []models.PaymentHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PaymentHistory(nil), s.history...)
}

type accountRepo struct{ s *Store }

func (r *accountRepo) GetByID(id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *accountRepo) List(offset, limit int) ([]models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]models.Account, 0, len(r.s.accounts))
	for _, a := range r.s.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, offset, limit), nil
}

func (r *accountRepo) Count() (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.accounts)), nil
}

func (r *accountRepo) Save(account *models.Account) error {
	if err := r.s.fail("account.save"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *accountRepo) UpdatePlan(id, planID string, expiration time.Time) error {
	if err := r.s.fail("account.update_plan"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil
	}
	a.CustomPlanID = &planID
	a.PlanExpiration = &expiration
	r.s.accounts[id] = a
	return nil
}

func (r *accountRepo) Delete(id string) error {
	if err := r.s.fail("account.delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.accounts, id)
	return nil
}

type planRepo struct{ s *Store }

func (r *planRepo) List() ([]models.Plan, int, error) {
	r.s.mu.Lock()
	raw := r.s.plans
	r.s.mu.Unlock()
	return repository.DecodePlanList(raw)
}

func (r *planRepo) ReplaceAll(plans []models.Plan) error {
	if err := r.s.fail("plan.replace_all"); err != nil {
		return err
	}
	raw, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.plans = string(raw)
	return nil
}

type settingsRepo struct{ s *Store }

func (r *settingsRepo) Get() (*models.PaymentSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.s.settings
	return &cp, nil
}

func (r *settingsRepo) Save(settings *models.PaymentSettings) error {
	if err := r.s.fail("payment_settings.save"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *settings
	r.s.settings = &cp
	return nil
}

type aliasRepo struct{ s *Store }

func (r *aliasRepo) Replace(alias *models.AliasPayment) error {
	if err := r.s.fail("alias.replace"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for accountID, existing := range r.s.aliases {
		if existing.Alias == alias.Alias && accountID != alias.AccountID {
			return gorm.ErrDuplicatedKey
		}
	}
	if alias.ID == "" {
		alias.ID = uuid.NewString()
	}
	if alias.CreatedAt.IsZero() {
		alias.CreatedAt = r.s.Now().UTC()
	}
	r.s.aliases[alias.AccountID] = *alias
	return nil
}

func (r *aliasRepo) GetByAccountID(accountID string) (*models.AliasPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.aliases[accountID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *aliasRepo) GetByAlias(value string) (*models.AliasPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.aliases {
		if a.Alias == value {
			cp := a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *aliasRepo) Consume(value string) (bool, error) {
	if err := r.s.fail("alias.consume"); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for accountID, a := range r.s.aliases {
		if a.Alias == value {
			delete(r.s.aliases, accountID)
			return true, nil
		}
	}
	return false, nil
}

func (r *aliasRepo) DeleteByAccountID(accountID string) error {
	if err := r.s.fail("alias.delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.aliases, accountID)
	return nil
}

type historyRepo struct{ s *Store }

func (r *historyRepo) Append(record *models.PaymentHistory) error {
	if err := r.s.fail("payment_history.append"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if record.RowID == "" {
		record.RowID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.s.Now().UTC()
	}
	r.s.history = append(r.s.history, *record)
	return nil
}

func (r *historyRepo) List(offset, limit int) ([]models.PaymentHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]models.PaymentHistory, len(r.s.history))
	for i, h := range r.s.history {
		all[len(all)-1-i] = h
	}
	return page(all, offset, limit), nil
}

func (r *historyRepo) ListByAccountID(accountID string) ([]models.PaymentHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PaymentHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].AccountID == accountID {
			out = append(out, r.s.history[i])
		}
	}
	return out, nil
}

func (r *historyRepo) Count() (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.history)), nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

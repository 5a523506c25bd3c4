package loan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/loan"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
)

// memGuard is an in-memory IdempotencyGuard with the same replay semantics as
// the database-backed one, minus the bounded-wait path.
type memGuard struct {
	mu      sync.Mutex
	records map[string]*shared.IdempotencyRecord
}

func newMemGuard() *memGuard {
	return &memGuard{records: make(map[string]*shared.IdempotencyRecord)}
}

func (g *memGuard) ExecuteOnce(ctx context.Context, key, fingerprint string, fn shared.OperationFunc) ([]byte, bool, error) {
	g.mu.Lock()
	if rec, ok := g.records[key]; ok {
		defer g.mu.Unlock()
		if rec.Fingerprint != fingerprint {
			return nil, false, shared.ErrDuplicateRequest
		}
		if rec.Status == shared.IdempotencyCompleted {
			return rec.ResultSnapshot, true, nil
		}
		return nil, false, shared.ErrConcurrentOperation
	}
	g.records[key] = &shared.IdempotencyRecord{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      shared.IdempotencyInProgress,
		CreatedAt:   time.Now(),
	}
	g.mu.Unlock()

	snapshot, err := fn(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		delete(g.records, key)
		return nil, false, err
	}
	now := time.Now()
	rec := g.records[key]
	rec.Status = shared.IdempotencyCompleted
	rec.ResultSnapshot = snapshot
	rec.CompletedAt = &now
	return snapshot, false, nil
}

func (g *memGuard) Clear(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, key)
	return nil
}

// memAccounts is an in-memory chart of accounts keyed by code
type memAccounts struct {
	byCode map[string]*ledger.Account
}

func newMemAccounts(orgID uuid.UUID, codes AccountCodes) *memAccounts {
	m := &memAccounts{byCode: make(map[string]*ledger.Account)}
	add := func(code, name string, t ledger.AccountType) {
		acc, _ := ledger.NewAccount(orgID, code, name, t)
		m.byCode[code] = acc
	}
	add(codes.Cash, "Cash", ledger.AccountTypeAsset)
	add(codes.LoanReceivable, "Loan Receivable", ledger.AccountTypeAsset)
	add(codes.InterestIncome, "Interest Income", ledger.AccountTypeRevenue)
	return m
}

func (m *memAccounts) Create(_ context.Context, account *ledger.Account) error {
	if _, ok := m.byCode[account.Code]; ok {
		return shared.ErrAlreadyExists
	}
	m.byCode[account.Code] = account
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*ledger.Account, error) {
	for _, acc := range m.byCode {
		if acc.ID == id {
			return acc, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memAccounts) FindByCode(_ context.Context, _ uuid.UUID, code string) (*ledger.Account, error) {
	acc, ok := m.byCode[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc, nil
}

func (m *memAccounts) FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*ledger.Account, error) {
	var out []*ledger.Account
	for _, id := range ids {
		if acc, err := m.FindByID(ctx, orgID, id); err == nil {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (m *memAccounts) ListActive(_ context.Context, _ uuid.UUID) ([]*ledger.Account, error) {
	var out []*ledger.Account
	for _, acc := range m.byCode {
		if acc.IsActive {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (m *memAccounts) Save(_ context.Context, account *ledger.Account) error {
	m.byCode[account.Code] = account
	return nil
}

// memJournals records posted entries
type memJournals struct {
	mu        sync.Mutex
	entries   []*ledger.JournalEntry
	failPosts int // fail the next N Create calls
}

func (m *memJournals) Create(_ context.Context, entry *ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPosts > 0 {
		m.failPosts--
		return shared.NewDomainError("DB_DOWN", "storage unavailable")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memJournals) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*ledger.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memJournals) FindByReference(_ context.Context, _ uuid.UUID, referenceType, referenceID string) ([]*ledger.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.JournalEntry
	for _, e := range m.entries {
		if e.ReferenceType == referenceType && e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memJournals) AccountBalances(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]ledger.AccountBalance, error) {
	return nil, nil
}

// memMovements stores movements by reference
type memMovements struct {
	mu    sync.Mutex
	byRef map[string]*payment.Movement
}

func newMemMovements() *memMovements {
	return &memMovements{byRef: make(map[string]*payment.Movement)}
}

func (m *memMovements) Create(_ context.Context, movement *payment.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRef[movement.ReferenceID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *movement
	m.byRef[movement.ReferenceID] = &cp
	return nil
}

func (m *memMovements) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*payment.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.byRef {
		if mv.ID == id {
			cp := *mv
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memMovements) FindByReference(_ context.Context, _ uuid.UUID, referenceID string) (*payment.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.byRef[referenceID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *mv
	return &cp, nil
}

func (m *memMovements) FindByExternalID(_ context.Context, externalID string) (*payment.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.byRef {
		if mv.ExternalID == externalID {
			cp := *mv
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memMovements) SaveWithLock(_ context.Context, movement *payment.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.byRef[movement.ReferenceID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != movement.Version {
		return shared.ErrConcurrencyConflict
	}
	movement.IncrementVersion()
	cp := *movement
	m.byRef[movement.ReferenceID] = &cp
	return nil
}

func (m *memMovements) FindStale(_ context.Context, cutoff time.Time, limit int) ([]*payment.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Movement
	for _, mv := range m.byRef {
		if mv.Status == payment.StatusPending && mv.CreatedAt.Before(cutoff) {
			cp := *mv
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// memLoans stores loans and their schedules
type memLoans struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*loan.Loan
	schedules map[uuid.UUID][]loan.Installment
}

func newMemLoans() *memLoans {
	return &memLoans{
		byID:      make(map[uuid.UUID]*loan.Loan),
		schedules: make(map[uuid.UUID][]loan.Installment),
	}
}

func (m *memLoans) Create(_ context.Context, l *loan.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[l.ID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memLoans) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*loan.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLoans) SaveWithLock(_ context.Context, l *loan.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.byID[l.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != l.Version {
		return shared.ErrConcurrencyConflict
	}
	l.IncrementVersion()
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memLoans) CreateSchedule(_ context.Context, loanID uuid.UUID, schedule []loan.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[loanID]; ok {
		return shared.ErrAlreadyExists
	}
	m.schedules[loanID] = append([]loan.Installment(nil), schedule...)
	return nil
}

func (m *memLoans) FindSchedule(_ context.Context, loanID uuid.UUID) ([]loan.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule, ok := m.schedules[loanID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]loan.Installment(nil), schedule...), nil
}

func (m *memLoans) SaveInstallment(_ context.Context, installment *loan.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule, ok := m.schedules[installment.LoanID]
	if !ok {
		return shared.ErrNotFound
	}
	for i := range schedule {
		if schedule[i].InstallmentNo == installment.InstallmentNo {
			schedule[i] = *installment
			return nil
		}
	}
	return shared.ErrNotFound
}

var (
	_ shared.IdempotencyGuard    = (*memGuard)(nil)
	_ ledger.AccountRepository   = (*memAccounts)(nil)
	_ ledger.JournalRepository   = (*memJournals)(nil)
	_ payment.MovementRepository = (*memMovements)(nil)
	_ loan.Repository            = (*memLoans)(nil)
)

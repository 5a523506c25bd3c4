// Package checkout implements the settlement saga for retail sales: lock
// funds and stock, settle the payment, post the journal entry, commit the
// holds. Every attempt runs under the operation guard, so client retries,
// webhook redeliveries and reconciliation sweeps all converge on one outcome.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/member"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/retail"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/telemetry"
)

// postRetries bounds how often the journal posting step is retried after the
// payment has already settled. Exhausting it leaves the movement settled but
// unposted, which needs operator attention; money state is never guessed at.
const postRetries = 3

// AccountCodes maps checkout events to chart-of-accounts codes
type AccountCodes struct {
	Cash         string
	Savings      string
	SalesRevenue string
	COGS         string
	Inventory    string
}

// Service runs the checkout settlement saga
type Service struct {
	guard        shared.IdempotencyGuard
	movements    payment.MovementRepository
	journals     ledger.JournalRepository
	accounts     ledger.AccountRepository
	savings      member.Repository
	stock        retail.StockRepository
	sales        retail.SaleOrderRepository
	providers    *payment.ProviderRegistry
	codes        AccountCodes
	providerName string
	intentExpiry time.Duration
	logger       *zap.Logger
}

// NewService creates a new checkout service
func NewService(
	guard shared.IdempotencyGuard,
	movements payment.MovementRepository,
	journals ledger.JournalRepository,
	accounts ledger.AccountRepository,
	savings member.Repository,
	stock retail.StockRepository,
	sales retail.SaleOrderRepository,
	providers *payment.ProviderRegistry,
	codes AccountCodes,
	providerName string,
	intentExpiry time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		guard:        guard,
		movements:    movements,
		journals:     journals,
		accounts:     accounts,
		savings:      savings,
		stock:        stock,
		sales:        sales,
		providers:    providers,
		codes:        codes,
		providerName: providerName,
		intentExpiry: intentExpiry,
		logger:       logger,
	}
}

// Input is one checkout request
type Input struct {
	OrderNumber    string         `json:"order_number" binding:"required"`
	MemberID       uuid.UUID      `json:"member_id" binding:"required"`
	ProductID      uuid.UUID      `json:"product_id" binding:"required"`
	Quantity       int64          `json:"quantity" binding:"required,min=1"`
	UnitPriceMinor int64          `json:"unit_price_minor" binding:"required,min=1"`
	Method         payment.Method `json:"method" binding:"required,payment_method"`
	IdempotencyKey string         `json:"-"`
}

// Result is the checkout outcome, stored as the operation's replay snapshot
type Result struct {
	OrderNumber   string            `json:"order_number"`
	MovementID    uuid.UUID         `json:"movement_id"`
	Status        payment.Status    `json:"status"`
	JournalID     *uuid.UUID        `json:"journal_id,omitempty"`
	ExternalID    string            `json:"external_id,omitempty"`
	PaymentIntent map[string]string `json:"payment_intent,omitempty"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

// Checkout runs the settlement saga for one sale.
//
// Internal methods (cash, savings balance) settle inline and return a posted
// result. External methods return a pending result carrying the payment
// intent; the webhook or reconciliation path finalizes them later. The whole
// call is idempotent per key: a retry replays the stored result.
func (s *Service) Checkout(ctx context.Context, opCtx shared.OperationContext, input Input) (*Result, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout.Checkout")
	defer span.End()

	if err := opCtx.Validate(); err != nil {
		return nil, false, err
	}
	if input.Quantity <= 0 || input.UnitPriceMinor <= 0 || !input.Method.IsValid() {
		return nil, false, shared.ErrInvalidInput
	}
	if input.UnitPriceMinor > math.MaxInt64/input.Quantity {
		return nil, false, fmt.Errorf("%w: sale total overflows", shared.ErrInvalidInput)
	}

	amount := input.Quantity * input.UnitPriceMinor
	key := input.IdempotencyKey
	if key == "" {
		key = shared.DeriveKey("checkout", input.OrderNumber, opCtx.ActorID, amount)
	}
	fingerprint := shared.Fingerprint(
		"checkout",
		input.OrderNumber,
		input.MemberID.String(),
		input.ProductID.String(),
		fmt.Sprintf("%d", input.Quantity),
		fmt.Sprintf("%d", input.UnitPriceMinor),
		string(input.Method),
	)

	snapshot, replayed, err := s.guard.ExecuteOnce(ctx, key, fingerprint, func(ctx context.Context) ([]byte, error) {
		result, err := s.runSaga(ctx, opCtx, input, amount)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, err
	}

	var result Result
	if err := json.Unmarshal(snapshot, &result); err != nil {
		return nil, false, fmt.Errorf("corrupt checkout snapshot: %w", err)
	}
	if replayed {
		s.logger.Info("checkout replayed from idempotency record",
			zap.String("order_number", result.OrderNumber),
			zap.String("status", result.Status.String()),
		)
	}
	return &result, replayed, nil
}

// runSaga executes the four saga steps for a claimed checkout
func (s *Service) runSaga(ctx context.Context, opCtx shared.OperationContext, input Input, amount int64) (*Result, error) {
	now := time.Now()

	// Step 1: lock. Stock first, then funds; a funds failure releases the
	// stock lock so a rejected checkout leaves no side effects.
	item, err := s.stock.FindByProductID(ctx, opCtx.OrganizationID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := item.Lock(input.Quantity); err != nil {
		return nil, err
	}
	if err := s.stock.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	holdPlaced := false
	if input.Method == payment.MethodSavingsBalance {
		if err := s.holdSavings(ctx, opCtx.OrganizationID, input.MemberID, amount); err != nil {
			s.releaseStock(ctx, opCtx.OrganizationID, input.ProductID, input.Quantity)
			return nil, err
		}
		holdPlaced = true
	}

	order, err := retail.NewSaleOrder(opCtx.OrganizationID, input.MemberID, input.ProductID, input.OrderNumber, input.Quantity, input.UnitPriceMinor, item.UnitCostMinor)
	if err != nil {
		s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
		return nil, err
	}
	order.SetCreatedBy(opCtx.ActorID)
	if err := s.sales.Create(ctx, order); err != nil {
		// A previous attempt may have persisted the order before dying. Resume
		// with the stored row if it is still pending; anything else is a real
		// order-number conflict.
		if !errors.Is(err, shared.ErrAlreadyExists) {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}
		existing, findErr := s.sales.FindByOrderNumber(ctx, opCtx.OrganizationID, input.OrderNumber)
		if findErr != nil || existing.Status != retail.SalePending {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}
		order = existing
	}

	movement, err := payment.NewMovement(opCtx.OrganizationID, payment.MovementRetailSale, "sale_order", input.OrderNumber, input.Method, amount)
	if err != nil {
		s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
		return nil, err
	}
	movement.SetCreatedBy(opCtx.ActorID)
	if err := s.movements.Create(ctx, movement); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}
		existing, findErr := s.movements.FindByReference(ctx, opCtx.OrganizationID, input.OrderNumber)
		if findErr != nil || existing.Status != payment.StatusPending ||
			existing.AmountMinor != amount || existing.Method != input.Method {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}
		movement = existing
	}

	// Step 2: settle.
	if input.Method.IsExternal() {
		provider, err := s.providers.Get(s.providerName)
		if err != nil {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}
		intent, err := provider.CreateIntent(ctx, &payment.IntentRequest{
			OrganizationID: opCtx.OrganizationID,
			ReferenceID:    input.OrderNumber,
			Method:         input.Method,
			AmountMinor:    amount,
			Description:    "retail sale " + input.OrderNumber,
			ExpiresAt:      now.Add(s.intentExpiry),
		})
		if err != nil {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}
		movement.AttachIntent(provider.Name(), intent.ExternalID, intent.ExpiresAt)
		if err := s.movements.SaveWithLock(ctx, movement); err != nil {
			s.unwind(ctx, opCtx.OrganizationID, input, holdPlaced, amount)
			return nil, err
		}

		s.logger.Info("checkout pending external settlement",
			zap.String("order_number", input.OrderNumber),
			zap.String("external_id", intent.ExternalID),
			zap.String("method", string(input.Method)),
		)
		return &Result{
			OrderNumber:   input.OrderNumber,
			MovementID:    movement.ID,
			Status:        payment.StatusPending,
			ExternalID:    intent.ExternalID,
			PaymentIntent: intent.PresentationData,
			ExpiresAt:     &intent.ExpiresAt,
		}, nil
	}

	if err := movement.MarkSuccess(now); err != nil {
		return nil, err
	}

	// Steps 3 and 4: post and commit.
	journalID, err := s.finalize(ctx, order, movement)
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout settled inline",
		zap.String("order_number", input.OrderNumber),
		zap.String("journal_id", journalID.String()),
		zap.Int64("amount_minor", amount),
	)
	return &Result{
		OrderNumber: input.OrderNumber,
		MovementID:  movement.ID,
		Status:      payment.StatusSuccess,
		JournalID:   &journalID,
	}, nil
}

// holdSavings reserves the sale amount on the member's savings account
func (s *Service) holdSavings(ctx context.Context, organizationID, memberID uuid.UUID, amount int64) error {
	account, err := s.savings.FindByMemberID(ctx, organizationID, memberID)
	if err != nil {
		return err
	}
	if err := account.Hold(amount); err != nil {
		return err
	}
	return s.savings.SaveWithLock(ctx, account)
}

// finalize runs the post and commit steps for a settled sale. Shared by the
// inline path, the webhook path and the reconciliation path.
//
// Posting is retried a bounded number of times; if it still fails the
// settlement stands and the error demands operator intervention. Nothing is
// auto-reversed after money has moved.
//
// finalize may run again for the same sale when a previous attempt died
// between posting and committing. The posted entry is looked up by business
// reference first and reused, and each commit step tolerates having already
// been applied, so a replay converges instead of double-posting revenue.
func (s *Service) finalize(ctx context.Context, order *retail.SaleOrder, movement *payment.Movement) (uuid.UUID, error) {
	posted, err := s.journals.FindByReference(ctx, order.OrganizationID, movement.ReferenceType, movement.ReferenceID)
	if err != nil {
		return uuid.Nil, err
	}
	replaying := len(posted) > 0

	var entryID uuid.UUID
	if replaying {
		entryID = posted[0].ID
		s.logger.Warn("journal entry already posted for sale, resuming commit",
			zap.String("order_number", order.OrderNumber),
			zap.String("journal_id", entryID.String()),
		)
	} else {
		entry, err := s.buildSaleEntry(ctx, order, movement)
		if err != nil {
			return uuid.Nil, err
		}

		var postErr error
		for attempt := 1; attempt <= postRetries; attempt++ {
			if postErr = s.journals.Create(ctx, entry); postErr == nil {
				break
			}
			s.logger.Warn("journal posting failed, retrying",
				zap.String("order_number", order.OrderNumber),
				zap.Int("attempt", attempt),
				zap.Error(postErr),
			)
		}
		if postErr != nil {
			s.logger.Error("settled sale could not be posted, manual intervention required",
				zap.String("order_number", order.OrderNumber),
				zap.String("movement_id", movement.ID.String()),
				zap.Error(postErr),
			)
			return uuid.Nil, fmt.Errorf("journal posting failed after settlement: %w", postErr)
		}
		entryID = entry.ID
	}

	if movement.Method == payment.MethodSavingsBalance {
		account, err := s.savings.FindByMemberID(ctx, order.OrganizationID, order.MemberID)
		if err != nil {
			return uuid.Nil, err
		}
		switch err := account.CaptureHold(movement.AmountMinor); {
		case err == nil:
			if err := s.savings.SaveWithLock(ctx, account); err != nil {
				return uuid.Nil, err
			}
		case replaying && errors.Is(err, member.ErrHoldExceedsHeld):
			// hold already captured by the earlier attempt
		default:
			return uuid.Nil, err
		}
	}

	item, err := s.stock.FindByProductID(ctx, order.OrganizationID, order.ProductID)
	if err != nil {
		return uuid.Nil, err
	}
	switch err := item.Commit(order.Quantity); {
	case err == nil:
		if err := s.stock.SaveWithLock(ctx, item); err != nil {
			return uuid.Nil, err
		}
	case replaying && errors.Is(err, retail.ErrLockExceedsLocked):
		// stock already committed by the earlier attempt
	default:
		return uuid.Nil, err
	}

	if order.Status != retail.SaleCompleted {
		if err := order.MarkCompleted(); err != nil {
			return uuid.Nil, err
		}
		if err := s.sales.SaveWithLock(ctx, order); err != nil {
			return uuid.Nil, err
		}
	}
	if err := s.movements.SaveWithLock(ctx, movement); err != nil {
		return uuid.Nil, err
	}
	return entryID, nil
}

// cancel releases all locks for a sale that failed or expired
func (s *Service) cancel(ctx context.Context, order *retail.SaleOrder, movement *payment.Movement) error {
	s.releaseStock(ctx, order.OrganizationID, order.ProductID, order.Quantity)
	if movement.Method == payment.MethodSavingsBalance {
		s.releaseSavingsHold(ctx, order.OrganizationID, order.MemberID, movement.AmountMinor)
	}
	if err := order.MarkCancelled(); err != nil {
		return err
	}
	if err := s.sales.SaveWithLock(ctx, order); err != nil {
		return err
	}
	return s.movements.SaveWithLock(ctx, movement)
}

// buildSaleEntry assembles the balanced journal entry for a settled sale:
// settlement debit and revenue credit for the sale total, plus cost of goods
// against inventory.
func (s *Service) buildSaleEntry(ctx context.Context, order *retail.SaleOrder, movement *payment.Movement) (*ledger.JournalEntry, error) {
	settleCode := s.codes.Cash
	if movement.Method == payment.MethodSavingsBalance {
		settleCode = s.codes.Savings
	}

	settleAcc, err := s.activeAccount(ctx, order.OrganizationID, settleCode)
	if err != nil {
		return nil, err
	}
	revenueAcc, err := s.activeAccount(ctx, order.OrganizationID, s.codes.SalesRevenue)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := ledger.NewJournalEntry(order.OrganizationID, now, "retail sale "+order.OrderNumber, "sale_order", order.OrderNumber)
	entry.CreatedBy = order.CreatedBy
	entry.AddDebit(settleAcc.ID, order.TotalMinor(), "settlement")
	entry.AddCredit(revenueAcc.ID, order.TotalMinor(), "sales revenue")

	if cost := order.TotalCostMinor(); cost > 0 {
		cogsAcc, err := s.activeAccount(ctx, order.OrganizationID, s.codes.COGS)
		if err != nil {
			return nil, err
		}
		inventoryAcc, err := s.activeAccount(ctx, order.OrganizationID, s.codes.Inventory)
		if err != nil {
			return nil, err
		}
		entry.AddDebit(cogsAcc.ID, cost, "cost of goods sold")
		entry.AddCredit(inventoryAcc.ID, cost, "inventory relief")
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// activeAccount resolves a code to an active account
func (s *Service) activeAccount(ctx context.Context, organizationID uuid.UUID, code string) (*ledger.Account, error) {
	account, err := s.accounts.FindByCode(ctx, organizationID, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code %s", ledger.ErrInvalidAccount, code)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: code %s is inactive", ledger.ErrInvalidAccount, code)
	}
	return account, nil
}

// releaseStock undoes a stock lock; errors are logged, not propagated, because
// release runs on paths that are already failing.
func (s *Service) releaseStock(ctx context.Context, organizationID, productID uuid.UUID, qty int64) {
	item, err := s.stock.FindByProductID(ctx, organizationID, productID)
	if err == nil {
		if err = item.Release(qty); err == nil {
			err = s.stock.SaveWithLock(ctx, item)
		}
	}
	if err != nil {
		s.logger.Error("stock lock release failed",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", qty),
			zap.Error(err),
		)
	}
}

// releaseSavingsHold undoes a savings hold, logging failures
func (s *Service) releaseSavingsHold(ctx context.Context, organizationID, memberID uuid.UUID, amount int64) {
	account, err := s.savings.FindByMemberID(ctx, organizationID, memberID)
	if err == nil {
		if err = account.ReleaseHold(amount); err == nil {
			err = s.savings.SaveWithLock(ctx, account)
		}
	}
	if err != nil {
		s.logger.Error("savings hold release failed",
			zap.String("member_id", memberID.String()),
			zap.Int64("amount_minor", amount),
			zap.Error(err),
		)
	}
}

// unwind releases locks taken during a failed saga attempt
func (s *Service) unwind(ctx context.Context, organizationID uuid.UUID, input Input, holdPlaced bool, amount int64) {
	s.releaseStock(ctx, organizationID, input.ProductID, input.Quantity)
	if holdPlaced {
		s.releaseSavingsHold(ctx, organizationID, input.MemberID, amount)
	}
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/internal/repository"
	"github.com/bash586/paytrackbot/pkg/logger"
	"github.com/bash586/paytrackbot/pkg/prom"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	Restore(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	Search(ctx context.Context, query string, limit int) ([]*model.CustomerMatch, error)
	UpdateName(ctx context.Context, id int64, name string) (string, error)
	UpdatePhone(ctx context.Context, id int64, phone string) (string, error)
	AdjustBalance(ctx context.Context, customerID int64, delta int64) error
	Delete(ctx context.Context, id int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) // results, totalCount
	ListByCustomer(ctx context.Context, customerID int64) ([]*model.Transaction, error)
	CountByCustomer(ctx context.Context, customerID int64) (int64, error)
	SumByKind(ctx context.Context, customerID int64) (debits int64, credits int64, err error)
	RestoreBatch(ctx context.Context, txns []*model.Transaction) error
	DeleteByCustomer(ctx context.Context, customerID int64) error
}

type ActionRepository interface {
	Append(ctx context.Context, action *model.Action) error
	GetByID(ctx context.Context, id int64) (*model.Action, error)
	LastUnreversed(ctx context.Context, adminID int64, global bool) (*model.Action, error)
	MarkReversed(ctx context.Context, id int64) error
	ListRecent(ctx context.Context, limit int) ([]*model.Action, error)
	CountLaterForCustomer(ctx context.Context, customerID, afterID int64) (int64, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// LedgerService orchestrates every mutating operation: it serializes writes
// per customer, applies the state change and the history append in one
// database transaction, and publishes an audit event after commit.
type LedgerService struct {
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
	actionRepo      ActionRepository
	publisher       Publisher
	locks           *customerLocks
}

func NewLedgerService(customerRepo CustomerRepository, transactionRepo TransactionRepository, actionRepo ActionRepository, publisher Publisher) *LedgerService {
	return &LedgerService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		actionRepo:      actionRepo,
		publisher:       publisher,
		locks:           newCustomerLocks(),
	}
}

func (s *LedgerService) AddCustomer(ctx context.Context, adminID int64, req model.CustomerCreateRequest) (*model.Customer, error) {
	defer observe("add_customer", time.Now())

	req.FullName = NormalizeFullName(req.FullName)
	req.Phone = NormalizePhone(req.Phone)
	if err := req.Validate(); err != nil {
		return nil, validationErr("%v", err)
	}

	var created *model.Customer
	var action *model.Action
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.customerRepo.Create(ctx, &model.Customer{
			FullName: req.FullName,
			Phone:    req.Phone,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateName) {
				return conflictErr("customer %q already exists", req.FullName)
			}
			return storageErr(err)
		}

		action = &model.Action{
			AdminID:    adminID,
			CustomerID: created.ID,
			Type:       model.ActionAddCustomer,
			Payload: model.AddCustomerPayload{
				FullName:  created.FullName,
				Phone:     created.Phone,
				CreatedAt: created.CreatedAt,
			},
		}
		return s.appendAction(ctx, action)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, action)
	return created, nil
}

func (s *LedgerService) Rename(ctx context.Context, adminID, customerID int64, newFullName string) error {
	defer observe("rename_customer", time.Now())

	newFullName = NormalizeFullName(newFullName)
	if newFullName == "" {
		return validationErr("%v", model.ErrEmptyFullName)
	}

	s.locks.Lock(customerID)
	defer s.locks.Unlock(customerID)

	var action *model.Action
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		oldName, err := s.customerRepo.UpdateName(ctx, customerID, newFullName)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrCustomerNotFound):
				return notFoundErr("customer %d", customerID)
			case errors.Is(err, repository.ErrDuplicateName):
				return conflictErr("customer %q already exists", newFullName)
			}
			return storageErr(err)
		}

		action = &model.Action{
			AdminID:    adminID,
			CustomerID: customerID,
			Type:       model.ActionRename,
			Payload:    model.RenamePayload{OldFullName: oldName},
		}
		return s.appendAction(ctx, action)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, action)
	return nil
}

func (s *LedgerService) ChangePhone(ctx context.Context, adminID, customerID int64, newPhone string) error {
	defer observe("change_phone", time.Now())

	newPhone = NormalizePhone(newPhone)

	s.locks.Lock(customerID)
	defer s.locks.Unlock(customerID)

	var action *model.Action
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		oldPhone, err := s.customerRepo.UpdatePhone(ctx, customerID, newPhone)
		if err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return notFoundErr("customer %d", customerID)
			}
			return storageErr(err)
		}

		action = &model.Action{
			AdminID:    adminID,
			CustomerID: customerID,
			Type:       model.ActionChangePhone,
			Payload:    model.ChangePhonePayload{OldPhone: oldPhone},
		}
		return s.appendAction(ctx, action)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, action)
	return nil
}

// DeleteCustomer removes a settled-up customer. The action payload snapshots
// the full record and every transaction, so undo can resurrect it verbatim.
func (s *LedgerService) DeleteCustomer(ctx context.Context, adminID, customerID int64) error {
	defer observe("delete_customer", time.Now())

	s.locks.Lock(customerID)
	defer s.locks.Unlock(customerID)

	var action *model.Action
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.GetByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return notFoundErr("customer %d", customerID)
			}
			return storageErr(err)
		}
		if customer.Balance != 0 {
			return preconditionErr("customer %d has nonzero balance %d", customerID, customer.Balance)
		}

		txns, err := s.transactionRepo.ListByCustomer(ctx, customerID)
		if err != nil {
			return storageErr(err)
		}
		if err := s.transactionRepo.DeleteByCustomer(ctx, customerID); err != nil {
			return storageErr(err)
		}
		if err := s.customerRepo.Delete(ctx, customerID); err != nil {
			return storageErr(err)
		}

		action = &model.Action{
			AdminID:    adminID,
			CustomerID: customerID,
			Type:       model.ActionDeleteCustomer,
			Payload: model.DeleteCustomerPayload{
				Customer:     *customer,
				Transactions: txns,
			},
		}
		return s.appendAction(ctx, action)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, action)
	return nil
}

// AddTransaction records a purchase on credit. Positive amounts add debt,
// negative amounts reduce it; zero is rejected.
func (s *LedgerService) AddTransaction(ctx context.Context, adminID int64, req model.TransactionCreateRequest) (*model.Transaction, error) {
	defer observe("add_transaction", time.Now())
	return s.record(ctx, adminID, req, model.ActionAddTransaction)
}

// Settle records a payment. The amount is stored negated so the ledger sum
// stays the balance; the distinct action type keeps payments tellable from
// purchases in history and undo.
func (s *LedgerService) Settle(ctx context.Context, adminID int64, req model.TransactionCreateRequest) (*model.Transaction, error) {
	defer observe("settle", time.Now())

	if req.Amount > 0 {
		req.Amount = -req.Amount
	}
	return s.record(ctx, adminID, req, model.ActionSettle)
}

func (s *LedgerService) record(ctx context.Context, adminID int64, req model.TransactionCreateRequest, actionType model.ActionType) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr("%v", err)
	}

	kind := model.KindDebit
	if req.Amount < 0 {
		kind = model.KindCredit
	}

	s.locks.Lock(req.CustomerID)
	defer s.locks.Unlock(req.CustomerID)

	var created *model.Transaction
	var action *model.Action
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return notFoundErr("customer %d", req.CustomerID)
			}
			return storageErr(err)
		}

		var err error
		created, err = s.transactionRepo.Create(ctx, &model.Transaction{
			CustomerID:  req.CustomerID,
			Amount:      req.Amount,
			Kind:        kind,
			Description: req.Description,
		})
		if err != nil {
			return storageErr(err)
		}

		if err := s.customerRepo.AdjustBalance(ctx, req.CustomerID, req.Amount); err != nil {
			return storageErr(err)
		}

		action = &model.Action{
			AdminID:    adminID,
			CustomerID: req.CustomerID,
			Type:       actionType,
			Payload: model.TransactionPayload{
				TransactionID: created.ID,
				Amount:        created.Amount,
				Description:   created.Description,
				CreatedAt:     created.CreatedAt,
			},
		}
		return s.appendAction(ctx, action)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, action)
	return created, nil
}

// ListHistory returns the customer's transactions in chronological order.
func (s *LedgerService) ListHistory(ctx context.Context, customerID int64) ([]*model.Transaction, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, notFoundErr("customer %d", customerID)
		}
		return nil, storageErr(err)
	}
	txns, err := s.transactionRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, storageErr(err)
	}
	return txns, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	txns, total, err := s.transactionRepo.List(ctx, f)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return txns, total, nil
}

func (s *LedgerService) ListRecent(ctx context.Context, n int) ([]*model.Action, error) {
	actions, err := s.actionRepo.ListRecent(ctx, n)
	if err != nil {
		return nil, storageErr(err)
	}
	return actions, nil
}

func (s *LedgerService) Summary(ctx context.Context, customerID int64) (*model.CustomerSummary, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, notFoundErr("customer %d", customerID)
		}
		return nil, storageErr(err)
	}

	debits, credits, err := s.transactionRepo.SumByKind(ctx, customerID)
	if err != nil {
		return nil, storageErr(err)
	}

	recent, _, err := s.transactionRepo.List(ctx, model.TransactionFilter{
		CustomerID: &customerID,
		Desc:       true,
		Limit:      5,
	})
	if err != nil {
		return nil, storageErr(err)
	}

	return &model.CustomerSummary{
		Customer:     *customer,
		TotalDebits:  debits,
		TotalCredits: credits,
		Recent:       recent,
	}, nil
}

func (s *LedgerService) Search(ctx context.Context, query string, limit int) ([]*model.CustomerMatch, error) {
	query = NormalizeFullName(query)
	if query == "" {
		return nil, validationErr("search query cannot be empty")
	}
	matches, err := s.customerRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return matches, nil
}

func (s *LedgerService) appendAction(ctx context.Context, action *model.Action) error {
	if err := s.actionRepo.Append(ctx, action); err != nil {
		return storageErr(err)
	}
	prom.IncCounterVec(prom.SystemLedger, prom.MetricActionsTotal, string(action.Type))
	return nil
}

// publishEvent notifies the audit stream after commit. Failures are logged
// and never affect the already-committed operation; the actions table is the
// source of truth.
func (s *LedgerService) publishEvent(ctx context.Context, action *model.Action) {
	if s.publisher == nil || action == nil {
		return
	}
	event := model.ActionEvent{
		ActionID:   action.ID,
		Type:       action.Type,
		AdminID:    action.AdminID,
		CustomerID: action.CustomerID,
		CreatedAt:  action.CreatedAt,
	}
	if _, err := s.publisher.PublishJSON(ctx, event, nil); err != nil {
		logger.Warn("failed to publish action event", "action_id", action.ID, "error", err)
	}
}

func observe(op string, start time.Time) {
	prom.ObserveOperationDuration(op, time.Since(start).Seconds())
}

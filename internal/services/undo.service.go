package services

import (
	"context"
	"errors"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/internal/repository"
	"github.com/bash586/paytrackbot/pkg/prom"
)

// UndoResult reports which action was reversed.
type UndoResult struct {
	Action *model.Action `json:"action"`
}

// UndoService computes and applies the inverse of a logged action. The
// reversed flag is flipped first, inside the same database transaction as
// the inverse mutation, so a lost race or a failed inverse rolls back to a
// clean state and the action stays undoable.
type UndoService struct {
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
	actionRepo      ActionRepository
	locks           *customerLocks
	globalScope     bool
}

// NewUndoService shares the ledger's per-customer lock table so undo and
// forward mutations of the same customer never interleave.
func NewUndoService(customerRepo CustomerRepository, transactionRepo TransactionRepository, actionRepo ActionRepository, ledger *LedgerService, globalScope bool) *UndoService {
	return &UndoService{
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		actionRepo:      actionRepo,
		locks:           ledger.locks,
		globalScope:     globalScope,
	}
}

// Undo reverses the action with the given id, or the admin's most recent
// unreversed action when actionID is zero.
func (s *UndoService) Undo(ctx context.Context, adminID int64, actionID int64) (*UndoResult, error) {
	defer observe("undo", time.Now())

	action, err := s.resolve(ctx, adminID, actionID)
	if err != nil {
		prom.IncCounterVec(prom.SystemLedger, prom.MetricUndoTotal, "failure")
		return nil, err
	}

	s.locks.Lock(action.CustomerID)
	defer s.locks.Unlock(action.CustomerID)

	err = s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.markReversed(ctx, action.ID); err != nil {
			return err
		}

		// Nothing newer may depend on the state being rolled back.
		later, err := s.actionRepo.CountLaterForCustomer(ctx, action.CustomerID, action.ID)
		if err != nil {
			return storageErr(err)
		}
		if later > 0 {
			return conflictErr("%d later action(s) depend on action %d", later, action.ID)
		}

		return s.applyInverse(ctx, action)
	})
	if err != nil {
		prom.IncCounterVec(prom.SystemLedger, prom.MetricUndoTotal, "failure")
		return nil, err
	}

	action.Reversed = true
	prom.IncCounterVec(prom.SystemLedger, prom.MetricUndoTotal, "success")
	return &UndoResult{Action: action}, nil
}

func (s *UndoService) resolve(ctx context.Context, adminID, actionID int64) (*model.Action, error) {
	if actionID > 0 {
		action, err := s.actionRepo.GetByID(ctx, actionID)
		if err != nil {
			if errors.Is(err, repository.ErrActionNotFound) {
				return nil, notFoundErr("action %d", actionID)
			}
			return nil, storageErr(err)
		}
		if action.Reversed {
			return nil, stateErr("action %d is already reversed", actionID)
		}
		return action, nil
	}

	action, err := s.actionRepo.LastUnreversed(ctx, adminID, s.globalScope)
	if err != nil {
		if errors.Is(err, repository.ErrActionNotFound) {
			return nil, notFoundErr("nothing to undo for admin %d", adminID)
		}
		return nil, storageErr(err)
	}
	return action, nil
}

func (s *UndoService) markReversed(ctx context.Context, actionID int64) error {
	err := s.actionRepo.MarkReversed(ctx, actionID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrActionAlreadyReversed):
		return stateErr("action %d is already reversed", actionID)
	case errors.Is(err, repository.ErrActionNotFound):
		return notFoundErr("action %d", actionID)
	default:
		return storageErr(err)
	}
}

func (s *UndoService) applyInverse(ctx context.Context, action *model.Action) error {
	switch action.Type {
	case model.ActionAddCustomer:
		return s.undoAddCustomer(ctx, action)
	case model.ActionAddTransaction, model.ActionSettle:
		return s.undoTransaction(ctx, action)
	case model.ActionRename:
		return s.undoRename(ctx, action)
	case model.ActionChangePhone:
		return s.undoChangePhone(ctx, action)
	case model.ActionDeleteCustomer:
		return s.undoDeleteCustomer(ctx, action)
	default:
		return stateErr("action %d has unknown type %q", action.ID, action.Type)
	}
}

// undoAddCustomer deletes the customer, but only if it is still untouched:
// a nonzero balance or any surviving transaction means later state depends
// on its existence.
func (s *UndoService) undoAddCustomer(ctx context.Context, action *model.Action) error {
	customer, err := s.customerRepo.GetByID(ctx, action.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return conflictErr("customer %d no longer exists", action.CustomerID)
		}
		return storageErr(err)
	}
	if customer.Balance != 0 {
		return conflictErr("customer %d has nonzero balance %d", customer.ID, customer.Balance)
	}

	count, err := s.transactionRepo.CountByCustomer(ctx, action.CustomerID)
	if err != nil {
		return storageErr(err)
	}
	if count > 0 {
		return conflictErr("customer %d has %d transaction(s)", customer.ID, count)
	}

	if err := s.customerRepo.Delete(ctx, action.CustomerID); err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *UndoService) undoTransaction(ctx context.Context, action *model.Action) error {
	payload, ok := action.Payload.(model.TransactionPayload)
	if !ok {
		return stateErr("action %d has malformed payload", action.ID)
	}

	if _, err := s.transactionRepo.Delete(ctx, payload.TransactionID); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return conflictErr("transaction %d no longer exists", payload.TransactionID)
		}
		return storageErr(err)
	}

	if err := s.customerRepo.AdjustBalance(ctx, action.CustomerID, -payload.Amount); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return conflictErr("customer %d no longer exists", action.CustomerID)
		}
		return storageErr(err)
	}
	return nil
}

func (s *UndoService) undoRename(ctx context.Context, action *model.Action) error {
	payload, ok := action.Payload.(model.RenamePayload)
	if !ok {
		return stateErr("action %d has malformed payload", action.ID)
	}

	_, err := s.customerRepo.UpdateName(ctx, action.CustomerID, payload.OldFullName)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCustomerNotFound):
		return conflictErr("customer %d no longer exists", action.CustomerID)
	case errors.Is(err, repository.ErrDuplicateName):
		return conflictErr("customer %q already exists", payload.OldFullName)
	default:
		return storageErr(err)
	}
}

func (s *UndoService) undoChangePhone(ctx context.Context, action *model.Action) error {
	payload, ok := action.Payload.(model.ChangePhonePayload)
	if !ok {
		return stateErr("action %d has malformed payload", action.ID)
	}

	if _, err := s.customerRepo.UpdatePhone(ctx, action.CustomerID, payload.OldPhone); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return conflictErr("customer %d no longer exists", action.CustomerID)
		}
		return storageErr(err)
	}
	return nil
}

// undoDeleteCustomer resurrects the snapshotted customer and its
// transactions verbatim, original ids and timestamps included.
func (s *UndoService) undoDeleteCustomer(ctx context.Context, action *model.Action) error {
	payload, ok := action.Payload.(model.DeleteCustomerPayload)
	if !ok {
		return stateErr("action %d has malformed payload", action.ID)
	}

	if err := s.customerRepo.Restore(ctx, &payload.Customer); err != nil {
		if errors.Is(err, repository.ErrCustomerExists) {
			return conflictErr("customer id %d is occupied", payload.Customer.ID)
		}
		return storageErr(err)
	}

	if err := s.transactionRepo.RestoreBatch(ctx, payload.Transactions); err != nil {
		return storageErr(err)
	}
	return nil
}

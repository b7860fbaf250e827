package services

import (
	"reflect"
	"testing"

	"github.com/bash586/paytrackbot/internal/repository"
	"github.com/bash586/paytrackbot/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	ledger  *LedgerService
	undo    *UndoService
	actions *repository.ActionRepository
	txns    *repository.TransactionRepository
	db      *pg.DB
}

func setupLedger(t *testing.T, globalUndo bool) *ledgerFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.CustomerEntity{},
		&repository.TransactionEntity{},
		&repository.ActionEntity{},
		&repository.ActionArchiveEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	customerRepo := repository.NewCustomerRepository(pgDB)
	transactionRepo := repository.NewTransactionRepository(pgDB)
	actionRepo := repository.NewActionRepository(pgDB)

	ledger := NewLedgerService(customerRepo, transactionRepo, actionRepo, nil)
	undo := NewUndoService(customerRepo, transactionRepo, actionRepo, ledger, globalUndo)

	return &ledgerFixture{
		ledger:  ledger,
		undo:    undo,
		actions: actionRepo,
		txns:    transactionRepo,
		db:      pgDB,
	}
}

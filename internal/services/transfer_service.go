package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
)

// transferService moves funds between two of a user's accounts as one
// atomic operation represented by two linked transaction legs. Both legs
// store a positive amount; the debit leg is typed expense and the credit
// leg income, so the ledger's balance invariant holds for transfers the
// same way it does for ordinary transactions.
type transferService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, accountService AccountServicer) TransferServicer {
	return &transferService{
		db:             db,
		accountService: accountService,
	}
}

// ExecuteTransfer debits the source account and credits the destination in
// one database transaction, creating two mutually linked transfer legs.
func (s *transferService) ExecuteTransfer(
	userID uint,
	fromAccountID uint,
	toAccountID uint,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, *models.Transaction, error) {
	if amount <= 0 {
		return nil, nil, apperrors.ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, nil, apperrors.ErrSameAccountTransfer
	}
	if date.IsZero() {
		date = time.Now()
	}

	// Destination ownership check before any write
	if _, err := s.accountService.GetAccountByID(userID, toAccountID); err != nil {
		return nil, nil, err
	}

	var legOut, legIn *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var source models.Account
		if err := tx.Where("id = ? AND user_id = ?", fromAccountID, userID).
			First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return wrapDBError(err)
		}

		// Liability accounts are expected to go negative; everything else
		// must have the funds.
		if !source.IsLiability() && source.Balance < amount {
			return apperrors.ErrInsufficientFunds
		}

		legOut = &models.Transaction{
			UserID:      userID,
			AccountID:   fromAccountID,
			Type:        models.TransactionTypeExpense,
			Amount:      amount,
			Description: description,
			Date:        date,
			IsTransfer:  true,
		}
		legIn = &models.Transaction{
			UserID:      userID,
			AccountID:   toAccountID,
			Type:        models.TransactionTypeIncome,
			Amount:      amount,
			Description: description,
			Date:        date,
			IsTransfer:  true,
		}
		if err := tx.Create(legOut).Error; err != nil {
			return wrapDBError(err)
		}
		if err := tx.Create(legIn).Error; err != nil {
			return wrapDBError(err)
		}

		// Link the pair both ways
		if err := tx.Model(legOut).Update("related_transaction_id", legIn.ID).Error; err != nil {
			return wrapDBError(err)
		}
		if err := tx.Model(legIn).Update("related_transaction_id", legOut.ID).Error; err != nil {
			return wrapDBError(err)
		}
		legOut.RelatedTransactionID = &legIn.ID
		legIn.RelatedTransactionID = &legOut.ID

		if err := s.accountService.ApplyBalanceDelta(tx, fromAccountID, -amount); err != nil {
			return err
		}
		return s.accountService.ApplyBalanceDelta(tx, toAccountID, amount)
	})
	if err != nil {
		return nil, nil, err
	}
	return legOut, legIn, nil
}

// CancelTransfer deletes both legs of a transfer and reverses their balance
// effects atomically, given either leg's ID. A leg whose pair is missing is
// a data-integrity anomaly: the surviving leg is still reversed and deleted,
// and the anomaly is logged rather than failing or being ignored.
func (s *transferService) CancelTransfer(userID, transactionID uint) error {
	var leg models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&leg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTransactionNotFound
		}
		return wrapDBError(err)
	}
	if !leg.IsTransfer {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction is not a transfer leg")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reverseAndDeleteLeg(tx, &leg); err != nil {
			return err
		}

		var pair *models.Transaction
		if leg.RelatedTransactionID != nil {
			var p models.Transaction
			err := tx.Where("id = ? AND user_id = ?", *leg.RelatedTransactionID, userID).First(&p).Error
			switch {
			case err == nil:
				pair = &p
			case errors.Is(err, gorm.ErrRecordNotFound):
				// fall through to the anomaly log below
			default:
				return wrapDBError(err)
			}
		}

		if pair == nil {
			logger.Get().Warnw("transfer leg missing its pair, reversed single leg",
				"transaction_id", leg.ID,
				"user_id", userID,
			)
			return nil
		}
		return s.reverseAndDeleteLeg(tx, pair)
	})
}

// reverseAndDeleteLeg deletes one leg and reverses its stored signed effect
// on its account. The soft delete only matches the live row and doubles as
// the guard: zero rows affected means a concurrent cancel already claimed
// this leg, and reversing it again would corrupt the balance, so the whole
// cancellation rolls back instead.
func (s *transferService) reverseAndDeleteLeg(tx *gorm.DB, leg *models.Transaction) error {
	res := tx.Delete(leg)
	if res.Error != nil {
		return wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return s.accountService.ApplyBalanceDelta(tx, leg.AccountID, -leg.SignedAmount())
}

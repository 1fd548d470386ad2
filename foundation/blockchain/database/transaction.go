package database

import (
	"fmt"
	"math"
)

// RewardSender is the sender recorded on the transaction that pays a miner
// for solving a block.
const RewardSender = "0"

// RewardAmount is the amount paid to a miner for solving a block.
const RewardAmount = 1

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	Sender    string  `json:"sender"`    // Address of the party sending the value.
	Recipient string  `json:"recipient"` // Address of the party receiving the value.
	Amount    float64 `json:"amount"`    // Value being transferred.
}

// NewTx constructs a new transaction after validating the fields.
func NewTx(sender string, recipient string, amount float64) (Tx, error) {
	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	if err := tx.Validate(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// NewRewardTx constructs the transaction that pays the miner of a block.
func NewRewardTx(recipient string) Tx {
	return Tx{
		Sender:    RewardSender,
		Recipient: recipient,
		Amount:    RewardAmount,
	}
}

// Validate checks the transaction has all the information required to be
// placed in a block.
func (tx Tx) Validate() error {
	if tx.Sender == "" {
		return fmt.Errorf("%w: sender is required", ErrValidation)
	}

	if tx.Recipient == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}

	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return fmt.Errorf("%w: amount %v is not a number", ErrValidation, tx.Amount)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v", tx.Sender, tx.Recipient, tx.Amount)
}

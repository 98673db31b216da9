package entities

// TransactionType represents the kind of a ledger mutation
type TransactionType string

// All transaction types recorded by the wallet ledger
const (
	// Wagering transactions
	TransactionTypeStakeCommit  TransactionType = "stake_commit"
	TransactionTypeStakeRelease TransactionType = "stake_release"
	TransactionTypeWagerPayout  TransactionType = "wager_payout"
	TransactionTypeWagerRefund  TransactionType = "wager_refund"

	// Curator transactions
	TransactionTypeCuratorCommission TransactionType = "curator_commission"

	// External funding boundary
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"

	// System transactions
	TransactionTypeInitial TransactionType = "initial"
)

// IsWageringType returns true if the transaction originates from stake handling
func (tt TransactionType) IsWageringType() bool {
	return tt == TransactionTypeStakeCommit ||
		tt == TransactionTypeStakeRelease ||
		tt == TransactionTypeWagerPayout ||
		tt == TransactionTypeWagerRefund
}

// IsExternalFunding returns true if the transaction crosses the funding boundary
func (tt TransactionType) IsExternalFunding() bool {
	return tt == TransactionTypeDeposit || tt == TransactionTypeWithdraw
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}

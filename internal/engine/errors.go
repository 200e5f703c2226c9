package engine

// RuleError is a client-facing validation error. These abort only the
// offending action and are never logged as failures.
type RuleError struct {
	code string
}

func (e *RuleError) Error() string {
	return e.code
}

func (e *RuleError) Code() string {
	return e.code
}

var (
	ErrNotYourTurn     = &RuleError{"NOT_YOUR_TURN"}
	ErrInvalidMove     = &RuleError{"INVALID_MOVE"}
	ErrCellTaken       = &RuleError{"CELL_TAKEN"}
	ErrColumnFull      = &RuleError{"COLUMN_FULL"}
	ErrCardNotInHand   = &RuleError{"CARD_NOT_IN_HAND"}
	ErrAlreadySelected = &RuleError{"ALREADY_SELECTED"}
)

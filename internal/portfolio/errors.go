package portfolio

import "errors"

var (
	// ErrValidation covers malformed or missing input: empty symbol,
	// non-positive share count. Validation failures never mutate state.
	ErrValidation = errors.New("invalid input")

	// ErrSymbolNotFound is returned when the quote provider cannot
	// resolve the requested symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInsufficientFunds rejects a buy whose total cost exceeds the
	// user's cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares rejects a sell of more shares than the user
	// owns.
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Package errors provides the error taxonomy shared by the stores, the sale engine and the transports.
package errors

import (
	"errors"
	"fmt"
)

// Store level sentinels. The service layer wraps them into *Error values.
var ErrProductNotFound = errors.New("product not found")
var ErrDuplicateName = errors.New("product name already exists")
var ErrInsufficientStock = errors.New("insufficient stock")
var ErrStockOverflow = errors.New("stock quantity out of range")

var ErrSaleNotFound = errors.New("sale not found")
var ErrSaleItemNotFound = errors.New("sale item not found")
var ErrCreateSale = errors.New("failed to create sale")
var ErrCreateSaleItem = errors.New("failed to create sale item")
var ErrEmptySale = errors.New("sale has no items")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")

// Kind classifies an outcome the caller is expected to handle.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInsufficientStock:
		return "InsufficientStock"
	case KindInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Messages returned to API callers.
const (
	MsgProductNotFound   = "Product not found"
	MsgProductExists     = "Product already exists"
	MsgSaleNotFound      = "Sale not found"
	MsgSaleItemNotFound  = "Product not found in sale"
	MsgInsufficientStock = "Such amount is not permitted to sell"
	MsgStockOverflow     = "Quantity exceeds the maximum stock"
	MsgEmptySale         = "Sale must contain at least one item"
)

// Error is a domain failure with a kind and a human-readable message.
// ProductID is set when the failure concerns a single product of a multi-item operation.
type Error struct {
	Kind      Kind
	Message   string
	ProductID int64
	Err       error
}

func (e *Error) Error() string {
	if e.ProductID != 0 {
		return fmt.Sprintf("%s: %s (product %d)", e.Kind, e.Message, e.ProductID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a KindNotFound error wrapping cause.
func NotFound(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}

// Conflict creates a KindConflict error wrapping cause.
func Conflict(message string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: cause}
}

// Invalid creates a KindInvalid error for input the engine refuses regardless of the stored state.
func Invalid(message string, cause error) *Error {
	return &Error{Kind: KindInvalid, Message: message, Err: cause}
}

// InsufficientStock reports that productID cannot supply the requested quantity.
func InsufficientStock(productID int64) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   MsgInsufficientStock,
		ProductID: productID,
		Err:       ErrInsufficientStock,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// As is a shorthand for errors.As with *Error.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  FlowType = "income"
	Expense FlowType = "expense"
)

const (
	Cash       AccountType = "cash"
	CreditCard AccountType = "credit_card"
)

type (
	// FlowType classifies money movement. It is shared by categories and
	// transactions: a transaction's type must match its category's type at
	// creation time.
	FlowType string

	AccountType string

	Date struct {
		time.Time
	}

	// Account is a named balance bucket owned by a user. Balance is a cached
	// projection of the account's transaction history and is only mutated
	// through Apply/Reverse.
	Account struct {
		ID       int64
		OwnerID  int64
		Name     string
		Type     AccountType
		Currency string
		Balance  Money
	}

	// Category labels transactions. OwnerID is nil for global categories
	// provided by an administrator.
	Category struct {
		ID      int64
		OwnerID *int64
		Name    string
		Type    FlowType
	}

	Transaction struct {
		ID         int64
		OwnerID    int64
		CategoryID int64
		Type       FlowType
		Amount     Money
		AccountID  int64
		Date       Date
	}

	// HiddenCategory records that a user opted to hide a global category from
	// their own listing. It never affects other users.
	HiddenCategory struct {
		OwnerID    int64
		CategoryID int64
	}

	// TransactionPatch carries a partial update for a transaction. Nil fields
	// keep the currently stored value.
	TransactionPatch struct {
		CategoryID *int64
		Type       *FlowType
		Amount     *Money
		AccountID  *int64
	}
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
	ErrCategoryInUse        = errors.New("category is referenced by transactions")
	ErrDuplicateCategory    = errors.New("category name already exists")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidFlowType      = errors.New("invalid flow type")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrEmptyCurrency        = errors.New("empty currency code")
	ErrInvalidMonth         = errors.New("invalid month")
)

func (t FlowType) Valid() bool {
	return t == Income || t == Expense
}

func (t AccountType) Valid() bool {
	return t == Cash || t == CreditCard
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	cur := strings.TrimSpace(a.Currency)
	if cur == "" {
		return ErrEmptyCurrency
	}
	if len(cur) > 10 {
		return errors.New("currency code too long (max 10 characters)")
	}
	if a.Balance.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidFlowType
	}
	return nil
}

// Global reports whether the category is an admin-provided one visible to
// every user.
func (c Category) Global() bool {
	return c.OwnerID == nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidFlowType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID == 0 {
		return errors.New("category is required")
	}
	if t.AccountID == 0 {
		return errors.New("account is required")
	}
	return nil
}

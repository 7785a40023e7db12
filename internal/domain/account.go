package domain

// Account is a deposit account owned by a user.
type Account struct {
	AccountID     ID      `json:"accountId"`
	AccountNumber string  `json:"accountNumber"`
	AccountType   string  `json:"accountType"`
	Nickname      string  `json:"nickname,omitempty"`
	Balance       float64 `json:"balance"`
	Active        bool    `json:"active"`
}

// Transaction is one posted movement on an account.
type Transaction struct {
	TransactionID   ID      `json:"transactionId"`
	DateTime        string  `json:"dateTime"`
	Description     string  `json:"description"`
	TransactionType string  `json:"transactionType,omitempty"`
	Amount          float64 `json:"amount"`
	ClosingBalance  float64 `json:"closingBalance"`
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	StartDate       string
	EndDate         string
	MinAmount       string
	MaxAmount       string
	TransactionType string
	Page            int
	Size            int
	SortBy          string
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Transactions  []Transaction `json:"content"`
	Size          int           `json:"size"`
	TotalPages    int           `json:"totalPages"`
	TotalElements int64         `json:"totalElements"`
	PageNumber    int           `json:"number"`
}

// DepositRequest credits an account.
type DepositRequest struct {
	AccountID ID      `json:"accountId"`
	Amount    float64 `json:"amount"`
}

// TransferRequest moves funds between two accounts.
type TransferRequest struct {
	SourceAccountID ID      `json:"sourceAccountId"`
	TargetAccountID ID      `json:"targetAccountId"`
	Amount          float64 `json:"amount"`
}

// Account types a customer can open, as they appear in portal paths. The
// gateway expects them upper-cased.
const (
	AccountChecking = "checking"
	AccountSavings  = "savings"
	AccountCredit   = "credit"
)

// IsAccountType reports whether kind names an account a customer can open.
func IsAccountType(kind string) bool {
	switch kind {
	case AccountChecking, AccountSavings, AccountCredit:
		return true
	}
	return false
}

// OpenAccountRequest opens a new account for a user. Credit accounts
// carry the approved limit as their initial balance.
type OpenAccountRequest struct {
	UserID         ID      `json:"userId"`
	AccountType    string  `json:"accountType"`
	InitialBalance float64 `json:"initialBalance"`
}

package domain

// LoanOffer is a loan product.
type LoanOffer struct {
	LoanID               ID      `json:"loanID"`
	LoanType             string  `json:"loanType"`
	AnnualPercentageRate float64 `json:"annualPercentageRate"`
	TermMonths           int     `json:"termMonths"`
	MinAmount            float64 `json:"minAmount"`
	MaxAmount            float64 `json:"maxAmount"`
}

// UserLoan is a loan taken out by the signed-in user.
type UserLoan struct {
	UserLoanID     ID      `json:"userLoanID"`
	LoanID         ID      `json:"loanID"`
	Principal      float64 `json:"principal"`
	Balance        float64 `json:"balance"`
	NextPaymentDue string  `json:"nextPaymentDue,omitempty"`
	MonthlyPayment float64 `json:"monthlyPayment,omitempty"`
}

// LoanApplication draws a loan into a freshly opened credit account.
type LoanApplication struct {
	LoanID     ID      `json:"loanID"`
	AccountID  ID      `json:"accountID"`
	LoanAmount float64 `json:"loanAmount"`
}

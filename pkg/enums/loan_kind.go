package enums

import "fmt"

// LoanKind distinguishes a reading-room checkout from a take-home borrow.
type LoanKind string

const (
	LoanKindReading LoanKind = "reading"
	LoanKindBorrow  LoanKind = "borrow"
)

var validLoanKinds = []LoanKind{
	LoanKindReading,
	LoanKindBorrow,
}

// String implements fmt.Stringer.
func (k LoanKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known LoanKind.
func (k LoanKind) IsValid() bool {
	for _, candidate := range validLoanKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLoanKind converts raw input into a LoanKind.
func ParseLoanKind(value string) (LoanKind, error) {
	for _, candidate := range validLoanKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loan kind %q", value)
}

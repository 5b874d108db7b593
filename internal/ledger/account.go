package ledger

// AccountID is a syntactically validated account identifier.
//
// Validation mirrors the host chain's account rules: 2-64 characters, lowercase
// alphanumeric segments separated by single '.', '_' or '-' characters. A
// separator may not start or end the identifier, and two separators may not be
// adjacent. No semantic check is performed - an AccountID that validates may
// still not exist, which is an inherited property of fire-and-forget transfers.
type AccountID string

const (
	minAccountLen = 2
	maxAccountLen = 64
)

// Valid reports whether the account identifier is syntactically well formed.
func (a AccountID) Valid() bool {
	if len(a) < minAccountLen || len(a) > maxAccountLen {
		return false
	}
	prevSeparator := true // a separator may not lead
	for i := 0; i < len(a); i++ {
		c := a[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSeparator = false
		case c == '.' || c == '_' || c == '-':
			if prevSeparator {
				return false
			}
			prevSeparator = true
		default:
			return false
		}
	}
	return !prevSeparator // a separator may not trail
}

func (a AccountID) String() string { return string(a) }

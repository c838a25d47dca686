package domain

import (
	"fmt"
	"math/rand"
	"strings"
)

// Polish IBAN layout: "PL" + 2 check digits + 24-digit BBAN, where the
// BBAN is an 8-digit sort code (bank + branch + national check digit)
// followed by a 16-digit account number.
const (
	brokerBankCode   = "252"
	brokerBranchCode = "0000"
	walletIDDigits   = 9
)

// NewWalletID returns a random 9-digit wallet identifier with leading
// zeros. Uniqueness is enforced by the store, not here.
func NewWalletID() string {
	return fmt.Sprintf("%0*d", walletIDDigits, rand.Intn(1_000_000_000))
}

// AccountNumberFor builds a valid Polish IBAN embedding the given wallet
// identifier in the account part.
func AccountNumberFor(walletID string) string {
	sort := brokerBankCode + brokerBranchCode
	sort += nationalCheckDigit(sort)
	bban := sort + fmt.Sprintf("%016s", walletID)
	return "PL" + ibanCheckDigits(bban, "PL") + bban
}

// ValidAccountNumber reports whether number is an IBAN with correct
// check digits.
func ValidAccountNumber(number string) bool {
	if len(number) < 5 {
		return false
	}
	rearranged := number[4:] + number[:4]
	return mod97(expandLetters(rearranged)) == 1
}

// nationalCheckDigit computes the eighth digit of the Polish sort code
// from the seven bank/branch digits (weights 3,9,7,1,3,9,7).
func nationalCheckDigit(sortCode string) string {
	weights := []int{3, 9, 7, 1, 3, 9, 7}
	sum := 0
	for i, ch := range sortCode {
		sum += int(ch-'0') * weights[i]
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}

// ibanCheckDigits computes the two ISO 13616 check digits for a BBAN.
func ibanCheckDigits(bban, country string) string {
	remainder := mod97(expandLetters(bban + country + "00"))
	return fmt.Sprintf("%02d", 98-remainder)
}

// expandLetters replaces letters with their IBAN numeric values (A=10..Z=35).
func expandLetters(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch >= 'A' && ch <= 'Z':
			fmt.Fprintf(&b, "%d", int(ch-'A')+10)
		default:
			return "0" // force validation failure on malformed input
		}
	}
	return b.String()
}

func mod97(digits string) int {
	r := 0
	for _, ch := range digits {
		r = (r*10 + int(ch-'0')) % 97
	}
	return r
}

package billing

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

const (
	aliasMin = 10_000_000
	aliasMax = 99_999_999

	// DescriptionPrefix precedes the alias in the transfer description.
	DescriptionPrefix = "plan"
)

var aliasPattern = regexp.MustCompile(`\bplan(\d{8})\b`)

// GenerateAlias returns a uniformly random 8-digit alias.
func GenerateAlias() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(aliasMax-aliasMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+aliasMin, 10), nil
}

// PaymentDescription is the transfer description the payer is asked to use.
func PaymentDescription(alias string) string {
	return DescriptionPrefix + alias
}

// ExtractAlias finds "plan" followed by exactly 8 digits as a whole word,
// case-insensitively, and returns the digits.
func ExtractAlias(description string) (string, bool) {
	m := aliasPattern.FindStringSubmatch(strings.ToLower(description))
	if m == nil {
		return "", false
	}
	return m[1], true
}

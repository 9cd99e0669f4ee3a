package service

import (
	"strings"
	"unicode"
)

// PassphraseStrength is the advisory result of scoring a candidate passphrase.
type PassphraseStrength struct {
	// Score is in [0, 100].
	Score int
	// Valid is true when Score >= PassphraseValidThreshold.
	Valid bool
}

// PassphraseValidThreshold is the fixed score at which a passphrase is
// considered acceptable.
const PassphraseValidThreshold = 60

// commonPassphrases is a small deny-list of passwords so common that any match
// scores zero outright, regardless of length or character mix.
var commonPassphrases = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"passw0rd":    {},
	"123456":      {},
	"12345678":    {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"abc123":      {},
	"letmein":     {},
	"111111":      {},
	"iloveyou":    {},
	"admin":       {},
	"welcome":     {},
	"monkey":      {},
	"dragon":      {},
	"sunshine":    {},
	"princess":    {},
	"trustno1":    {},
	"1234567890":  {},
}

// CheckPassphrase scores a candidate passphrase without touching any key
// material.
//
// The function is pure and side-effect-free so callers can run it on every
// keystroke. It is advisory only: derivation never fails on a weak passphrase.
// Scoring: up to 60 points for length (3 per character, capped at 20
// characters) and 10 points per character class present (lowercase, uppercase,
// digit, symbol). A deny-list match scores 0.
func CheckPassphrase(passphrase string) PassphraseStrength {
	if _, denied := commonPassphrases[strings.ToLower(passphrase)]; denied {
		return PassphraseStrength{Score: 0, Valid: false}
	}

	length := len([]rune(passphrase))
	if length == 0 {
		return PassphraseStrength{Score: 0, Valid: false}
	}

	score := min(length, 20) * 3

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range passphrase {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	for _, present := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if present {
			score += 10
		}
	}

	if score > 100 {
		score = 100
	}

	return PassphraseStrength{Score: score, Valid: score >= PassphraseValidThreshold}
}

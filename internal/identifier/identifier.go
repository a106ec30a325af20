// Package identifier classifies and normalizes what a visitor types into the
// checker: either an EVM wallet address or a whitelist username.
package identifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinLength is the shortest trimmed input accepted for a check.
const MinLength = 2

// Shape tells wallet addresses and usernames apart.
type Shape int

const (
	ShapeUsername Shape = iota
	ShapeWallet
)

func (s Shape) String() string {
	if s == ShapeWallet {
		return "wallet"
	}
	return "username"
}

// Field names the whitelist column a lookup is keyed on.
type Field string

const (
	FieldWallet   Field = "wallet_address"
	FieldUsername Field = "username"
)

// Identifier is a parsed visitor input.
type Identifier struct {
	// Raw is the input with surrounding whitespace removed, original case kept.
	Raw        string
	Normalized string
	// Shape is derived from Raw and is case sensitive on the 0x prefix.
	Shape Shape
	// Field is derived from the lowercased input and picks the lookup column.
	Field Field
}

// IsWallet reports whether s is exactly 0x followed by 40 hex digits.
func IsWallet(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// Classify returns the shape of s without trimming or lowercasing it.
func Classify(s string) Shape {
	if IsWallet(s) {
		return ShapeWallet
	}
	return ShapeUsername
}

// TooShort reports whether the trimmed input is below MinLength characters.
func TooShort(raw string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(raw)) < MinLength
}

// Normalize trims, lowercases and, for usernames, strips the leading @.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(raw string) string {
	lowered := lower(strings.TrimSpace(raw))
	if IsWallet(lowered) {
		return lowered
	}
	return strings.TrimLeftFunc(lowered, func(r rune) bool {
		return r == '@' || unicode.IsSpace(r)
	})
}

// Parse splits raw input into its trimmed, normalized and classified forms.
func Parse(raw string) Identifier {
	trimmed := strings.TrimSpace(raw)
	field := FieldUsername
	if IsWallet(lower(trimmed)) {
		field = FieldWallet
	}
	return Identifier{
		Raw:        trimmed,
		Normalized: Normalize(trimmed),
		Shape:      Classify(trimmed),
		Field:      field,
	}
}

// NormalizeWallet lowercases a wallet address for storage.
func NormalizeWallet(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Checksum renders a wallet address in EIP-55 mixed case for display.
func Checksum(wallet string) string {
	if !common.IsHexAddress(wallet) {
		return wallet
	}
	return common.HexToAddress(wallet).Hex()
}

func lower(s string) string {
	// Casers hold state, so each call gets its own.
	return cases.Lower(language.Und).String(s)
}

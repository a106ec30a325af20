package identifier

import (
	"strings"
	"testing"
)

const sampleWallet = "0xAbC1230000000000000000000000000000dEaDbe"

func TestIsWallet(t *testing.T) {
	cases := map[string]bool{
		sampleWallet:                  true,
		strings.ToLower(sampleWallet): true,
		"0X" + sampleWallet[2:]:       false,
		sampleWallet[2:]:              false,
		sampleWallet + "0":            false,
		"0x" + strings.Repeat("Z", 40): false,
		" " + sampleWallet:            false,
		"@dooduser":                   false,
	}
	for in, want := range cases {
		if got := IsWallet(in); got != want {
			t.Fatalf("IsWallet(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  @DoodUser ":          "dooduser",
		"dooduser":              "dooduser",
		"@@bob":                 "bob",
		"@ bob":                 "bob",
		"  " + sampleWallet:     strings.ToLower(sampleWallet),
		"@" + sampleWallet:      strings.ToLower(sampleWallet),
		"ÉLODIE":                "élodie",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDropsSpaceAfterAt(t *testing.T) {
	// The whole leading run of @ and whitespace goes, not just the first @.
	for _, in := range []string{"@ foo", "@\tfoo", " @ @foo", "@@  foo"} {
		if got := Normalize(in); got != "foo" {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, "foo")
		}
	}
	if got := Parse("@ Foo").Normalized; got != "foo" {
		t.Fatalf("Parse normalized = %q, want %q", got, "foo")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"@DoodUser", " @ @Mixed Case ", sampleWallet, "0X" + sampleWallet[2:],
		"@" + sampleWallet, "plain", "  ", "@", "ÉLODIE",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestParse(t *testing.T) {
	id := Parse("  @DoodUser ")
	if id.Raw != "@DoodUser" || id.Normalized != "dooduser" {
		t.Fatalf("unexpected parse %+v", id)
	}
	if id.Shape != ShapeUsername || id.Field != FieldUsername {
		t.Fatalf("expected username shape and field, got %+v", id)
	}

	wallet := Parse(sampleWallet)
	if wallet.Shape != ShapeWallet || wallet.Field != FieldWallet {
		t.Fatalf("expected wallet shape and field, got %+v", wallet)
	}
	if wallet.Normalized != strings.ToLower(sampleWallet) {
		t.Fatalf("expected lowercased wallet, got %s", wallet.Normalized)
	}
}

func TestParseUppercasePrefixDisagrees(t *testing.T) {
	// The shape is taken from the original input while the lookup column is
	// taken from the lowercased one.
	id := Parse("0X" + sampleWallet[2:])
	if id.Shape != ShapeUsername {
		t.Fatalf("expected username shape for 0X prefix, got %s", id.Shape)
	}
	if id.Field != FieldWallet {
		t.Fatalf("expected wallet lookup column, got %s", id.Field)
	}
}

func TestTooShort(t *testing.T) {
	for _, in := range []string{"", " ", "a", "  b  ", "é"} {
		if !TooShort(in) {
			t.Fatalf("expected %q to be too short", in)
		}
	}
	for _, in := range []string{"ab", " @x ", "éé"} {
		if TooShort(in) {
			t.Fatalf("expected %q to be long enough", in)
		}
	}
}

func TestChecksum(t *testing.T) {
	lowered := strings.ToLower(sampleWallet)
	got := Checksum(lowered)
	if !strings.EqualFold(got, lowered) {
		t.Fatalf("checksum changed the address: %s", got)
	}
	if !strings.HasPrefix(got, "0x") {
		t.Fatalf("expected 0x prefix, got %s", got)
	}
	if Checksum("dooduser") != "dooduser" {
		t.Fatal("non-addresses should pass through")
	}
}

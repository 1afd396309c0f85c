package decimal

import (
	"math/big"
	"testing"
)

func mustParse(t *testing.T, s string) Decimal {
	t.Helper()
	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return d
}

func TestParseNormalizesLeadingAndTrailingZeros(t *testing.T) {
	cases := []struct {
		in       string
		wantStr  string
		wantScal int
	}{
		{"001", "1", 0},
		{"00.1", "0.1", 1},
		{"0.0", "0", 0},
		{"0.100", "0.1", 1},
		{"0", "0", 0},
		{"00.00100", "0.001", 3},
		{"1.1000", "1.1", 1},
		{"1.000000000000000001", "1.000000000000000001", 18},
	}
	for _, c := range cases {
		d := mustParse(t, c.in)
		if d.String() != c.wantStr {
			t.Errorf("Parse(%q).String() = %q, want %q", c.in, d.String(), c.wantStr)
		}
		if d.Scale() != c.wantScal {
			t.Errorf("Parse(%q).Scale() = %d, want %d", c.in, d.Scale(), c.wantScal)
		}
	}
}

func TestParseRejectsInvalidLiterals(t *testing.T) {
	invalid := []string{
		"", " ", ".", " 123.456", ".456", ".456 ", " .456 ", " 456", "456 ",
		"45 6", "123. 456", "123.-456", "123.+456", "+123.456",
		"123.456.789", "123456789.", "123456789.12345678901234567891",
		"-1.1", "1e2", "0e2", "100E2", "1.0000000000000000001",
	}
	for _, s := range invalid {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want ErrInvalidNum", s)
		}
	}
}

func TestCheckedAdd(t *testing.T) {
	cases := []struct{ a, b, want string }{
		{"1", "1", "2"},
		{"1", "1.1", "2.1"},
		{"1.1", "1", "2.1"},
		{"1.101", "1.121", "2.222"},
	}
	for _, c := range cases {
		got, err := mustParse(t, c.a).CheckedAdd(mustParse(t, c.b))
		if err != nil {
			t.Fatalf("CheckedAdd(%s, %s): %v", c.a, c.b, err)
		}
		if got.String() != c.want {
			t.Errorf("%s + %s = %s, want %s", c.a, c.b, got.String(), c.want)
		}
	}
}

func TestCheckedSub(t *testing.T) {
	cases := []struct{ a, b, want string }{
		{"3", "1", "2"},
		{"3", "0.9", "2.1"},
		{"3.1", "1", "2.1"},
		{"3.303", "1.081", "2.222"},
	}
	for _, c := range cases {
		got, err := mustParse(t, c.a).CheckedSub(mustParse(t, c.b))
		if err != nil {
			t.Fatalf("CheckedSub(%s, %s): %v", c.a, c.b, err)
		}
		if got.String() != c.want {
			t.Errorf("%s - %s = %s, want %s", c.a, c.b, got.String(), c.want)
		}
	}
}

func TestCheckedSubRejectsNegativeResult(t *testing.T) {
	_, err := mustParse(t, "1").CheckedSub(mustParse(t, "2"))
	if err != ErrOverflow {
		t.Fatalf("CheckedSub(1,2) = %v, want ErrOverflow", err)
	}
}

func TestCheckedToUint8(t *testing.T) {
	v, err := mustParse(t, "255").CheckedToUint8()
	if err != nil || v != 255 {
		t.Fatalf("CheckedToUint8(255) = (%d, %v)", v, err)
	}
	if _, err := mustParse(t, "256").CheckedToUint8(); err != ErrOverflow {
		t.Fatalf("CheckedToUint8(256) = %v, want ErrOverflow", err)
	}
	v, err = mustParse(t, "15.00").CheckedToUint8()
	if err != nil || v != 15 {
		t.Fatalf("CheckedToUint8(15.00) = (%d, %v)", v, err)
	}
}

func TestCheckedPowU(t *testing.T) {
	n := mustParse(t, "10")
	cases := []struct {
		exp  uint64
		want string
	}{
		{0, "1"},
		{1, "10"},
		{2, "100"},
		{3, "1000"},
		{18, "1000000000000000000"},
	}
	for _, c := range cases {
		got, err := n.CheckedPowU(c.exp)
		if err != nil {
			t.Fatalf("CheckedPowU(%d): %v", c.exp, err)
		}
		if got.String() != c.want {
			t.Errorf("10^%d = %s, want %s", c.exp, got.String(), c.want)
		}
	}
}

func TestCheckedToUint128(t *testing.T) {
	maxU128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	d := FromBigInt(maxU128)
	got, err := d.CheckedToUint128()
	if err != nil || got.Cmp(maxU128) != 0 {
		t.Fatalf("CheckedToUint128(max) = (%v, %v)", got, err)
	}

	over := mustParse(t, maxU128.String()+"1")
	if _, err := over.CheckedToUint128(); err != ErrOverflow {
		t.Fatalf("CheckedToUint128(overflow) = %v, want ErrOverflow", err)
	}

	frac := mustParse(t, "0.33333")
	if _, err := frac.CheckedToUint128(); err != ErrNotInteger {
		t.Fatalf("CheckedToUint128(fractional) = %v, want ErrNotInteger", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := mustParse(t, "1.01")
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"1.01"` {
		t.Fatalf("MarshalJSON = %s, want \"1.01\"", b)
	}
	var out Decimal
	if err := out.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if out.Cmp(d) != 0 {
		t.Fatalf("round-tripped value %s != original %s", out, d)
	}
}

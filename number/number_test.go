package number

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Variant
		wantErr bool
	}{
		{"integer", "42", VariantInteger, false},
		{"negative integer", "-7", VariantInteger, false},
		{"float", "3.14", VariantFloat, false},
		{"not a number", "abc", 0, true},
		{"nan text", "NaN", 0, true},
		{"inf text", "Inf", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got.Variant() != tt.want {
				t.Errorf("Parse(%q).Variant() = %v, want %v", tt.input, got.Variant(), tt.want)
			}
		})
	}
}

func TestFlt_PanicsOnNaN(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Flt(NaN) did not panic")
		}
	}()
	Flt(nan())
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestCompare_SameVariant(t *testing.T) {
	a := Int(5)
	b := Int(10)

	cmp, err := a.Compare(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp != -1 {
		t.Errorf("Compare(5, 10) = %d, want -1", cmp)
	}

	cmp, err = b.Compare(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp != 1 {
		t.Errorf("Compare(10, 5) = %d, want 1", cmp)
	}

	cmp, err = a.Compare(Int(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp != 0 {
		t.Errorf("Compare(5, 5) = %d, want 0", cmp)
	}
}

func TestCompare_MixedVariant(t *testing.T) {
	_, err := Int(5).Compare(Flt(5.0))
	if err != ErrMixedVariant {
		t.Errorf("Compare across variants = %v, want ErrMixedVariant", err)
	}
}

func TestString(t *testing.T) {
	if got := Int(42).String(); got != "42" {
		t.Errorf("Int(42).String() = %q, want %q", got, "42")
	}
	if got := Flt(3.5).String(); got != "3.5" {
		t.Errorf("Flt(3.5).String() = %q, want %q", got, "3.5")
	}
}

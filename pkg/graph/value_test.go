package graph

import "testing"

func TestEqualValues(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints and floats", 3, 3.0, true},
		{"different numbers", 1.0, 1.0001, false},
		{"strings", "outlet", "outlet", true},
		{"string vs number", "1", 1.0, false},
		{"typed slice vs any slice", []float64{1, 2}, []any{1.0, 2.0}, true},
		{"slice length", []any{1.0}, []any{1.0, 2.0}, false},
		{"nested maps", map[string]any{"a": []int{1}}, map[string]any{"a": []any{1.0}}, true},
		{"map key mismatch", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"nil", nil, nil, true},
		{"nil vs zero", nil, 0.0, false},
		{"bools", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestApproxEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"within tolerance", 100.0, 100.05, true},
		{"outside tolerance", 100.0, 100.5, false},
		{"both near zero", 0.0001, -0.0005, true},
		{"zero against large", 0.0, 1000.0, false},
		{"large against near zero", 1000.0, 0.0005, false},
		{"tolerance is symmetric", 100.05, 100.0, true},
		{"arrays element-wise", []any{10.0, 20.0}, []any{10.001, 20.001}, true},
		{"arrays differ", []any{10.0, 20.0}, []any{10.0, 25.0}, false},
		{"array lengths", []any{10.0}, []any{10.0, 20.0}, false},
		{"strings", "sine", "sine", true},
		{"strings differ", "sine", "saw", false},
		{"mixed types", "1", 1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApproxEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ApproxEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareModes(t *testing.T) {
	if Compare(CompareExact, 100.0, 100.05) {
		t.Error("exact mode should reject near values")
	}
	if !Compare(CompareApprox, 100.0, 100.05) {
		t.Error("approx mode should accept near values")
	}
}

func TestParseComparison(t *testing.T) {
	for _, s := range []string{"", "exact", "approx"} {
		if _, ok := ParseComparison(s); !ok {
			t.Errorf("ParseComparison(%q) should succeed", s)
		}
	}
	if _, ok := ParseComparison("fuzzy"); ok {
		t.Error("ParseComparison(fuzzy) should fail")
	}
	if CompareApprox.String() != "approx" || CompareExact.String() != "exact" {
		t.Error("String() should round-trip configuration names")
	}
}

func TestCopyProperties(t *testing.T) {
	src := Props{
		"op":    "newnode",
		"path":  "a",
		"paths": []any{"a", "b"},
		"kind":  "outlet",
		"pos":   []any{1.0, 2.0},
	}
	dst := CopyProperties(src, nil)

	if len(dst) != 2 {
		t.Fatalf("CopyProperties kept %v, want only kind and pos", dst)
	}
	src["pos"].([]any)[0] = 99.0
	if dst["pos"].([]any)[0] != 1.0 {
		t.Error("CopyProperties should deep-copy values")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{10, "10"},
		{0.5, "0.5"},
		{"noise", `"noise"`},
		{[]any{10.0, 20.0}, "[10,20]"},
		{map[string]any{"b": 1, "a": "x"}, `{a="x",b=1}`},
		{nil, "null"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package inventory

import "testing"

func TestCanonicalValue(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		values []string
		field  SemanticField
		want   string
	}{
		{
			name:   "capitalized key",
			header: []string{"Location"},
			values: []string{"HQ"},
			field:  FieldLocation,
			want:   "HQ",
		},
		{
			name:   "lowercase key",
			header: []string{"location"},
			values: []string{"HQ"},
			field:  FieldLocation,
			want:   "HQ",
		},
		{
			name:   "spanish key",
			header: []string{"Ubicación"},
			values: []string{"Bodega"},
			field:  FieldLocation,
			want:   "Bodega",
		},
		{
			name:   "first accepted key wins",
			header: []string{"Status", "status"},
			values: []string{"Retired", "Active"},
			field:  FieldStatus,
			want:   "Active",
		},
		{
			name:   "present but empty value is kept",
			header: []string{"user", "Usuario"},
			values: []string{"", "ana"},
			field:  FieldUser,
			want:   "",
		},
		{
			name:   "absent key uses fallback",
			header: []string{"asset_tag"},
			values: []string{"A-1"},
			field:  FieldSerial,
			want:   "Unknown serial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewHeader(tt.header...).Row(1, tt.values...)
			if got := CanonicalValue(row, tt.field); got != tt.want {
				t.Errorf("CanonicalValue(%s) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestCanonicalValue_SameResultForEitherCasing(t *testing.T) {
	upper := NewHeader("Location").Row(1, "HQ")
	lower := NewHeader("location").Row(1, "HQ")

	if CanonicalValue(upper, FieldLocation) != CanonicalValue(lower, FieldLocation) {
		t.Error("Location and location resolved differently")
	}
}

func TestResolve_AbsentVersusEmpty(t *testing.T) {
	empty := NewHeader("purchase_date").Row(1, "")
	if v, ok := Resolve(empty, FieldPurchaseDate); !ok || v != "" {
		t.Errorf("Resolve(empty) = %q, %v; want \"\", true", v, ok)
	}

	absent := NewHeader("name").Row(1, "laptop")
	if _, ok := Resolve(absent, FieldPurchaseDate); ok {
		t.Error("Resolve(absent) reported present")
	}
}

func TestSemanticFieldsHaveFallbacks(t *testing.T) {
	for _, f := range SemanticFields() {
		if f.Fallback() == "" {
			t.Errorf("%s has no fallback label", f)
		}
		if len(f.Keys()) == 0 {
			t.Errorf("%s has no accepted keys", f)
		}
	}
}

func TestParseSemanticField(t *testing.T) {
	tests := []struct {
		input string
		want  SemanticField
		ok    bool
	}{
		{"location", FieldLocation, true},
		{"Status", FieldStatus, true},
		{"USER", FieldUser, true},
		{"purchase_date", FieldPurchaseDate, true},
		{"purchase-date", FieldPurchaseDate, true},
		{"purchaseDate", FieldPurchaseDate, true},
		{"serial", FieldSerial, true},
		{"color", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSemanticField(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSemanticField(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

package inventory

import "strings"

// SemanticField is a business attribute that may appear under several
// literal column names.
type SemanticField string

const (
	FieldLocation     SemanticField = "location"
	FieldStatus       SemanticField = "status"
	FieldUser         SemanticField = "user"
	FieldPurchaseDate SemanticField = "purchaseDate"
	FieldSerial       SemanticField = "serial"
)

// fieldSpec lists the accepted keys for a semantic field in priority order
// and the label used when none of them is present.
type fieldSpec struct {
	keys     []string
	fallback string
}

// semanticFields is the single source of truth for key resolution.
var semanticFields = map[SemanticField]fieldSpec{
	FieldLocation: {
		keys:     []string{"location", "Location", "LOCATION", "ubicacion", "Ubicacion", "ubicación", "Ubicación"},
		fallback: "Unknown location",
	},
	FieldStatus: {
		keys:     []string{"status", "Status", "STATUS", "estado", "Estado"},
		fallback: "Unknown status",
	},
	FieldUser: {
		keys:     []string{"user", "User", "USER", "usuario", "Usuario", "assigned_to", "Assigned To"},
		fallback: "Unknown user",
	},
	FieldPurchaseDate: {
		keys:     []string{"purchase_date", "purchaseDate", "PurchaseDate", "purchase date", "Purchase Date", "fecha_compra", "Fecha de compra"},
		fallback: "Unknown purchase date",
	},
	FieldSerial: {
		keys:     []string{"serial", "Serial", "SERIAL", "serial_number", "SerialNumber", "Serial Number", "numero_serie"},
		fallback: "Unknown serial",
	},
}

// SemanticFields returns every semantic field in a stable order.
func SemanticFields() []SemanticField {
	return []SemanticField{FieldLocation, FieldStatus, FieldUser, FieldPurchaseDate, FieldSerial}
}

// ParseSemanticField resolves a field name case-insensitively, accepting
// "purchase_date" and "purchase-date" for FieldPurchaseDate.
func ParseSemanticField(s string) (SemanticField, bool) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, f := range SemanticFields() {
		if strings.ToLower(string(f)) == norm {
			return f, true
		}
	}
	return "", false
}

// Keys returns the accepted literal keys in priority order.
func (f SemanticField) Keys() []string {
	return append([]string(nil), semanticFields[f].keys...)
}

// Fallback returns the label used when a row has none of the field's keys.
func (f SemanticField) Fallback() string {
	return semanticFields[f].fallback
}

// Resolve returns the value of the first accepted key present in row.
// A present key wins even when its value is empty.
func Resolve(row Row, f SemanticField) (string, bool) {
	for _, key := range semanticFields[f].keys {
		if v, ok := row.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

// CanonicalValue returns the resolved value for f, or the field's fallback
// label when no accepted key is present.
func CanonicalValue(row Row, f SemanticField) string {
	if v, ok := Resolve(row, f); ok {
		return v
	}
	return f.Fallback()
}

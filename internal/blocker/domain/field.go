package domain

// FieldKind is a tagged variant over the form field types the blocker
// cares about. Host frameworks expose email inputs either as a dedicated
// field type or as a text field with an HTML5 "email" input subtype; the
// boundary adapter folds both into FieldEmail.
type FieldKind uint8

const (
	FieldOther FieldKind = iota
	FieldText
	FieldEmail
)

// Field describes one submitted form field by value. The validation
// adapter never mutates fields in place; failures come back as separate
// annotations keyed by field ID.
type Field struct {
	ID    string
	Kind  FieldKind
	Value string
}

// FieldKindOf maps a host framework's field type plus optional input
// subtype onto a FieldKind.
func FieldKindOf(fieldType, inputType string) FieldKind {
	if fieldType == "email" || inputType == "email" {
		return FieldEmail
	}
	if fieldType == "text" {
		return FieldText
	}
	return FieldOther
}

package models

import "strings"

// FieldKind tells which shape a value had in the export.
type FieldKind int

const (
	FieldAbsent FieldKind = iota
	FieldText
	FieldList
)

// Field is a raw export value, resolved once at load time so later stages
// never have to inspect dynamic types again.
type Field struct {
	Kind  FieldKind
	Text  string
	Items []string
}

func Absent() Field { return Field{Kind: FieldAbsent} }

func Text(s string) Field { return Field{Kind: FieldText, Text: s} }

func List(items []string) Field { return Field{Kind: FieldList, Items: items} }

func (f Field) IsAbsent() bool { return f.Kind == FieldAbsent }

// String renders the field as flat text. Lists are joined with ", ".
func (f Field) String() string {
	switch f.Kind {
	case FieldText:
		return f.Text
	case FieldList:
		return strings.Join(f.Items, ", ")
	default:
		return ""
	}
}

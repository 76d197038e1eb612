package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a generation run can report.
type ErrorKind string

const (
	KindUnknown                  ErrorKind = "unknown"
	KindInputEmpty               ErrorKind = "input_empty"
	KindNoMappings               ErrorKind = "no_mappings"
	KindContainerOpenFailed      ErrorKind = "container_open_failed"
	KindContainerWriteFailed     ErrorKind = "container_write_failed"
	KindTemplateStructureInvalid ErrorKind = "template_structure_invalid"
	KindSheetNotFound            ErrorKind = "sheet_not_found"
	KindRelationshipMissing      ErrorKind = "relationship_missing"
	KindPartMissing              ErrorKind = "part_missing"
	KindMalformedXML             ErrorKind = "malformed_xml"
	KindAddressInvalid           ErrorKind = "address_invalid"
)

// KindError is a sentinel carrying its kind. Packages declare their sentinels
// with NewKind so callers can use errors.Is and KindOf alike.
type KindError struct {
	Kind ErrorKind
	msg  string
}

func (e *KindError) Error() string { return e.msg }

// NewKind creates a sentinel error of the given kind.
func NewKind(kind ErrorKind, msg string) *KindError {
	return &KindError{Kind: kind, msg: msg}
}

var (
	// ErrInputEmpty indicates the dataset has no data rows.
	ErrInputEmpty = NewKind(KindInputEmpty, "no input rows")
	// ErrNoMappings indicates no usable column-to-cell mapping remains.
	ErrNoMappings = NewKind(KindNoMappings, "no usable column mappings")
	// ErrAddressInvalid marks a mapping whose cell reference cannot be decoded.
	ErrAddressInvalid = NewKind(KindAddressInvalid, "invalid cell reference")
)

// KindOf returns the kind of the first KindError in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// Message returns the user-facing explanation for a failure kind.
func Message(kind ErrorKind) string {
	switch kind {
	case KindInputEmpty:
		return "The data file does not contain any data rows."
	case KindNoMappings:
		return "Assign at least one column to a valid template cell."
	case KindContainerOpenFailed:
		return "The template workbook could not be opened."
	case KindContainerWriteFailed:
		return "The output workbook could not be written."
	case KindTemplateStructureInvalid:
		return "The template workbook is damaged or not a spreadsheet package."
	case KindSheetNotFound:
		return "The selected sheet does not exist in the template."
	case KindRelationshipMissing:
		return "The template sheet is not linked from the workbook."
	case KindPartMissing:
		return "The template sheet data is missing from the workbook."
	case KindMalformedXML:
		return "The template sheet contains malformed XML."
	case KindAddressInvalid:
		return "A cell reference is not valid."
	default:
		return "Generation failed."
	}
}

// Describe formats err for display, prefixed with the message for its kind.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s\n%v", Message(KindOf(err)), err)
}

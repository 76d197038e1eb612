package workbook

import "github.com/nconklindev/bulksheet/internal/types"

var (
	// ErrStructureInvalid indicates a missing or unparsable package-level
	// document: content types, workbook or its relationships.
	ErrStructureInvalid = types.NewKind(types.KindTemplateStructureInvalid, "template structure invalid")
	// ErrSheetNotFound indicates no declared sheet has the requested name.
	ErrSheetNotFound = types.NewKind(types.KindSheetNotFound, "sheet not found")
	// ErrRelationshipMissing indicates the sheet's relationship id has no
	// worksheet relationship.
	ErrRelationshipMissing = types.NewKind(types.KindRelationshipMissing, "worksheet relationship missing")
	// ErrPartMissing indicates the worksheet part is absent from the archive.
	ErrPartMissing = types.NewKind(types.KindPartMissing, "worksheet part missing")
)

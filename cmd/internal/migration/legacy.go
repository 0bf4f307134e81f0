package migration

import (
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/utils"
)

// FallbackCode is assigned to legacy statuses nobody could map.
const FallbackCode = workflow.CodeInPreparation

// LegacyStatusMap maps the free-text statuses typed before the catalog
// existed onto catalog codes. Keys are folded with utils.FoldName.
var LegacyStatusMap = map[string]string{
	"em preparacao":            workflow.CodeInPreparation,
	"preparacao":               workflow.CodeInPreparation,
	"preparando":               workflow.CodeInPreparation,
	"novo":                     workflow.CodeInPreparation,
	"aguardando documentos":    workflow.CodeInPreparation,
	"protocolado":              workflow.CodeFiled,
	"protocolo":                workflow.CodeFiled,
	"protocolado no mj":        workflow.CodeFiled,
	"exigencia":                workflow.CodeRequirement,
	"em exigencia":             workflow.CodeRequirement,
	"cumprimento de exigencia": workflow.CodeRequirement,
	"juntada":                  workflow.CodeDocumentAddendum,
	"juntada de documento":     workflow.CodeDocumentAddendum,
	"juntada de documentos":    workflow.CodeDocumentAddendum,
	"em analise":               workflow.CodeUnderAnalysis,
	"analise":                  workflow.CodeUnderAnalysis,
	"deferido":                 workflow.CodeApproved,
	"aprovado":                 workflow.CodeApproved,
	"publicado":                workflow.CodePublished,
	"publicado no dou":         workflow.CodePublished,
	"publicado dou":            workflow.CodePublished,
	"indeferido":               workflow.CodeDenied,
	"negado":                   workflow.CodeDenied,
	"cancelado":                workflow.CodeCancelled,
	"arquivado":                workflow.CodeCancelled,
	"desistencia":              workflow.CodeCancelled,
}

// MapLegacyStatus returns the catalog code for a legacy status and whether
// the lookup table knew it.
func MapLegacyStatus(legacy string) (string, bool) {
	code, ok := LegacyStatusMap[utils.FoldName(legacy)]
	if !ok {
		return FallbackCode, false
	}
	return code, true
}

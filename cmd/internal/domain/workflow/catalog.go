package workflow

// Codes of the statuses shipped with the default catalog.
const (
	CodeInPreparation    = "em_preparacao"
	CodeFiled            = "protocolado"
	CodeRequirement      = "exigencia"
	CodeDocumentAddendum = "juntada_documento"
	CodeUnderAnalysis    = "em_analise"
	CodeApproved         = "deferido"
	CodePublished        = "publicado"
	CodeDenied           = "indeferido"
	CodeCancelled        = "cancelado"
)

// Seed describes a catalog entry created when the catalog is empty.
type Seed struct {
	Code           string
	Name           string
	NameEn         string
	Category       string
	Color          string
	SortOrder      int
	OrderNumber    *int
	FillableFields []string
	AllowedNext    []string
}

// DefaultCatalog is the catalog as it was first defined. Exigência was part of
// the sequence back then; SequentialCodes is the current definition.
var DefaultCatalog = []Seed{
	{
		Code: CodeInPreparation, Name: "Em preparação", NameEn: "In preparation",
		Category: "preparation", Color: "#9CA3AF", SortOrder: 1, OrderNumber: intPtr(1),
		AllowedNext: []string{CodeFiled, CodeCancelled},
	},
	{
		Code: CodeFiled, Name: "Protocolado", NameEn: "Filed",
		Category: "filing", Color: "#3B82F6", SortOrder: 2, OrderNumber: intPtr(2),
		FillableFields: []string{"protocolNumber", "protocolDate"},
		AllowedNext:    []string{CodeUnderAnalysis, CodeRequirement, CodeDocumentAddendum, CodeCancelled},
	},
	{
		Code: CodeRequirement, Name: "Exigência", NameEn: "Requirement",
		Category: "requirement", Color: "#F59E0B", SortOrder: 3, OrderNumber: intPtr(3),
		FillableFields: []string{"requirementDeadline", "requirementDescription"},
		AllowedNext:    []string{CodeDocumentAddendum, CodeUnderAnalysis, CodeDenied, CodeCancelled},
	},
	{
		Code: CodeDocumentAddendum, Name: "Juntada de documento", NameEn: "Document addendum",
		Category: "requirement", Color: "#F97316", SortOrder: 4,
		FillableFields: []string{"addendumDate"},
		AllowedNext:    []string{CodeUnderAnalysis, CodeRequirement, CodeCancelled},
	},
	{
		Code: CodeUnderAnalysis, Name: "Em análise", NameEn: "Under analysis",
		Category: "analysis", Color: "#6366F1", SortOrder: 5, OrderNumber: intPtr(4),
		AllowedNext: []string{CodeApproved, CodeDenied, CodeRequirement, CodeDocumentAddendum, CodeCancelled},
	},
	{
		Code: CodeApproved, Name: "Deferido", NameEn: "Approved",
		Category: "decision", Color: "#10B981", SortOrder: 6, OrderNumber: intPtr(5),
		FillableFields: []string{"approvalDate"},
		AllowedNext:    []string{CodePublished},
	},
	{
		Code: CodePublished, Name: "Publicado no DOU", NameEn: "Published in the Official Gazette",
		Category: "decision", Color: "#059669", SortOrder: 7, OrderNumber: intPtr(6),
		FillableFields: []string{"publicationDate"},
	},
	{
		Code: CodeDenied, Name: "Indeferido", NameEn: "Denied",
		Category: "decision", Color: "#EF4444", SortOrder: 8,
	},
	{
		Code: CodeCancelled, Name: "Cancelado", NameEn: "Cancelled",
		Category: "closed", Color: "#6B7280", SortOrder: 9,
	},
}

// SequentialCodes is the happy path, in order. Statuses missing here have no
// orderNumber once the renumbering migration ran.
var SequentialCodes = []string{
	CodeInPreparation,
	CodeFiled,
	CodeUnderAnalysis,
	CodeApproved,
	CodePublished,
}

// DefaultTransitions is the adjacency table of DefaultCatalog.
func DefaultTransitions() map[string][]string {
	edges := make(map[string][]string, len(DefaultCatalog))
	for _, s := range DefaultCatalog {
		edges[s.Code] = append([]string{}, s.AllowedNext...)
	}
	return edges
}

func intPtr(n int) *int {
	return &n
}

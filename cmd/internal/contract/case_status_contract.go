package contract

type CaseStatusResponse struct {
	ID             int64    `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	NameEn         string   `json:"name_en,omitempty"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category,omitempty"`
	Color          string   `json:"color,omitempty"`
	SortOrder      int      `json:"sort_order"`
	OrderNumber    *int     `json:"order_number"`
	FillableFields []string `json:"fillable_fields"`
	AllowedNext    []string `json:"allowed_next"`
	IsActive       bool     `json:"is_active"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type CreateCaseStatusRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=64,statuscode"`
	Name        string `json:"name" validate:"required,min=2,max=120"`
	NameEn      string `json:"name_en" validate:"max=120"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=64"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`

	// SortOrder defaults to the end of the catalog when omitted.
	SortOrder      *int     `json:"sort_order" validate:"omitempty,min=0"`
	OrderNumber    *int     `json:"order_number" validate:"omitempty,min=1"`
	FillableFields []string `json:"fillable_fields" validate:"omitempty,max=50,nodupes,dive,required,max=64,nospaces"`
	AllowedNext    []string `json:"allowed_next" validate:"omitempty,max=50,nodupes,dive,required,statuscode"`
}

// UpdateCaseStatusRequest patches an entry. Nil fields are left untouched,
// an empty list clears the corresponding column.
type UpdateCaseStatusRequest struct {
	Code             *string  `json:"code" validate:"omitempty,min=2,max=64,statuscode"`
	Name             *string  `json:"name" validate:"omitempty,min=2,max=120"`
	NameEn           *string  `json:"name_en" validate:"omitempty,max=120"`
	Description      *string  `json:"description" validate:"omitempty,max=1000"`
	Category         *string  `json:"category" validate:"omitempty,max=64"`
	Color            *string  `json:"color" validate:"omitempty,hexcolor"`
	SortOrder        *int     `json:"sort_order" validate:"omitempty,min=0"`
	OrderNumber      *int     `json:"order_number" validate:"omitempty,min=1"`
	ClearOrderNumber bool     `json:"clear_order_number"`
	FillableFields   []string `json:"fillable_fields" validate:"omitempty,max=50,nodupes,dive,required,max=64,nospaces"`
	AllowedNext      []string `json:"allowed_next" validate:"omitempty,max=50,nodupes,dive,required,statuscode"`
}

type ReorderItem struct {
	ID        int64 `json:"id" validate:"required"`
	SortOrder int   `json:"sort_order" validate:"min=0"`
}

type ReorderRequest struct {
	Items []*ReorderItem `json:"items" validate:"required,min=1,max=500,dive,required"`
}

type ToggleCaseStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// TransitionsResponse dumps the workflow currently enforced.
type TransitionsResponse struct {
	Edges    map[string][]string `json:"edges"`
	Terminal []string            `json:"terminal"`
}

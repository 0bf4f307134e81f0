package contract

type CreatePersonRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2,max=160"`
	Email          string `json:"email" validate:"omitempty,email"`
	Nationality    string `json:"nationality" validate:"max=80"`
	PassportNumber string `json:"passport_number" validate:"omitempty,max=32,nospaces"`
}

type PersonResponse struct {
	ID             int64  `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type CreateProcessRequest struct {
	PersonID            int64  `json:"person_id" validate:"required"`
	CollectiveProcessID *int64 `json:"collective_process_id"`
	ProcessType         string `json:"process_type" validate:"required,min=2,max=64"`

	// InitialStatus is the catalog code the case starts in, if any.
	InitialStatus string `json:"initial_status" validate:"omitempty,statuscode"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type ProcessResponse struct {
	ID                  int64               `json:"id"`
	PersonID            int64               `json:"person_id"`
	CollectiveProcessID *int64              `json:"collective_process_id"`
	ProcessType         string              `json:"process_type"`
	Version             int64               `json:"version"`
	CurrentStatus       *CaseStatusResponse `json:"current_status"`
	CreatedAt           string              `json:"created_at"`
	UpdatedAt           string              `json:"updated_at"`
}

type CreateCollectiveProcessRequest struct {
	Reference   string `json:"reference" validate:"required,min=2,max=64,nospaces"`
	CompanyName string `json:"company_name" validate:"required,min=2,max=160"`
	CompanyCNPJ string `json:"company_cnpj" validate:"omitempty,cnpj"`
}

type CollectiveProcessResponse struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	CompanyName string `json:"company_name"`
	CompanyCNPJ string `json:"company_cnpj,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

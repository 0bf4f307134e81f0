package contract

type BulkStatusRequest struct {
	CaseIDs []int64 `json:"case_ids" validate:"required,min=1,max=1000"`
	Status  string  `json:"status" validate:"required,statuscode"`
	Notes   string  `json:"notes" validate:"max=2000"`
}

// Items of bulk creations are validated one by one, so a bad entry
// only fails itself.
type BulkPeopleRequest struct {
	People []*CreatePersonRequest `json:"people" validate:"required,min=1,max=500"`
}

type BulkProcessesRequest struct {
	Processes []*CreateProcessRequest `json:"processes" validate:"required,min=1,max=500"`
}

type BulkFailure struct {
	ID      int64  `json:"id,omitempty"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type BulkResult struct {
	Successful []int64        `json:"successful"`
	Failed     []*BulkFailure `json:"failed"`
}

func NewBulkResult() *BulkResult {
	return &BulkResult{
		Successful: []int64{},
		Failed:     []*BulkFailure{},
	}
}

package entity

// Person is the foreign national an individual process is opened for.
type Person struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false"`
	FullName       string `gorm:"not null"`
	Email          string `gorm:"not null;default:''"`
	Nationality    string `gorm:"not null;default:''"`
	PassportNumber string `gorm:"not null;default:'';index"`
	CreatedAt      int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt      int64  `gorm:"not null;autoUpdateTime:false"`
}

// CollectiveProcess groups the individual processes filed together for one company.
type CollectiveProcess struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Reference   string `gorm:"not null;uniqueIndex"`
	CompanyName string `gorm:"not null"`
	CompanyCNPJ string `gorm:"column:company_cnpj;not null;default:''"`

	// LegacyStatus is the retired free-text status column. It is only kept so the
	// archive migration can move its content into the activity log.
	LegacyStatus string `gorm:"column:status;not null;default:''"`

	CreatedAt int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`
}

// IndividualProcess is a case: one person's immigration process.
type IndividualProcess struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement:false"`
	PersonID            int64  `gorm:"not null;index"`
	CollectiveProcessID *int64 `gorm:"index"`
	ProcessType         string `gorm:"not null"`

	// CaseStatusID is the source of truth for the current status. It always
	// agrees with the single active IndividualProcessStatus row of the case.
	CaseStatusID *int64 `gorm:"index"`

	// Version is bumped on every status change and checked before writing.
	Version int64 `gorm:"not null"`

	// LegacyStatus is the pre-catalog free-text status, read by the backfill
	// migration only. Nothing writes it anymore.
	LegacyStatus string `gorm:"column:status;not null;default:''"`

	CreatedAt int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`
}

// IndividualProcessStatus is one entry of a case's status history.
type IndividualProcessStatus struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement:false"`
	IndividualProcessID int64  `gorm:"not null;index"`
	CaseStatusID        *int64 `gorm:"index"`
	StatusName          string `gorm:"not null"`
	IsActive            bool   `gorm:"not null;index"`
	ChangedByID         int64  `gorm:"not null"`
	ChangedAt           int64  `gorm:"not null"`
	Notes               string `gorm:"not null;default:''"`
	CreatedAt           int64  `gorm:"not null;autoCreateTime:false"`
}

package entity

const (
	EntityCaseStatus        = "case_status"
	EntityIndividualProcess = "individual_process"
	EntityCollectiveProcess = "collective_process"
	EntityPerson            = "person"
	EntityStatusHistory     = "individual_process_status"
)

// ActivityLog is the generic audit trail written asynchronously after mutations.
type ActivityLog struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID     int64  `gorm:"not null;index"`
	Action     string `gorm:"not null"`
	EntityType string `gorm:"not null;index:idx_activity_entity"`
	EntityID   int64  `gorm:"not null;index:idx_activity_entity"`
	Details    string `gorm:"type:text;not null;default:'{}'"`
	CreatedAt  int64  `gorm:"not null;index;autoCreateTime:false"`
}

// MigrationRecord is one row of the applied data migrations ledger.
type MigrationRecord struct {
	ID           string `gorm:"primaryKey"`
	Description  string `gorm:"not null"`
	RowsAffected int64  `gorm:"not null"`
	AppliedAt    int64  `gorm:"not null"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

package entity

// User is the profile of someone operating the agency back office.
// Identities live in the external identity provider; SubUUID links both.
type User struct {
	ID          int64      `gorm:"primaryKey;autoIncrement:false"`
	SubUUID     string     `gorm:"not null;uniqueIndex"`
	DisplayName string     `gorm:"not null"`
	Email       string     `gorm:"not null"`
	Permissions Permission `gorm:"not null;type:bigint;default:0"`
	Active      bool       `gorm:"not null"`
	CreatedAt   int64      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   int64      `gorm:"not null;autoUpdateTime:false"`
}

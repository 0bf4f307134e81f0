package entity

type Connection struct {
	ConnectionID string `gorm:"primaryKey;autoIncrement:false"`
	UserID       int64  `gorm:"not null;index"`
	ExpiresAt    int64  `gorm:"not null;index"`
	CreatedAt    int64  `gorm:"not null;autoCreateTime:false"`
}

package entity

import "strings"

// CaseStatus is an entry of the workflow catalog.
type CaseStatus struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Code        string `gorm:"not null;uniqueIndex"`
	Name        string `gorm:"not null"`
	NameEn      string `gorm:"not null;default:''"`
	Description string `gorm:"not null;default:''"`
	Category    string `gorm:"not null;default:'';index"`
	Color       string `gorm:"not null;default:''"`
	SortOrder   int    `gorm:"not null"`

	// OrderNumber is the position in the sequential workflow. It is nil for
	// statuses that may interrupt the sequence at any point (e.g. exigência).
	OrderNumber *int `gorm:"uniqueIndex"`

	// FillableFields and AllowedNext are space separated lists.
	FillableFields string `gorm:"not null;default:''"`
	AllowedNext    string `gorm:"not null;default:''"`

	IsActive  bool  `gorm:"not null"`
	CreatedAt int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`
}

func (c *CaseStatus) AllowedNextCodes() []string {
	return SplitList(c.AllowedNext)
}

func (c *CaseStatus) FillableFieldList() []string {
	return SplitList(c.FillableFields)
}

// SplitList breaks a space separated column into its items.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Fields(s)
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(items, " ")
}

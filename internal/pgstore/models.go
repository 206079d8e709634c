package pgstore

import "time"

// ProfileModel is a row of the profiles table.
type ProfileModel struct {
	ID        string  `gorm:"primaryKey"`
	UplineID  *string `gorm:"index"`
	FirstName string
	LastName  string
	Email     string
	IsAdmin   bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProfileModel) TableName() string { return "profiles" }

// DealModel is a row of the deals table. MonthlyPremium is free text because
// upstream forms store whatever the agent typed.
type DealModel struct {
	ID             string    `gorm:"primaryKey"`
	AgentID        string    `gorm:"not null;index"`
	OccurredAt     time.Time `gorm:"not null;index"`
	MonthlyPremium *string
	Carrier        string
	Product        string
	Status         string
	ClientName     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (DealModel) TableName() string { return "deals" }

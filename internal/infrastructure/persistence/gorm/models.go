// Package gorm provides GORM model definitions and repositories for the catalog
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel represents the GORM model for users
type UserModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(100);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	IsActive     bool      `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// PlantModel represents the GORM model for the medicinal plant catalog
type PlantModel struct {
	ID              uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Name            string      `gorm:"type:varchar(200);not null;index"`
	ScientificName  string      `gorm:"type:varchar(200);not null"`
	Category        string      `gorm:"type:varchar(100);index"`
	Description     string      `gorm:"type:text"`
	MedicalUses     StringSlice `gorm:"type:json"`
	ActiveCompounds StringSlice `gorm:"type:json"`
	ImageURL        string      `gorm:"type:text"`
	AIInsights      *string     `gorm:"column:ai_insights;type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FavoriteModel represents a (user, plant) favorite with a composite key
type FavoriteModel struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlantID   uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time `gorm:"index"`

	User  UserModel  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Plant PlantModel `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`
}

// StringSlice stores a []string as a JSON array
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlantModel
func (p *PlantModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (UserModel) TableName() string {
	return "users"
}

func (PlantModel) TableName() string {
	return "medicinal_plants"
}

func (FavoriteModel) TableName() string {
	return "user_favorites"
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{&UserModel{}, &PlantModel{}, &FavoriteModel{}}
}

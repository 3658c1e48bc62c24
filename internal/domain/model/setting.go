package model

import "time"

// Setting is an admin-managed key/value pair. Secret values are stored encrypted.
type Setting struct {
	Key       string    `gorm:"size:100;primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"-"`
	IV        string    `gorm:"size:64" json:"-"`
	Encrypted bool      `gorm:"not null;default:false" json:"encrypted"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Setting) TableName() string {
	return "settings"
}

// SettingFulfillmentAPIKey holds the upstream provider key.
const SettingFulfillmentAPIKey = "fulfillment.api_key"

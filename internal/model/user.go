package model

// User carries the identity the auth layer resolves and the processor
// customer handle used for payment setup. Profile editing lives elsewhere.
type User struct {
	BaseModel
	PublicID         int64   `gorm:"uniqueIndex;not null" json:"public_id"`
	Email            string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname         string  `gorm:"type:varchar(64);not null;default:''" json:"nickname"`
	Timezone         string  `gorm:"type:varchar(64);not null;default:'Asia/Tokyo'" json:"timezone"`
	StripeCustomerID *string `gorm:"type:varchar(64);uniqueIndex" json:"-"`
}

func (User) TableName() string {
	return "users"
}

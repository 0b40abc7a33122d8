package models

type UserAccount struct {
	JsonModel
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Banned   bool   `gorm:"default:false" json:"-"`
	LastIp   string `json:"-"`
	GoogleID string `json:"-" gorm:"index"`
	//"STARTED_AUTH", "FINISHED_AUTH"
	Status    string   `json:"-"`
	Platform  Platform `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	AvatarURL string   `json:"avatar_url"`
	// bumped on every wardrobe change, generated outfits are cached per version
	WardrobeVersion uint `gorm:"default:0" json:"-"`
}

type UserPushToken struct {
	JsonModel
	UserAccountID uint
	UserAccount   UserAccount `json:"-"`
	Platform      Platform    `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	Token         string      `json:"token"`
	Active        bool        `gorm:"default:false" json:"-"`
}

type UserPushIn struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,platform"`
}

type UserMeOut struct {
	Id        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	// owned variants per category slug
	WardrobeCounts map[string]int `json:"wardrobe_counts"`
	FavouriteCount int64          `json:"favourite_count"`
}

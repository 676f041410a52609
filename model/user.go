package model

/*

User is a simulated account, either a human-like agent or a news page.

Id: primary key, assigned by the store
Username: unique handle, used to resolve @mentions
Leaning: political alignment tag, used by article feeds and follow suggestion bias
Age, Language, EducationLevel, Gender, Toxicity: attributes compared by the
similarity score
Oe, Co, Ex, Ag, Ne: personality buckets (openness, conscientiousness,
extraversion, agreeableness, neuroticism)
RecsysType, FrecsysType: the feed and follow strategies the agent asks for
IsPage: true for news accounts
JoinedOn: round in which the user registered

*/
type User struct {
	Id             int64  `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;size:64" json:"username"`
	Email          string `json:"email"`
	Password       string `json:"-"`
	Leaning        string `gorm:"default:neutral;index" json:"leaning"`
	UserType       string `gorm:"default:user" json:"user_type"`
	Age            int    `json:"age"`
	Oe             string `json:"oe"`
	Co             string `json:"co"`
	Ex             string `json:"ex"`
	Ag             string `json:"ag"`
	Ne             string `json:"ne"`
	RecsysType     string `gorm:"default:default" json:"rec_sys"`
	FrecsysType    string `gorm:"default:default" json:"frec_sys"`
	Language       string `gorm:"default:en" json:"language"`
	Owner          string `json:"owner"`
	EducationLevel string `json:"education_level"`
	JoinedOn       int64  `json:"joined_on"`
	Gender         string `json:"gender"`
	Nationality    string `json:"nationality"`
	RoundActions   int    `gorm:"default:3" json:"round_actions"`
	Toxicity       string `gorm:"default:no" json:"toxicity"`
	IsPage         bool   `gorm:"index" json:"is_page"`
	Profession     string `json:"profession"`
}

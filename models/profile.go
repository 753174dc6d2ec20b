package models

// Profile represents one catalog entry using GORM for schema migration.
// It corresponds to the 'profiles' table. Reads and writes go through the
// squirrel layer in package database; GORM only owns the column set.
//
// Text columns are nullable in the store. An empty string in Go means unset
// and is written as NULL.
type Profile struct {
	ID                 int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name               string `gorm:"column:name;not null" json:"name"`
	Aka                string `gorm:"column:aka" json:"aka,omitempty"`
	Profession         string `gorm:"column:profession" json:"profession,omitempty"`
	OccupationCategory string `gorm:"column:occupation_category" json:"occupation_category,omitempty"`
	Age                *int   `gorm:"column:age" json:"age,omitempty"` // Nullable
	DOB                string `gorm:"column:dob" json:"dob,omitempty"`
	Birthplace         string `gorm:"column:birthplace" json:"birthplace,omitempty"`
	Hometown           string `gorm:"column:hometown" json:"hometown,omitempty"`
	MaritalStatus      string `gorm:"column:marital_status" json:"marital_status,omitempty"`
	Children           string `gorm:"column:children" json:"children,omitempty"`
	Nationality        string `gorm:"column:nationality" json:"nationality,omitempty"`
	Religion           string `gorm:"column:religion" json:"religion,omitempty"`
	Ethnicity          string `gorm:"column:ethnicity" json:"ethnicity,omitempty"`
	Height             string `gorm:"column:height" json:"height,omitempty"` // free text, e.g. 5'6"
	Weight             string `gorm:"column:weight" json:"weight,omitempty"`
	Measurements       string `gorm:"column:measurements" json:"measurements,omitempty"`
	EyeColor           string `gorm:"column:eye_color" json:"eye_color,omitempty"`
	HairColor          string `gorm:"column:hair_color" json:"hair_color,omitempty"`
	Instagram          string `gorm:"column:instagram" json:"instagram,omitempty"`
	TikTok             string `gorm:"column:tiktok" json:"tiktok,omitempty"`
	Twitter            string `gorm:"column:twitter" json:"twitter,omitempty"`
	OnlyFans           string `gorm:"column:onlyfans" json:"onlyfans,omitempty"`
	Languages          string `gorm:"column:languages" json:"languages,omitempty"`
	Tags               string `gorm:"column:tags" json:"tags,omitempty"` // free text, "#tag" tokens
	Specialties        string `gorm:"column:specialties" json:"specialties,omitempty"`
	Birthday           string `gorm:"column:birthday" json:"birthday,omitempty"`
	Country            string `gorm:"column:country" json:"country,omitempty"`
	Piercings          string `gorm:"column:piercings" json:"piercings,omitempty"`
	Tattoo             string `gorm:"column:tattoo" json:"tattoo,omitempty"`
	Status             string `gorm:"column:status" json:"status,omitempty"`
	HasVideos          bool   `gorm:"column:has_videos" json:"has_videos"`
	HasPictures        bool   `gorm:"column:has_pictures" json:"has_pictures"`
	SexualOrientation  string `gorm:"column:sexual_orientation" json:"sexual_orientation,omitempty"`
	BDSMOrientation    string `gorm:"column:bdsm_orientation" json:"bdsm_orientation,omitempty"`
	Description        string `gorm:"column:description" json:"description,omitempty"`
	FolderName         string `gorm:"column:folder_name" json:"folder_name,omitempty"`
	CreatedAt          int64  `gorm:"column:created_at" json:"created_at"` // Unix timestamp
	UpdatedAt          int64  `gorm:"column:updated_at" json:"updated_at"` // Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// SearchTableName is the FTS5 shadow table kept in sync with profiles.
const SearchTableName = "profiles_fts"

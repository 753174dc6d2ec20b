package models

// Option lists for the enumerated profile attributes.
var (
	MaritalStatusOptions = []string{"Single", "Married", "Divorced", "Widowed", "In Relationship", "Complicated"}
	ChildrenOptions      = []string{"No", "Yes"}
	ReligionOptions      = []string{
		"Christianity", "Islam", "Hinduism", "Buddhism", "Judaism", "Sikhism",
		"Atheist", "Agnostic", "Other",
	}
	EthnicityOptions = []string{
		"Asian", "Black", "Caucasian", "Hispanic / Latino", "Middle Eastern",
		"Native American", "Mixed", "Other",
	}
	EyeColorOptions           = []string{"Brown", "Blue", "Green", "Hazel", "Gray", "Amber"}
	HairColorOptions          = []string{"Black", "Brown", "Blonde", "Red", "Dyed", "Mixed"}
	OccupationCategoryOptions = []string{
		"Model", "Actress", "Singer", "Influencer", "Adult Performer", "Fitness Model",
		"Beauty Pageant", "TikTok Creator",
	}
	StatusOptions = []string{"Active", "Inactive", "Retired"}
)

// EnumOptions maps each enumerated column to its allowed values.
var EnumOptions = map[string][]string{
	"marital_status":      MaritalStatusOptions,
	"children":            ChildrenOptions,
	"religion":            ReligionOptions,
	"ethnicity":           EthnicityOptions,
	"eye_color":           EyeColorOptions,
	"hair_color":          HairColorOptions,
	"occupation_category": OccupationCategoryOptions,
	"status":              StatusOptions,
}

// IsAllowedOption reports whether value is empty or one of the options for column.
// Columns without an option list accept anything.
func IsAllowedOption(column, value string) bool {
	opts, ok := EnumOptions[column]
	if !ok || value == "" {
		return true
	}
	for _, o := range opts {
		if o == value {
			return true
		}
	}
	return false
}

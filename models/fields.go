package models

// FieldKind is the storage type of a canonical field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldInt
	FieldBool
)

// Field describes one canonical profile attribute. The ordered list is the
// schema contract shared by the store, the query builder, import and export.
type Field struct {
	Column     string
	Kind       FieldKind
	Header     string // export header
	Searchable bool   // copied into the FTS shadow table
	MaxLen     int    // 0 means unbounded
}

// CanonicalFields lists every profile attribute except id and timestamps,
// in export order.
var CanonicalFields = []Field{
	{Column: "name", Kind: FieldText, Header: "Name", Searchable: true, MaxLen: 100},
	{Column: "aka", Kind: FieldText, Header: "AKA", Searchable: true, MaxLen: 200},
	{Column: "profession", Kind: FieldText, Header: "Profession", Searchable: true},
	{Column: "occupation_category", Kind: FieldText, Header: "OccupationCategory"},
	{Column: "age", Kind: FieldInt, Header: "Age"},
	{Column: "dob", Kind: FieldText, Header: "DOB"},
	{Column: "birthplace", Kind: FieldText, Header: "Birthplace"},
	{Column: "hometown", Kind: FieldText, Header: "Hometown"},
	{Column: "marital_status", Kind: FieldText, Header: "MaritalStatus"},
	{Column: "children", Kind: FieldText, Header: "Children"},
	{Column: "nationality", Kind: FieldText, Header: "Nationality"},
	{Column: "religion", Kind: FieldText, Header: "Religion"},
	{Column: "ethnicity", Kind: FieldText, Header: "Ethnicity"},
	{Column: "height", Kind: FieldText, Header: "Height"},
	{Column: "weight", Kind: FieldText, Header: "Weight"},
	{Column: "measurements", Kind: FieldText, Header: "Measurements"},
	{Column: "eye_color", Kind: FieldText, Header: "EyeColor"},
	{Column: "hair_color", Kind: FieldText, Header: "HairColor"},
	{Column: "instagram", Kind: FieldText, Header: "Instagram"},
	{Column: "tiktok", Kind: FieldText, Header: "TikTok"},
	{Column: "twitter", Kind: FieldText, Header: "Twitter"},
	{Column: "onlyfans", Kind: FieldText, Header: "OnlyFans"},
	{Column: "languages", Kind: FieldText, Header: "Languages"},
	{Column: "tags", Kind: FieldText, Header: "Tags", Searchable: true},
	{Column: "specialties", Kind: FieldText, Header: "Specialties", Searchable: true},
	{Column: "birthday", Kind: FieldText, Header: "Birthday"},
	{Column: "country", Kind: FieldText, Header: "Country"},
	{Column: "piercings", Kind: FieldText, Header: "Piercings"},
	{Column: "tattoo", Kind: FieldText, Header: "Tattoo"},
	{Column: "status", Kind: FieldText, Header: "Status"},
	{Column: "has_videos", Kind: FieldBool, Header: "HasVideos"},
	{Column: "has_pictures", Kind: FieldBool, Header: "HasPictures"},
	{Column: "sexual_orientation", Kind: FieldText, Header: "SexualOrientation"},
	{Column: "bdsm_orientation", Kind: FieldText, Header: "BDSMOrientation"},
	{Column: "description", Kind: FieldText, Header: "Description", Searchable: true, MaxLen: 5000},
	{Column: "folder_name", Kind: FieldText, Header: "FolderName"},
}

// SearchColumns are the FTS shadow columns, in table order.
var SearchColumns = []string{"name", "aka", "description", "tags", "profession", "specialties"}

// FieldByColumn looks up a canonical field.
func FieldByColumn(column string) (Field, bool) {
	for _, f := range CanonicalFields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// TextField returns the address of the text attribute stored in column, or
// nil when column is not a text field.
func (p *Profile) TextField(column string) *string {
	switch column {
	case "name":
		return &p.Name
	case "aka":
		return &p.Aka
	case "profession":
		return &p.Profession
	case "occupation_category":
		return &p.OccupationCategory
	case "dob":
		return &p.DOB
	case "birthplace":
		return &p.Birthplace
	case "hometown":
		return &p.Hometown
	case "marital_status":
		return &p.MaritalStatus
	case "children":
		return &p.Children
	case "nationality":
		return &p.Nationality
	case "religion":
		return &p.Religion
	case "ethnicity":
		return &p.Ethnicity
	case "height":
		return &p.Height
	case "weight":
		return &p.Weight
	case "measurements":
		return &p.Measurements
	case "eye_color":
		return &p.EyeColor
	case "hair_color":
		return &p.HairColor
	case "instagram":
		return &p.Instagram
	case "tiktok":
		return &p.TikTok
	case "twitter":
		return &p.Twitter
	case "onlyfans":
		return &p.OnlyFans
	case "languages":
		return &p.Languages
	case "tags":
		return &p.Tags
	case "specialties":
		return &p.Specialties
	case "birthday":
		return &p.Birthday
	case "country":
		return &p.Country
	case "piercings":
		return &p.Piercings
	case "tattoo":
		return &p.Tattoo
	case "status":
		return &p.Status
	case "sexual_orientation":
		return &p.SexualOrientation
	case "bdsm_orientation":
		return &p.BDSMOrientation
	case "description":
		return &p.Description
	case "folder_name":
		return &p.FolderName
	}
	return nil
}

// BoolField returns the address of a boolean flag, or nil.
func (p *Profile) BoolField(column string) *bool {
	switch column {
	case "has_videos":
		return &p.HasVideos
	case "has_pictures":
		return &p.HasPictures
	}
	return nil
}

// ColumnValue returns the value to bind for column. Empty text and a nil
// age bind as NULL.
func (p *Profile) ColumnValue(f Field) interface{} {
	switch f.Kind {
	case FieldInt:
		if p.Age == nil {
			return nil
		}
		return *p.Age
	case FieldBool:
		if b := p.BoolField(f.Column); b != nil {
			return *b
		}
		return false
	default:
		s := p.TextField(f.Column)
		if s == nil || *s == "" {
			return nil
		}
		return *s
	}
}

// IsEmpty reports whether the attribute in f is unset on p.
func (p *Profile) IsEmpty(f Field) bool {
	switch f.Kind {
	case FieldInt:
		return p.Age == nil
	case FieldBool:
		b := p.BoolField(f.Column)
		return b == nil || !*b
	default:
		s := p.TextField(f.Column)
		return s == nil || *s == ""
	}
}

// FillGapsFrom copies every attribute that is unset on p but set on other.
// Attributes already set on p are kept. Identity and timestamps are untouched.
func (p *Profile) FillGapsFrom(other *Profile) {
	for _, f := range CanonicalFields {
		if !p.IsEmpty(f) || other.IsEmpty(f) {
			continue
		}
		switch f.Kind {
		case FieldInt:
			age := *other.Age
			p.Age = &age
		case FieldBool:
			*p.BoolField(f.Column) = true
		default:
			*p.TextField(f.Column) = *other.TextField(f.Column)
		}
	}
}

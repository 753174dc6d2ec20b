package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Tonisark/ActressManager/models"
)

// Row is one decoded import record.
type Row struct {
	Line    int // 1-based data row, header excluded
	Profile models.Profile
	Err     string // set when the row cannot be imported as decoded

	mapped map[string]bool
}

// HasName reports whether the row resolved a name.
func (r *Row) HasName() bool {
	return strings.TrimSpace(r.Profile.Name) != ""
}

// Mapped reports whether the source carried a column for field.
func (r *Row) Mapped(field string) bool {
	return r.mapped[field]
}

// MappedFields returns the mapped canonical columns in canonical order.
func (r *Row) MappedFields() []string {
	var out []string
	for _, f := range models.CanonicalFields {
		if r.mapped[f.Column] {
			out = append(out, f.Column)
		}
	}
	return out
}

// set assigns a raw value through fieldSetters and marks field as mapped.
func (r *Row) set(field, raw string) error {
	setter, ok := fieldSetters[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	if r.mapped == nil {
		r.mapped = map[string]bool{}
	}
	r.mapped[field] = true
	return setter(&r.Profile, strings.TrimSpace(raw))
}

type fieldSetter func(p *models.Profile, raw string) error

func text(field func(p *models.Profile) *string) fieldSetter {
	return func(p *models.Profile, raw string) error {
		*field(p) = raw
		return nil
	}
}

func flag(field func(p *models.Profile) *bool) fieldSetter {
	return func(p *models.Profile, raw string) error {
		switch strings.ToLower(raw) {
		case "", "0", "false", "no":
			*field(p) = false
		case "1", "true", "yes":
			*field(p) = true
		default:
			return fmt.Errorf("invalid boolean %q", raw)
		}
		return nil
	}
}

func setAge(p *models.Profile, raw string) error {
	if raw == "" {
		p.Age = nil
		return nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		p.Age = nil
		return fmt.Errorf("invalid age %q", raw)
	}
	p.Age = &age
	return nil
}

// fieldSetters assigns every canonical column from its text form.
var fieldSetters = map[string]fieldSetter{
	"name":                text(func(p *models.Profile) *string { return &p.Name }),
	"aka":                 text(func(p *models.Profile) *string { return &p.Aka }),
	"profession":          text(func(p *models.Profile) *string { return &p.Profession }),
	"occupation_category": text(func(p *models.Profile) *string { return &p.OccupationCategory }),
	"age":                 setAge,
	"dob":                 text(func(p *models.Profile) *string { return &p.DOB }),
	"birthplace":          text(func(p *models.Profile) *string { return &p.Birthplace }),
	"hometown":            text(func(p *models.Profile) *string { return &p.Hometown }),
	"marital_status":      text(func(p *models.Profile) *string { return &p.MaritalStatus }),
	"children":            text(func(p *models.Profile) *string { return &p.Children }),
	"nationality":         text(func(p *models.Profile) *string { return &p.Nationality }),
	"religion":            text(func(p *models.Profile) *string { return &p.Religion }),
	"ethnicity":           text(func(p *models.Profile) *string { return &p.Ethnicity }),
	"height":              text(func(p *models.Profile) *string { return &p.Height }),
	"weight":              text(func(p *models.Profile) *string { return &p.Weight }),
	"measurements":        text(func(p *models.Profile) *string { return &p.Measurements }),
	"eye_color":           text(func(p *models.Profile) *string { return &p.EyeColor }),
	"hair_color":          text(func(p *models.Profile) *string { return &p.HairColor }),
	"instagram":           text(func(p *models.Profile) *string { return &p.Instagram }),
	"tiktok":              text(func(p *models.Profile) *string { return &p.TikTok }),
	"twitter":             text(func(p *models.Profile) *string { return &p.Twitter }),
	"onlyfans":            text(func(p *models.Profile) *string { return &p.OnlyFans }),
	"languages":           text(func(p *models.Profile) *string { return &p.Languages }),
	"tags":                text(func(p *models.Profile) *string { return &p.Tags }),
	"specialties":         text(func(p *models.Profile) *string { return &p.Specialties }),
	"birthday":            text(func(p *models.Profile) *string { return &p.Birthday }),
	"country":             text(func(p *models.Profile) *string { return &p.Country }),
	"piercings":           text(func(p *models.Profile) *string { return &p.Piercings }),
	"tattoo":              text(func(p *models.Profile) *string { return &p.Tattoo }),
	"status":              text(func(p *models.Profile) *string { return &p.Status }),
	"has_videos":          flag(func(p *models.Profile) *bool { return &p.HasVideos }),
	"has_pictures":        flag(func(p *models.Profile) *bool { return &p.HasPictures }),
	"sexual_orientation":  text(func(p *models.Profile) *string { return &p.SexualOrientation }),
	"bdsm_orientation":    text(func(p *models.Profile) *string { return &p.BDSMOrientation }),
	"description":         text(func(p *models.Profile) *string { return &p.Description }),
	"folder_name":         text(func(p *models.Profile) *string { return &p.FolderName }),
}

// Batch is a decoded import file.
type Batch struct {
	Source  string // "csv" or "json"
	Headers []string
	Rows    []Row
}

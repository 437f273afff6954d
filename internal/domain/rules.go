package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Field validation engine for listing drafts. Each field has exactly one
// rule; rules are pure predicates over the draft and never mutate it. The
// four energy fields branch on NotSubjectToDpe: when the flag is set they
// are exempt from every check.

// Draft field limits.
const (
	CityMinLen        = 2
	CityMaxLen        = 100
	AddressMinLen     = 5
	SurfaceMin        = 10
	RoomsMin          = 1
	ConstructionMin   = 1800
	ConstructionMax   = 2027
	EnergyMin         = 1
	TitleMinLen       = 10
	TitleMaxLen       = 180
	DescriptionMinLen = 20
	PriceMin          = 1
	ChargesMin        = 1
	MinImages         = 1
	MaxImages         = 8
)

// finalImageTypes is the authoritative gate applied at validation time.
// The wizard's collection-time allowlist is wider; HEIC
// survives preview but not final validation.
var finalImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var (
	cityPattern  = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ'\- ]+$`)
	digitPattern = regexp.MustCompile(`\d`)
)

// FieldRule validates one draft field in the context of the whole record.
type FieldRule struct {
	Field string
	Check func(d *ListingDraft) *FieldError
}

func fail(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// dpeExempt reports whether the energy fields are exempt for this draft.
func dpeExempt(d *ListingDraft) bool { return d.NotSubjectToDpe }

// DraftRules lists one rule per draft field, in declaration order.
// ValidateDraft reports the first failure in this order.
var DraftRules = []FieldRule{
	{"mode", func(d *ListingDraft) *FieldError {
		if !d.Mode.IsValid() {
			return fail("mode", "Choose sell or rent.")
		}
		return nil
	}},
	{"type", func(d *ListingDraft) *FieldError {
		if !d.Type.IsValid() {
			return fail("type", "Choose house or apartment.")
		}
		return nil
	}},
	{"city", func(d *ListingDraft) *FieldError {
		city := strings.TrimSpace(d.City)
		switch {
		case city == "":
			return fail("city", "City is required.")
		case len([]rune(city)) < CityMinLen:
			return fail("city", "Name of the city is too short.")
		case len([]rune(city)) > CityMaxLen:
			return fail("city", "Name of the city is too long.")
		case !cityPattern.MatchString(city):
			return fail("city", "City may contain only letters, spaces, hyphens and apostrophes.")
		}
		return nil
	}},
	{"address", func(d *ListingDraft) *FieldError {
		address := strings.TrimSpace(d.Address)
		switch {
		case address == "":
			return fail("address", "Address is required.")
		case len([]rune(address)) < AddressMinLen:
			return fail("address", "Address is too short.")
		case !digitPattern.MatchString(address):
			return fail("address", "Address must contain at least one number.")
		}
		return nil
	}},
	{"surface", func(d *ListingDraft) *FieldError {
		switch {
		case d.Surface <= 0:
			return fail("surface", "Surface is required.")
		case d.Surface < SurfaceMin:
			return fail("surface", fmt.Sprintf("The area size cannot be under %dm².", SurfaceMin))
		}
		return nil
	}},
	{"rooms", func(d *ListingDraft) *FieldError {
		if d.Rooms < RoomsMin {
			return fail("rooms", "At least one room.")
		}
		return nil
	}},
	{"furnished", func(d *ListingDraft) *FieldError {
		if d.Furnished == nil {
			return fail("furnished", "Is it furnished?")
		}
		return nil
	}},
	{"airConditioned", func(d *ListingDraft) *FieldError {
		if d.AirConditioned == nil {
			return fail("airConditioned", "Is it air conditioned?")
		}
		return nil
	}},
	{"constructionYear", func(d *ListingDraft) *FieldError {
		switch {
		case d.ConstructionYear == 0:
			return fail("constructionYear", "Construction year is required.")
		case d.ConstructionYear < ConstructionMin:
			return fail("constructionYear", fmt.Sprintf("Your property cannot be built before %d.", ConstructionMin))
		case d.ConstructionYear > ConstructionMax:
			return fail("constructionYear", fmt.Sprintf("Your property cannot be built after %d.", ConstructionMax))
		}
		return nil
	}},
	{"notSubjectToDpe", func(d *ListingDraft) *FieldError {
		// A bare flag; any value is valid.
		return nil
	}},
	{"consumption", func(d *ListingDraft) *FieldError {
		if dpeExempt(d) {
			return nil
		}
		if d.Consumption < EnergyMin {
			return fail("consumption", "The minimal consumption is 1 kWh/m²/year.")
		}
		return nil
	}},
	{"emission", func(d *ListingDraft) *FieldError {
		if dpeExempt(d) {
			return nil
		}
		if d.Emission < EnergyMin {
			return fail("emission", "The minimal emission is 1 kWh/m²/year.")
		}
		return nil
	}},
	{"dpe", func(d *ListingDraft) *FieldError {
		if dpeExempt(d) {
			return nil
		}
		if !d.DPE.IsValid() {
			return fail("dpe", "DPE is required.")
		}
		return nil
	}},
	{"emissionConsumption", func(d *ListingDraft) *FieldError {
		if dpeExempt(d) {
			return nil
		}
		if !d.EmissionConsumption.IsValid() {
			return fail("emissionConsumption", "Emission class is required.")
		}
		return nil
	}},
	{"images", func(d *ListingDraft) *FieldError {
		switch {
		case len(d.Images) < MinImages:
			return fail("images", "At least one picture.")
		case len(d.Images) > MaxImages:
			return fail("images", fmt.Sprintf("Maximum %d images.", MaxImages))
		}
		for _, img := range d.Images {
			if img.Uploaded() {
				continue
			}
			if !finalImageTypes[img.File.ContentType] {
				return fail("images", "Images must be JPEG or PNG.")
			}
		}
		return nil
	}},
	{"title", func(d *ListingDraft) *FieldError {
		title := strings.TrimSpace(d.Title)
		switch {
		case len([]rune(title)) < TitleMinLen:
			return fail("title", fmt.Sprintf("Your title should have %d characters minimum.", TitleMinLen))
		case len([]rune(title)) > TitleMaxLen:
			return fail("title", fmt.Sprintf("Your title cannot have more than %d characters.", TitleMaxLen))
		}
		return nil
	}},
	{"description", func(d *ListingDraft) *FieldError {
		if len([]rune(strings.TrimSpace(d.Description))) < DescriptionMinLen {
			return fail("description", fmt.Sprintf("The description should have at least %d characters.", DescriptionMinLen))
		}
		return nil
	}},
	{"price", func(d *ListingDraft) *FieldError {
		if d.Price < PriceMin {
			return fail("price", "The minimum price is 1 euro.")
		}
		return nil
	}},
	{"charges", func(d *ListingDraft) *FieldError {
		if d.Charges < ChargesMin {
			return fail("charges", "The minimal price for charges is 1 euro.")
		}
		return nil
	}},
}

// ruleIndex maps field name to its rule for single-field lookups.
var ruleIndex = func() map[string]FieldRule {
	m := make(map[string]FieldRule, len(DraftRules))
	for _, r := range DraftRules {
		m[r.Field] = r
	}
	return m
}()

// ValidateField runs the rule for one field against the draft. The whole
// record is the context, so conditional rules see NotSubjectToDpe. Unknown
// field names are a programming error and fail loudly.
func ValidateField(field string, d *ListingDraft) error {
	rule, ok := ruleIndex[field]
	if !ok {
		return fmt.Errorf("no rule for field %q", field)
	}
	if ferr := rule.Check(d); ferr != nil {
		return &ValidationError{Errors: []FieldError{*ferr}}
	}
	return nil
}

// ValidateFields runs the rules for the given fields in the given order and
// returns the first failure only.
func ValidateFields(fields []string, d *ListingDraft) error {
	for _, f := range fields {
		if err := ValidateField(f, d); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDraft runs every field rule in declaration order and blocks on the
// first failure.
func ValidateDraft(d *ListingDraft) error {
	for _, rule := range DraftRules {
		if ferr := rule.Check(d); ferr != nil {
			return &ValidationError{Errors: []FieldError{*ferr}}
		}
	}
	return nil
}

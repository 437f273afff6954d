package domain

// ListingMode says whether a property is offered for sale or for rent.
type ListingMode string

const (
	ListingModeSell ListingMode = "sell"
	ListingModeRent ListingMode = "rent"
)

func (m ListingMode) String() string { return string(m) }

func (m ListingMode) IsValid() bool {
	switch m {
	case ListingModeSell, ListingModeRent:
		return true
	}
	return false
}

// PropertyType is the kind of property being listed.
type PropertyType string

const (
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeApartment PropertyType = "apartment"
)

func (t PropertyType) String() string { return string(t) }

func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyTypeHouse, PropertyTypeApartment:
		return true
	}
	return false
}

// EnergyGrade is a DPE energy or emission class, A (best) through G.
type EnergyGrade string

const (
	EnergyGradeA EnergyGrade = "A"
	EnergyGradeB EnergyGrade = "B"
	EnergyGradeC EnergyGrade = "C"
	EnergyGradeD EnergyGrade = "D"
	EnergyGradeE EnergyGrade = "E"
	EnergyGradeF EnergyGrade = "F"
	EnergyGradeG EnergyGrade = "G"
)

func (g EnergyGrade) String() string { return string(g) }

func (g EnergyGrade) IsValid() bool {
	switch g {
	case EnergyGradeA, EnergyGradeB, EnergyGradeC, EnergyGradeD,
		EnergyGradeE, EnergyGradeF, EnergyGradeG:
		return true
	}
	return false
}

// UserRole controls access to moderation operations.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

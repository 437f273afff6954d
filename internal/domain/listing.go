package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// ImageFile is a local image file staged for upload. Open returns the file
// content; Release frees the local preview handle and must be called exactly
// once when the file leaves the draft without being uploaded.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
	Release     func() error
}

// ImageRef is one entry of a draft's image list: either a pending local file
// awaiting upload, or a URL already hosted remotely (edit flows pass those
// through untouched).
type ImageRef struct {
	URL  string
	File *ImageFile
}

// Uploaded reports whether the entry is already a remote URL.
func (r ImageRef) Uploaded() bool { return r.File == nil }

// RemoteImage builds an ImageRef for an already-hosted URL.
func RemoteImage(url string) ImageRef { return ImageRef{URL: url} }

// LocalImage builds an ImageRef for a pending local file.
func LocalImage(f *ImageFile) ImageRef { return ImageRef{File: f} }

// ListingDraft is the mutable in-progress listing record a wizard session
// fills in step by step. A draft is submittable only when every field passes
// its rule in DraftRules, honoring the NotSubjectToDpe exemption.
type ListingDraft struct {
	Mode                ListingMode  // empty until chosen
	Type                PropertyType // empty until chosen
	City                string
	Address             string
	Surface             float64
	Rooms               int
	Furnished           *bool
	AirConditioned      *bool
	ConstructionYear    int
	NotSubjectToDpe     bool
	Consumption         float64
	Emission            float64
	DPE                 EnergyGrade
	EmissionConsumption EnergyGrade
	Images              []ImageRef
	Title               string
	Description         string
	Price               float64
	Charges             float64
}

// Listing is the persisted form of a draft. FlatID, OwnerID and CreatedAt are
// assigned at submission and immutable afterwards; Images are fully resolved
// remote URLs.
type Listing struct {
	FlatID              uuid.UUID
	OwnerID             uuid.UUID
	Mode                ListingMode
	Type                PropertyType
	City                string
	Address             string
	Surface             float64
	Rooms               int
	Furnished           bool
	AirConditioned      bool
	ConstructionYear    int
	NotSubjectToDpe     bool
	Consumption         float64
	Emission            float64
	DPE                 EnergyGrade
	EmissionConsumption EnergyGrade
	Images              []string
	Title               string
	Description         string
	Price               float64
	Charges             float64
	CreatedAt           time.Time
}

// ListingFilter narrows a listing page when browsing. Zero-value fields
// are ignored; Query matches title, description or city, case-insensitive.
type ListingFilter struct {
	City       string
	Type       PropertyType
	Mode       ListingMode
	MinSurface float64
	MaxSurface float64
	Query      string
}

// ApplyDraft overwrites the listing's mutable fields from a validated draft
// whose images are already resolved to URLs. Identity fields are untouched.
func (l *Listing) ApplyDraft(d *ListingDraft, imageURLs []string) {
	l.Mode = d.Mode
	l.Type = d.Type
	l.City = d.City
	l.Address = d.Address
	l.Surface = d.Surface
	l.Rooms = d.Rooms
	l.Furnished = d.Furnished != nil && *d.Furnished
	l.AirConditioned = d.AirConditioned != nil && *d.AirConditioned
	l.ConstructionYear = d.ConstructionYear
	l.NotSubjectToDpe = d.NotSubjectToDpe
	l.Consumption = d.Consumption
	l.Emission = d.Emission
	l.DPE = d.DPE
	l.EmissionConsumption = d.EmissionConsumption
	l.Images = imageURLs
	l.Title = d.Title
	l.Description = d.Description
	l.Price = d.Price
	l.Charges = d.Charges
}

// DraftFromListing rebuilds an editable draft from a persisted listing.
// Existing images come back as remote refs so edits can mix them with newly
// added local files.
func DraftFromListing(l *Listing) *ListingDraft {
	furnished := l.Furnished
	airConditioned := l.AirConditioned
	images := make([]ImageRef, len(l.Images))
	for i, url := range l.Images {
		images[i] = RemoteImage(url)
	}
	return &ListingDraft{
		Mode:                l.Mode,
		Type:                l.Type,
		City:                l.City,
		Address:             l.Address,
		Surface:             l.Surface,
		Rooms:               l.Rooms,
		Furnished:           &furnished,
		AirConditioned:      &airConditioned,
		ConstructionYear:    l.ConstructionYear,
		NotSubjectToDpe:     l.NotSubjectToDpe,
		Consumption:         l.Consumption,
		Emission:            l.Emission,
		DPE:                 l.DPE,
		EmissionConsumption: l.EmissionConsumption,
		Images:              images,
		Title:               l.Title,
		Description:         l.Description,
		Price:               l.Price,
		Charges:             l.Charges,
	}
}

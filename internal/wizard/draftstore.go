// Package wizard implements the listing-creation flow: a single-session
// draft store, the collection-time image pipeline, and the linear step
// sequencer that gates forward navigation on field validation.
package wizard

import (
	"sync"

	"github.com/flatmarket/backend/internal/domain"
)

// DraftStore holds the one in-progress draft a wizard session mutates.
// It is exclusively owned by that session; the mutex only guards against
// interleaved async completions, not cross-session sharing.
type DraftStore struct {
	mu    sync.Mutex
	draft domain.ListingDraft
}

// NewDraftStore creates a store with an empty draft.
func NewDraftStore() *DraftStore {
	return &DraftStore{}
}

// Snapshot returns a copy of the current draft. The Images slice is copied
// so callers can iterate while the session keeps mutating.
func (s *DraftStore) Snapshot() domain.ListingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	d.Images = append([]domain.ImageRef(nil), s.draft.Images...)
	return d
}

// Reset discards all field values, releasing any pending image handles.
func (s *DraftStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, img := range s.draft.Images {
		releaseImage(img)
	}
	s.draft = domain.ListingDraft{}
}

// SetMode records the sell/rent choice.
func (s *DraftStore) SetMode(m domain.ListingMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Mode = m
}

// SetType records the property type.
func (s *DraftStore) SetType(t domain.PropertyType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Type = t
}

// SetCity records the city.
func (s *DraftStore) SetCity(city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.City = city
}

// SetAddress records the street address.
func (s *DraftStore) SetAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Address = address
}

// SetCharacteristics records the physical attributes step as a batch.
func (s *DraftStore) SetCharacteristics(surface float64, rooms int, furnished, airConditioned bool, constructionYear int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Surface = surface
	s.draft.Rooms = rooms
	s.draft.Furnished = &furnished
	s.draft.AirConditioned = &airConditioned
	s.draft.ConstructionYear = constructionYear
}

// SetEnergy records the DPE step. When notSubjectToDpe is true the other
// values are stored as given but exempt from validation.
func (s *DraftStore) SetEnergy(notSubjectToDpe bool, consumption, emission float64, dpe, emissionConsumption domain.EnergyGrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.NotSubjectToDpe = notSubjectToDpe
	s.draft.Consumption = consumption
	s.draft.Emission = emission
	s.draft.DPE = dpe
	s.draft.EmissionConsumption = emissionConsumption
}

// SetContent records title and description.
func (s *DraftStore) SetContent(title, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Title = title
	s.draft.Description = description
}

// SetPricing records price and charges.
func (s *DraftStore) SetPricing(price, charges float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Price = price
	s.draft.Charges = charges
}

// Seed replaces the whole draft, used by edit flows that start from a
// persisted listing (domain.DraftFromListing).
func (s *DraftStore) Seed(d domain.ListingDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

func releaseImage(img domain.ImageRef) {
	if img.File != nil && img.File.Release != nil {
		_ = img.File.Release()
	}
}

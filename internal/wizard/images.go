package wizard

import (
	"fmt"

	"github.com/flatmarket/backend/internal/domain"
)

// Collection-time image constraints. Broader than the final-format rule:
// HEIC is accepted into the draft for preview, but whole-draft validation
// rejects it before anything is uploaded.
const (
	MaxImageBytes = 10 << 20
	MaxImages     = domain.MaxImages
)

var collectionImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/heic": true,
}

// ImageSet is the collection-time pipeline over a draft's images. Adding
// is all-or-nothing per batch; removal is positional and releases the
// underlying file handle.
type ImageSet struct {
	store *DraftStore
}

// NewImageSet binds the pipeline to a draft store.
func NewImageSet(store *DraftStore) *ImageSet {
	return &ImageSet{store: store}
}

// AddFiles validates a candidate batch and appends it to the draft.
// Checks run in tiers and the first failure rejects the whole batch:
// format (citing the offending filename), then size (citing the
// filename), then the total count cap. No partial acceptance.
func (s *ImageSet) AddFiles(files []*domain.ImageFile) error {
	if len(files) == 0 {
		return nil
	}
	for _, f := range files {
		if !collectionImageTypes[f.ContentType] {
			return domain.NewValidationError("images",
				fmt.Sprintf("%s is not an accepted format, use jpeg, png or heic", f.Name))
		}
	}
	for _, f := range files {
		if f.Size > MaxImageBytes {
			return domain.NewValidationError("images",
				fmt.Sprintf("%s exceeds the 10MB size limit", f.Name))
		}
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if len(s.store.draft.Images)+len(files) > MaxImages {
		return domain.NewValidationError("images",
			fmt.Sprintf("a listing can have at most %d images", MaxImages))
	}
	for _, f := range files {
		s.store.draft.Images = append(s.store.draft.Images, domain.LocalImage(f))
	}
	return nil
}

// RemoveAt drops the image at position i, preserving the order of the
// rest, and releases its file handle if it was a local file.
func (s *ImageSet) RemoveAt(i int) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	imgs := s.store.draft.Images
	if i < 0 || i >= len(imgs) {
		return fmt.Errorf("image index %d out of range [0,%d)", i, len(imgs))
	}
	releaseImage(imgs[i])
	s.store.draft.Images = append(imgs[:i], imgs[i+1:]...)
	return nil
}

// Count reports how many images the draft currently holds.
func (s *ImageSet) Count() int {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return len(s.store.draft.Images)
}

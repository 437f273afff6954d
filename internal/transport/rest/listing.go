package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/service/listing"
)

// maxSubmissionBytes bounds a multipart listing submission, images included.
const maxSubmissionBytes = 64 << 20

type listingService interface {
	Submit(ctx context.Context, draft *domain.ListingDraft) (*domain.Listing, error)
	Update(ctx context.Context, flatID uuid.UUID, draft *domain.ListingDraft) (*domain.Listing, error)
	Delete(ctx context.Context, flatID uuid.UUID) error
	Get(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error)
	List(ctx context.Context, input listing.ListInput) ([]domain.Listing, error)
	ListByOwner(ctx context.Context) ([]domain.Listing, error)
}

// ListingHandler serves listing REST endpoints.
type ListingHandler struct {
	svc listingService
	log *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(svc listingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, log: logger.With("handler", "listing")}
}

// draftRequest is the wire form of a listing draft. Images lists remote
// URLs kept as-is; freshly picked files arrive as multipart file parts and
// are appended after them.
type draftRequest struct {
	Mode                string   `json:"mode"`
	Type                string   `json:"type"`
	City                string   `json:"city"`
	Address             string   `json:"address"`
	Surface             float64  `json:"surface"`
	Rooms               int      `json:"rooms"`
	Furnished           *bool    `json:"furnished"`
	AirConditioned      *bool    `json:"airConditioned"`
	ConstructionYear    int      `json:"constructionYear"`
	NotSubjectToDpe     bool     `json:"notSubjectToDpe"`
	Consumption         float64  `json:"consumption"`
	Emission            float64  `json:"emission"`
	DPE                 string   `json:"dpe"`
	EmissionConsumption string   `json:"emissionConsumption"`
	Images              []string `json:"images"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Price               float64  `json:"price"`
	Charges             float64  `json:"charges"`
}

func (req draftRequest) toDraft(files []*multipart.FileHeader) *domain.ListingDraft {
	d := &domain.ListingDraft{
		Mode:                domain.ListingMode(req.Mode),
		Type:                domain.PropertyType(req.Type),
		City:                req.City,
		Address:             req.Address,
		Surface:             req.Surface,
		Rooms:               req.Rooms,
		Furnished:           req.Furnished,
		AirConditioned:      req.AirConditioned,
		ConstructionYear:    req.ConstructionYear,
		NotSubjectToDpe:     req.NotSubjectToDpe,
		Consumption:         req.Consumption,
		Emission:            req.Emission,
		DPE:                 domain.EnergyGrade(req.DPE),
		EmissionConsumption: domain.EnergyGrade(req.EmissionConsumption),
		Title:               req.Title,
		Description:         req.Description,
		Price:               req.Price,
		Charges:             req.Charges,
	}

	for _, url := range req.Images {
		d.Images = append(d.Images, domain.RemoteImage(url))
	}
	for _, fh := range files {
		d.Images = append(d.Images, domain.LocalImage(&domain.ImageFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}))
	}

	return d
}

// decodeDraft reads a listing draft from the request: a plain JSON body
// when no files are attached, or multipart/form-data with the draft JSON
// in the "payload" field and files under "images".
func decodeDraft(r *http.Request) (*domain.ListingDraft, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if !strings.HasPrefix(mediaType, "multipart/") {
		var req draftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return req.toDraft(nil), nil
	}

	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		return nil, err
	}

	var req draftRequest
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &req); err != nil {
		return nil, err
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	return req.toDraft(files), nil
}

type listingResponse struct {
	FlatID              string    `json:"flatId"`
	OwnerID             string    `json:"ownerId"`
	Mode                string    `json:"mode"`
	Type                string    `json:"type"`
	City                string    `json:"city"`
	Address             string    `json:"address"`
	Surface             float64   `json:"surface"`
	Rooms               int       `json:"rooms"`
	Furnished           bool      `json:"furnished"`
	AirConditioned      bool      `json:"airConditioned"`
	ConstructionYear    int       `json:"constructionYear"`
	NotSubjectToDpe     bool      `json:"notSubjectToDpe"`
	Consumption         float64   `json:"consumption"`
	Emission            float64   `json:"emission"`
	DPE                 string    `json:"dpe"`
	EmissionConsumption string    `json:"emissionConsumption"`
	Images              []string  `json:"images"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Price               float64   `json:"price"`
	Charges             float64   `json:"charges"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingResponse{
		FlatID:              l.FlatID.String(),
		OwnerID:             l.OwnerID.String(),
		Mode:                string(l.Mode),
		Type:                string(l.Type),
		City:                l.City,
		Address:             l.Address,
		Surface:             l.Surface,
		Rooms:               l.Rooms,
		Furnished:           l.Furnished,
		AirConditioned:      l.AirConditioned,
		ConstructionYear:    l.ConstructionYear,
		NotSubjectToDpe:     l.NotSubjectToDpe,
		Consumption:         l.Consumption,
		Emission:            l.Emission,
		DPE:                 string(l.DPE),
		EmissionConsumption: string(l.EmissionConsumption),
		Images:              images,
		Title:               l.Title,
		Description:         l.Description,
		Price:               l.Price,
		Charges:             l.Charges,
		CreatedAt:           l.CreatedAt,
	}
}

func toListingResponses(items []domain.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(items))
	for i := range items {
		out = append(out, toListingResponse(&items[i]))
	}
	return out
}

// List handles GET /listings?limit=&offset= plus the optional browse
// filters city, type, mode, minSurface, maxSurface and q (free text).
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var input listing.ListInput
	if v := query.Get("limit"); v != "" {
		input.Limit, _ = strconv.Atoi(v)
	}
	if v := query.Get("offset"); v != "" {
		input.Offset, _ = strconv.Atoi(v)
	}
	input.Filter = domain.ListingFilter{
		City:  query.Get("city"),
		Type:  domain.PropertyType(query.Get("type")),
		Mode:  domain.ListingMode(query.Get("mode")),
		Query: query.Get("q"),
	}
	if v := query.Get("minSurface"); v != "" {
		input.Filter.MinSurface, _ = strconv.ParseFloat(v, 64)
	}
	if v := query.Get("maxSurface"); v != "" {
		input.Filter.MaxSurface, _ = strconv.ParseFloat(v, 64)
	}

	items, err := h.svc.List(r.Context(), input)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(items))
}

// Get handles GET /listings/{id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	flatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	l, err := h.svc.Get(r.Context(), flatID)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(l))
}

// Mine handles GET /me/listings, the owner's index view.
func (h *ListingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListByOwner(r.Context())
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(items))
}

// Create handles POST /listings.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.svc.Submit(r.Context(), draft)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListingResponse(l))
}

// Update handles PUT /listings/{id}.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	flatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	draft, err := decodeDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.svc.Update(r.Context(), flatID, draft)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(l))
}

// Delete handles DELETE /listings/{id}.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	flatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	if err := h.svc.Delete(r.Context(), flatID); err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

package core

import (
	"time"

	"hotelcare/pkg/domain"
)

// Mutation transforms a document into its successor. It must not modify its
// argument; on error the caller keeps the previous document.
type Mutation func(domain.AppData) (domain.AppData, error)

// Mutations holds the handlers that edit a document tree. Each handler clones
// the input, applies one change and returns the new tree.
type Mutations struct {
	NewID func() string
	Now   func() time.Time
}

// DefaultMutations uses random ids and the wall clock.
func DefaultMutations() Mutations {
	return Mutations{NewID: domain.NewID, Now: time.Now}
}

func (m Mutations) id() string {
	if m.NewID == nil {
		return domain.NewID()
	}
	return m.NewID()
}

func (m Mutations) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

// MergePhotos appends added to existing and truncates to domain.MaxPhotos.
func MergePhotos(existing, added []string) []string {
	out := make([]string, 0, len(existing)+len(added))
	out = append(out, existing...)
	out = append(out, added...)
	return capPhotos(out)
}

// capPhotos copies photos, dropping empty entries and anything past the cap.
func capPhotos(photos []string) []string {
	out := make([]string, 0, min(len(photos), domain.MaxPhotos))
	for _, p := range photos {
		if p == "" {
			continue
		}
		if len(out) == domain.MaxPhotos {
			break
		}
		out = append(out, p)
	}
	return out
}

func locateHotel(d *domain.AppData, hotelID string) (*domain.Hotel, error) {
	i := d.FindHotel(hotelID)
	if i < 0 {
		return nil, NotFoundError{Entity: domain.EntityHotel, ID: hotelID}
	}
	return &d.Hotels[i], nil
}

func locateApartment(d *domain.AppData, hotelID, apartmentID string) (*domain.Apartment, error) {
	h, err := locateHotel(d, hotelID)
	if err != nil {
		return nil, err
	}
	i := h.FindApartment(apartmentID)
	if i < 0 {
		return nil, NotFoundError{Entity: domain.EntityApartment, ID: apartmentID}
	}
	return &h.Apartments[i], nil
}

func locateItem(d *domain.AppData, hotelID, apartmentID, itemID string) (*domain.Item, error) {
	a, err := locateApartment(d, hotelID, apartmentID)
	if err != nil {
		return nil, err
	}
	i := a.FindItem(itemID)
	if i < 0 {
		return nil, NotFoundError{Entity: domain.EntityItem, ID: itemID}
	}
	return &a.Items[i], nil
}

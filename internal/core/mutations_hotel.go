package core

import (
	"strings"

	"hotelcare/pkg/domain"
)

// HotelInput carries the editable hotel fields. Photo is an inline data URL;
// empty means no photo.
type HotelInput struct {
	Name    string `validate:"nonblank"`
	Address string
	Photo   string
}

// ApartmentInput carries the editable apartment fields.
type ApartmentInput struct {
	Number      string `validate:"nonblank"`
	Description string
	Photos      []string
}

// AddHotel appends a new hotel with no apartments.
func (m Mutations) AddHotel(d domain.AppData, in HotelInput) (domain.AppData, domain.Hotel, error) {
	if err := checkInput(in); err != nil {
		return d, domain.Hotel{}, err
	}
	out := d.Clone()
	h := domain.Hotel{
		ID:         m.id(),
		Name:       strings.TrimSpace(in.Name),
		Address:    strings.TrimSpace(in.Address),
		Photo:      domain.StringPtr(in.Photo),
		Apartments: []domain.Apartment{},
	}
	out.Hotels = append(out.Hotels, h)
	return out, h.Clone(), nil
}

// UpdateHotel replaces the name, address and photo of a hotel. Apartments are kept.
func (m Mutations) UpdateHotel(d domain.AppData, hotelID string, in HotelInput) (domain.AppData, domain.Hotel, error) {
	if err := checkInput(in); err != nil {
		return d, domain.Hotel{}, err
	}
	out := d.Clone()
	h, err := locateHotel(&out, hotelID)
	if err != nil {
		return d, domain.Hotel{}, err
	}
	h.Name = strings.TrimSpace(in.Name)
	h.Address = strings.TrimSpace(in.Address)
	h.Photo = domain.StringPtr(in.Photo)
	return out, h.Clone(), nil
}

// DeleteHotel removes a hotel with all of its apartments, items and logs.
func (m Mutations) DeleteHotel(d domain.AppData, hotelID string) (domain.AppData, error) {
	i := d.FindHotel(hotelID)
	if i < 0 {
		return d, NotFoundError{Entity: domain.EntityHotel, ID: hotelID}
	}
	out := d.Clone()
	out.Hotels = append(out.Hotels[:i], out.Hotels[i+1:]...)
	return out, nil
}

// AddApartment appends an apartment to a hotel.
func (m Mutations) AddApartment(d domain.AppData, hotelID string, in ApartmentInput) (domain.AppData, domain.Apartment, error) {
	if err := checkInput(in); err != nil {
		return d, domain.Apartment{}, err
	}
	out := d.Clone()
	h, err := locateHotel(&out, hotelID)
	if err != nil {
		return d, domain.Apartment{}, err
	}
	a := domain.Apartment{
		ID:              m.id(),
		Number:          strings.TrimSpace(in.Number),
		Description:     strings.TrimSpace(in.Description),
		Photos:          capPhotos(in.Photos),
		Items:           []domain.Item{},
		MaintenanceLogs: []domain.MaintenanceLog{},
	}
	h.Apartments = append(h.Apartments, a)
	return out, a.Clone(), nil
}

// UpdateApartment replaces number, description and photos of an apartment.
func (m Mutations) UpdateApartment(d domain.AppData, hotelID, apartmentID string, in ApartmentInput) (domain.AppData, domain.Apartment, error) {
	if err := checkInput(in); err != nil {
		return d, domain.Apartment{}, err
	}
	out := d.Clone()
	a, err := locateApartment(&out, hotelID, apartmentID)
	if err != nil {
		return d, domain.Apartment{}, err
	}
	a.Number = strings.TrimSpace(in.Number)
	a.Description = strings.TrimSpace(in.Description)
	a.Photos = capPhotos(in.Photos)
	return out, a.Clone(), nil
}

// AppendApartmentPhotos adds uploaded photos after the existing ones, up to the cap.
func (m Mutations) AppendApartmentPhotos(d domain.AppData, hotelID, apartmentID string, photos []string) (domain.AppData, domain.Apartment, error) {
	out := d.Clone()
	a, err := locateApartment(&out, hotelID, apartmentID)
	if err != nil {
		return d, domain.Apartment{}, err
	}
	a.Photos = MergePhotos(a.Photos, photos)
	return out, a.Clone(), nil
}

// DeleteApartmentPhoto removes the photo at index.
func (m Mutations) DeleteApartmentPhoto(d domain.AppData, hotelID, apartmentID string, index int) (domain.AppData, error) {
	out := d.Clone()
	a, err := locateApartment(&out, hotelID, apartmentID)
	if err != nil {
		return d, err
	}
	photos, err := removePhoto(a.Photos, index)
	if err != nil {
		return d, err
	}
	a.Photos = photos
	return out, nil
}

// DeleteApartment removes an apartment with its items and logs.
func (m Mutations) DeleteApartment(d domain.AppData, hotelID, apartmentID string) (domain.AppData, error) {
	out := d.Clone()
	h, err := locateHotel(&out, hotelID)
	if err != nil {
		return d, err
	}
	i := h.FindApartment(apartmentID)
	if i < 0 {
		return d, NotFoundError{Entity: domain.EntityApartment, ID: apartmentID}
	}
	h.Apartments = append(h.Apartments[:i], h.Apartments[i+1:]...)
	return out, nil
}

func removePhoto(photos []string, index int) ([]string, error) {
	if index < 0 || index >= len(photos) {
		return nil, NotFoundError{Entity: domain.EntityPhoto, ID: itoa(index)}
	}
	out := make([]string, 0, len(photos)-1)
	out = append(out, photos[:index]...)
	return append(out, photos[index+1:]...), nil
}

package core

import (
	"strconv"
	"strings"

	"hotelcare/pkg/domain"
)

// ItemInput carries the editable item fields.
type ItemInput struct {
	Name   string `validate:"nonblank"`
	Photos []string
}

// LogInput describes a maintenance entry for an item.
type LogInput struct {
	ItemID string `validate:"nonblank"`
	Notes  string `validate:"nonblank"`
	Photos []string
}

// AddItem appends an item in status OK.
func (m Mutations) AddItem(d domain.AppData, hotelID, apartmentID string, in ItemInput) (domain.AppData, domain.Item, error) {
	if err := checkInput(in); err != nil {
		return d, domain.Item{}, err
	}
	out := d.Clone()
	a, err := locateApartment(&out, hotelID, apartmentID)
	if err != nil {
		return d, domain.Item{}, err
	}
	it := domain.Item{
		ID:     m.id(),
		Name:   strings.TrimSpace(in.Name),
		Status: domain.StatusOK,
		Photos: capPhotos(in.Photos),
	}
	a.Items = append(a.Items, it)
	return out, it.Clone(), nil
}

// EditItem replaces the name and photos of an item. Status is untouched.
func (m Mutations) EditItem(d domain.AppData, hotelID, apartmentID, itemID string, in ItemInput) (domain.AppData, domain.Item, error) {
	if err := checkInput(in); err != nil {
		return d, domain.Item{}, err
	}
	out := d.Clone()
	it, err := locateItem(&out, hotelID, apartmentID, itemID)
	if err != nil {
		return d, domain.Item{}, err
	}
	it.Name = strings.TrimSpace(in.Name)
	it.Photos = capPhotos(in.Photos)
	return out, it.Clone(), nil
}

// SetItemStatus moves an item to any known status.
func (m Mutations) SetItemStatus(d domain.AppData, hotelID, apartmentID, itemID string, status domain.ItemStatus) (domain.AppData, domain.Item, error) {
	if !status.Valid() {
		return d, domain.Item{}, ValidationError{Field: "Status", Rule: "itemstatus"}
	}
	out := d.Clone()
	it, err := locateItem(&out, hotelID, apartmentID, itemID)
	if err != nil {
		return d, domain.Item{}, err
	}
	it.Status = status
	return out, it.Clone(), nil
}

// DeleteItemPhoto removes the photo at index from an item.
func (m Mutations) DeleteItemPhoto(d domain.AppData, hotelID, apartmentID, itemID string, index int) (domain.AppData, error) {
	out := d.Clone()
	it, err := locateItem(&out, hotelID, apartmentID, itemID)
	if err != nil {
		return d, err
	}
	photos, err := removePhoto(it.Photos, index)
	if err != nil {
		return d, err
	}
	it.Photos = photos
	return out, nil
}

// DeleteItem removes an item. Logs that reference it are kept.
func (m Mutations) DeleteItem(d domain.AppData, hotelID, apartmentID, itemID string) (domain.AppData, error) {
	out := d.Clone()
	a, err := locateApartment(&out, hotelID, apartmentID)
	if err != nil {
		return d, err
	}
	i := a.FindItem(itemID)
	if i < 0 {
		return d, NotFoundError{Entity: domain.EntityItem, ID: itemID}
	}
	a.Items = append(a.Items[:i], a.Items[i+1:]...)
	return out, nil
}

// AddLog records maintenance on an item, newest first, stamped with the
// current time. The item must exist when the entry is written.
func (m Mutations) AddLog(d domain.AppData, hotelID, apartmentID string, in LogInput) (domain.AppData, domain.MaintenanceLog, error) {
	if err := checkInput(in); err != nil {
		return d, domain.MaintenanceLog{}, err
	}
	out := d.Clone()
	a, err := locateApartment(&out, hotelID, apartmentID)
	if err != nil {
		return d, domain.MaintenanceLog{}, err
	}
	if a.FindItem(in.ItemID) < 0 {
		return d, domain.MaintenanceLog{}, NotFoundError{Entity: domain.EntityItem, ID: in.ItemID}
	}
	entry := domain.MaintenanceLog{
		ID:     m.id(),
		Date:   m.now(),
		Notes:  strings.TrimSpace(in.Notes),
		Photos: capPhotos(in.Photos),
		ItemID: in.ItemID,
	}
	a.MaintenanceLogs = append([]domain.MaintenanceLog{entry}, a.MaintenanceLogs...)
	return out, entry.Clone(), nil
}

func itoa(i int) string { return strconv.Itoa(i) }

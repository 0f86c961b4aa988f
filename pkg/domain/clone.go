package domain

// Clone returns a deep copy of the document. Readers receive clones so the
// session's tree is never aliased.
func (d AppData) Clone() AppData {
	out := AppData{UserName: d.UserName}
	out.Hotels = make([]Hotel, len(d.Hotels))
	for i := range d.Hotels {
		out.Hotels[i] = d.Hotels[i].Clone()
	}
	out.ScheduledTasks = append(make([]ScheduledTask, 0, len(d.ScheduledTasks)), d.ScheduledTasks...)
	return out
}

// Clone returns a deep copy of the hotel.
func (h Hotel) Clone() Hotel {
	out := h
	if h.Photo != nil {
		photo := *h.Photo
		out.Photo = &photo
	}
	out.Apartments = make([]Apartment, len(h.Apartments))
	for i := range h.Apartments {
		out.Apartments[i] = h.Apartments[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the apartment.
func (a Apartment) Clone() Apartment {
	out := a
	out.Photos = ClonePhotos(a.Photos)
	out.Items = make([]Item, len(a.Items))
	for i := range a.Items {
		out.Items[i] = a.Items[i].Clone()
	}
	out.MaintenanceLogs = make([]MaintenanceLog, len(a.MaintenanceLogs))
	for i := range a.MaintenanceLogs {
		out.MaintenanceLogs[i] = a.MaintenanceLogs[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	out.Photos = ClonePhotos(it.Photos)
	return out
}

// Clone returns a deep copy of the log entry.
func (l MaintenanceLog) Clone() MaintenanceLog {
	out := l
	out.Photos = ClonePhotos(l.Photos)
	return out
}

// ClonePhotos copies a photo list, returning an empty non-nil slice for nil input.
func ClonePhotos(photos []string) []string {
	return append(make([]string, 0, len(photos)), photos...)
}

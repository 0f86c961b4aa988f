package core

import (
	"context"
	"fmt"

	"hotelcare/pkg/domain"
)

// Service exposes the document operations behind a single entry point. Every
// operation runs through the session so it is serialised with remote updates
// and written back when the session is live.
type Service struct {
	session  *Session
	mut      Mutations
	opts     options
	confirms Confirmations
}

// NewService constructs a service over session.
func NewService(session *Session, opts ...Option) *Service {
	o := applyOptions(opts)
	return &Service{session: session, mut: o.mutations(), opts: o}
}

// Session returns the underlying session.
func (s *Service) Session() *Session { return s.session }

// Confirmations returns the pending-action holder used by Request* methods.
func (s *Service) Confirmations() *Confirmations { return &s.confirms }

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.opts.tracer.Start(ctx, op)
	started := s.opts.clock.Now()
	err := fn(ctx)
	elapsed := s.opts.clock.Now().Sub(started)
	s.opts.metrics.Observe(ctx, op, err == nil, elapsed)
	span.End(err)
	if err != nil {
		s.opts.logger.Warn("operation rejected", "operation", op, "error", err)
		return err
	}
	s.opts.logger.Debug("operation applied", "operation", op, "duration", elapsed)
	return nil
}

// mutate runs handler through the session and captures the entity it returns.
func mutate[T any](ctx context.Context, s *Service, op string, handler func(domain.AppData) (domain.AppData, T, error)) (T, error) {
	var result T
	err := s.run(ctx, op, func(ctx context.Context) error {
		return s.session.Mutate(ctx, func(d domain.AppData) (domain.AppData, error) {
			next, v, err := handler(d)
			if err != nil {
				return d, err
			}
			result = v
			return next, nil
		})
	})
	return result, err
}

func (s *Service) apply(ctx context.Context, op string, fn Mutation) error {
	return s.run(ctx, op, func(ctx context.Context) error {
		return s.session.Mutate(ctx, fn)
	})
}

// AddHotel creates a hotel.
func (s *Service) AddHotel(ctx context.Context, in HotelInput) (domain.Hotel, error) {
	return mutate(ctx, s, "hotel.add", func(d domain.AppData) (domain.AppData, domain.Hotel, error) {
		return s.mut.AddHotel(d, in)
	})
}

// UpdateHotel replaces a hotel's editable fields.
func (s *Service) UpdateHotel(ctx context.Context, hotelID string, in HotelInput) (domain.Hotel, error) {
	return mutate(ctx, s, "hotel.update", func(d domain.AppData) (domain.AppData, domain.Hotel, error) {
		return s.mut.UpdateHotel(d, hotelID, in)
	})
}

// DeleteHotel removes a hotel and everything under it.
func (s *Service) DeleteHotel(ctx context.Context, hotelID string) error {
	return s.apply(ctx, "hotel.delete", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.DeleteHotel(d, hotelID)
	})
}

// AddApartment creates an apartment in a hotel.
func (s *Service) AddApartment(ctx context.Context, hotelID string, in ApartmentInput) (domain.Apartment, error) {
	return mutate(ctx, s, "apartment.add", func(d domain.AppData) (domain.AppData, domain.Apartment, error) {
		return s.mut.AddApartment(d, hotelID, in)
	})
}

// UpdateApartment replaces an apartment's editable fields.
func (s *Service) UpdateApartment(ctx context.Context, hotelID, apartmentID string, in ApartmentInput) (domain.Apartment, error) {
	return mutate(ctx, s, "apartment.update", func(d domain.AppData) (domain.AppData, domain.Apartment, error) {
		return s.mut.UpdateApartment(d, hotelID, apartmentID, in)
	})
}

// AppendApartmentPhotos attaches uploaded photos up to the cap.
func (s *Service) AppendApartmentPhotos(ctx context.Context, hotelID, apartmentID string, photos []string) (domain.Apartment, error) {
	return mutate(ctx, s, "apartment.photos.append", func(d domain.AppData) (domain.AppData, domain.Apartment, error) {
		return s.mut.AppendApartmentPhotos(d, hotelID, apartmentID, photos)
	})
}

// DeleteApartmentPhoto removes one apartment photo.
func (s *Service) DeleteApartmentPhoto(ctx context.Context, hotelID, apartmentID string, index int) error {
	return s.apply(ctx, "apartment.photos.delete", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.DeleteApartmentPhoto(d, hotelID, apartmentID, index)
	})
}

// DeleteApartment removes an apartment and everything under it.
func (s *Service) DeleteApartment(ctx context.Context, hotelID, apartmentID string) error {
	return s.apply(ctx, "apartment.delete", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.DeleteApartment(d, hotelID, apartmentID)
	})
}

// AddItem creates an item in status OK.
func (s *Service) AddItem(ctx context.Context, hotelID, apartmentID string, in ItemInput) (domain.Item, error) {
	return mutate(ctx, s, "item.add", func(d domain.AppData) (domain.AppData, domain.Item, error) {
		return s.mut.AddItem(d, hotelID, apartmentID, in)
	})
}

// EditItem replaces an item's name and photos.
func (s *Service) EditItem(ctx context.Context, hotelID, apartmentID, itemID string, in ItemInput) (domain.Item, error) {
	return mutate(ctx, s, "item.edit", func(d domain.AppData) (domain.AppData, domain.Item, error) {
		return s.mut.EditItem(d, hotelID, apartmentID, itemID, in)
	})
}

// SetItemStatus changes an item's status.
func (s *Service) SetItemStatus(ctx context.Context, hotelID, apartmentID, itemID string, status domain.ItemStatus) (domain.Item, error) {
	return mutate(ctx, s, "item.status", func(d domain.AppData) (domain.AppData, domain.Item, error) {
		return s.mut.SetItemStatus(d, hotelID, apartmentID, itemID, status)
	})
}

// DeleteItemPhoto removes one item photo.
func (s *Service) DeleteItemPhoto(ctx context.Context, hotelID, apartmentID, itemID string, index int) error {
	return s.apply(ctx, "item.photos.delete", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.DeleteItemPhoto(d, hotelID, apartmentID, itemID, index)
	})
}

// DeleteItem removes an item; its log entries stay.
func (s *Service) DeleteItem(ctx context.Context, hotelID, apartmentID, itemID string) error {
	return s.apply(ctx, "item.delete", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.DeleteItem(d, hotelID, apartmentID, itemID)
	})
}

// AddLog records maintenance on an item.
func (s *Service) AddLog(ctx context.Context, hotelID, apartmentID string, in LogInput) (domain.MaintenanceLog, error) {
	return mutate(ctx, s, "log.add", func(d domain.AppData) (domain.AppData, domain.MaintenanceLog, error) {
		return s.mut.AddLog(d, hotelID, apartmentID, in)
	})
}

// AddTask schedules a task.
func (s *Service) AddTask(ctx context.Context, in TaskInput) (domain.ScheduledTask, error) {
	return mutate(ctx, s, "task.add", func(d domain.AppData) (domain.AppData, domain.ScheduledTask, error) {
		return s.mut.AddTask(d, in)
	})
}

// UpdateTask replaces a task's editable fields.
func (s *Service) UpdateTask(ctx context.Context, taskID string, in TaskInput) (domain.ScheduledTask, error) {
	return mutate(ctx, s, "task.update", func(d domain.AppData) (domain.AppData, domain.ScheduledTask, error) {
		return s.mut.UpdateTask(d, taskID, in)
	})
}

// ToggleTask flips a task's completion.
func (s *Service) ToggleTask(ctx context.Context, taskID string) (domain.ScheduledTask, error) {
	return mutate(ctx, s, "task.toggle", func(d domain.AppData) (domain.AppData, domain.ScheduledTask, error) {
		return s.mut.ToggleTask(d, taskID)
	})
}

// MarkNotificationSent flags a task's reminder as delivered.
func (s *Service) MarkNotificationSent(ctx context.Context, taskID string) error {
	return s.apply(ctx, "task.notified", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.MarkNotificationSent(d, taskID)
	})
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	return s.apply(ctx, "task.delete", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.DeleteTask(d, taskID)
	})
}

// SetUserName changes the display name.
func (s *Service) SetUserName(ctx context.Context, name string) error {
	return s.apply(ctx, "user.name", func(d domain.AppData) (domain.AppData, error) {
		return s.mut.SetUserName(d, name)
	})
}

// Data returns a copy of the whole document.
func (s *Service) Data() domain.AppData { return s.session.Snapshot() }

// Hotels returns the hotels in stored order.
func (s *Service) Hotels() []domain.Hotel { return s.session.Snapshot().Hotels }

// Hotel returns one hotel.
func (s *Service) Hotel(hotelID string) (domain.Hotel, error) {
	d := s.session.Snapshot()
	h, err := locateHotel(&d, hotelID)
	if err != nil {
		return domain.Hotel{}, err
	}
	return *h, nil
}

// Apartment returns one apartment.
func (s *Service) Apartment(hotelID, apartmentID string) (domain.Apartment, error) {
	d := s.session.Snapshot()
	a, err := locateApartment(&d, hotelID, apartmentID)
	if err != nil {
		return domain.Apartment{}, err
	}
	return *a, nil
}

// Tasks returns tasks with incomplete ones first, then by due date.
func (s *Service) Tasks() []domain.ScheduledTask {
	return SortTasks(s.session.Snapshot().ScheduledTasks)
}

// Today returns the current day in the configured location.
func (s *Service) Today() domain.Date {
	return domain.Today(s.opts.clock.Now(), s.opts.location)
}

// TaskStatus derives the status label of task for today.
func (s *Service) TaskStatus(task domain.ScheduledTask) TaskStatus {
	return DescribeTask(task, s.Today())
}

// History returns an apartment's maintenance log filtered by item status.
func (s *Service) History(hotelID, apartmentID string, filter HistoryFilter) ([]HistoryEntry, error) {
	a, err := s.Apartment(hotelID, apartmentID)
	if err != nil {
		return nil, err
	}
	return History(a, filter), nil
}

func (s *Service) requestDelete(title, message string, action func(context.Context) error) Pending {
	p := Pending{Title: title, Message: message, ConfirmLabel: "Excluir", Action: action}
	s.confirms.Request(p)
	return p
}

// RequestDeleteHotel stages a hotel deletion for confirmation.
func (s *Service) RequestDeleteHotel(hotelID string) (Pending, error) {
	h, err := s.Hotel(hotelID)
	if err != nil {
		return Pending{}, err
	}
	return s.requestDelete("Excluir hotel?",
		fmt.Sprintf("O hotel %q e todos os seus apartamentos serão excluídos.", h.Name),
		func(ctx context.Context) error { return s.DeleteHotel(ctx, hotelID) }), nil
}

// RequestDeleteApartment stages an apartment deletion for confirmation.
func (s *Service) RequestDeleteApartment(hotelID, apartmentID string) (Pending, error) {
	a, err := s.Apartment(hotelID, apartmentID)
	if err != nil {
		return Pending{}, err
	}
	return s.requestDelete("Excluir apartamento?",
		fmt.Sprintf("O apartamento %s, seus itens e histórico serão excluídos.", a.Number),
		func(ctx context.Context) error { return s.DeleteApartment(ctx, hotelID, apartmentID) }), nil
}

// RequestDeleteItem stages an item deletion for confirmation.
func (s *Service) RequestDeleteItem(hotelID, apartmentID, itemID string) (Pending, error) {
	a, err := s.Apartment(hotelID, apartmentID)
	if err != nil {
		return Pending{}, err
	}
	if a.FindItem(itemID) < 0 {
		return Pending{}, NotFoundError{Entity: domain.EntityItem, ID: itemID}
	}
	return s.requestDelete("Excluir item?",
		fmt.Sprintf("O item %q será excluído. O histórico de manutenção é mantido.", ItemLabel(a, itemID)),
		func(ctx context.Context) error { return s.DeleteItem(ctx, hotelID, apartmentID, itemID) }), nil
}

// RequestDeleteTask stages a task deletion for confirmation.
func (s *Service) RequestDeleteTask(taskID string) (Pending, error) {
	d := s.session.Snapshot()
	i := d.FindTask(taskID)
	if i < 0 {
		return Pending{}, NotFoundError{Entity: domain.EntityTask, ID: taskID}
	}
	return s.requestDelete("Excluir tarefa?",
		fmt.Sprintf("A tarefa %q será excluída.", d.ScheduledTasks[i].Title),
		func(ctx context.Context) error { return s.DeleteTask(ctx, taskID) }), nil
}

// RequestDeleteApartmentPhoto stages removal of an apartment photo.
func (s *Service) RequestDeleteApartmentPhoto(hotelID, apartmentID string, index int) Pending {
	return s.requestDelete("Excluir foto?", "A foto será removida.",
		func(ctx context.Context) error { return s.DeleteApartmentPhoto(ctx, hotelID, apartmentID, index) })
}

// RequestDeleteItemPhoto stages removal of an item photo.
func (s *Service) RequestDeleteItemPhoto(hotelID, apartmentID, itemID string, index int) Pending {
	return s.requestDelete("Excluir foto?", "A foto será removida.",
		func(ctx context.Context) error { return s.DeleteItemPhoto(ctx, hotelID, apartmentID, itemID, index) })
}

// RequestLogout stages signing out; logout runs only when confirmed.
func (s *Service) RequestLogout(logout func(context.Context) error) Pending {
	p := Pending{
		Title:        "Sair da conta?",
		Message:      "Seus dados continuarão salvos.",
		ConfirmLabel: "Sair",
		Action:       logout,
	}
	s.confirms.Request(p)
	return p
}

package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"hotelcare/pkg/domain"
)

// Sanitizer rebuilds a document tree from untrusted input. Every field that is
// missing, of the wrong type, or otherwise unusable is replaced with its
// default; entries that are not objects are dropped. Sanitize never fails.
type Sanitizer struct {
	NewID    func() string
	Now      func() time.Time
	Location *time.Location
}

// DefaultSanitizer uses random ids and the wall clock in UTC.
func DefaultSanitizer() Sanitizer {
	return Sanitizer{NewID: domain.NewID, Now: time.Now, Location: time.UTC}
}

// Sanitize normalises raw with the default sanitizer.
func Sanitize(raw any) domain.AppData {
	return DefaultSanitizer().Sanitize(raw)
}

// SanitizeJSON normalises an encoded document with the default sanitizer.
func SanitizeJSON(data []byte) domain.AppData {
	return DefaultSanitizer().SanitizeJSON(data)
}

// SanitizeJSON decodes data and normalises it. Undecodable input yields the
// empty document.
func (s Sanitizer) SanitizeJSON(data []byte) domain.AppData {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		raw = nil
	}
	return s.Sanitize(raw)
}

// Sanitize normalises raw. Typed documents are round-tripped through JSON so
// the same rules apply to them.
func (s Sanitizer) Sanitize(raw any) domain.AppData {
	s = s.withDefaults()
	switch v := raw.(type) {
	case domain.AppData, *domain.AppData, json.RawMessage, []byte:
		var data []byte
		switch b := v.(type) {
		case json.RawMessage:
			data = b
		case []byte:
			data = b
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return domain.NewAppData()
			}
			data = encoded
		}
		return s.SanitizeJSON(data)
	}

	obj, _ := raw.(map[string]any)
	out := domain.NewAppData()
	if name, ok := asString(obj["userName"]); ok && strings.TrimSpace(name) != "" {
		out.UserName = name
	}
	hotelIDs := newIDSet(s.NewID)
	for _, entry := range objects(obj["hotels"]) {
		out.Hotels = append(out.Hotels, s.hotel(entry, hotelIDs))
	}
	taskIDs := newIDSet(s.NewID)
	for _, entry := range objects(obj["scheduledTasks"]) {
		out.ScheduledTasks = append(out.ScheduledTasks, s.task(entry, taskIDs))
	}
	return out
}

func (s Sanitizer) withDefaults() Sanitizer {
	if s.NewID == nil {
		s.NewID = domain.NewID
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	return s
}

func (s Sanitizer) hotel(obj map[string]any, ids *idSet) domain.Hotel {
	h := domain.Hotel{
		ID:         ids.claim(obj["id"]),
		Name:       stringOr(obj["name"], ""),
		Address:    stringOr(obj["address"], ""),
		Apartments: []domain.Apartment{},
	}
	if photo, ok := asString(obj["photo"]); ok && photo != "" {
		h.Photo = &photo
	}
	aptIDs := newIDSet(s.NewID)
	for _, entry := range objects(obj["apartments"]) {
		h.Apartments = append(h.Apartments, s.apartment(entry, aptIDs))
	}
	return h
}

func (s Sanitizer) apartment(obj map[string]any, ids *idSet) domain.Apartment {
	a := domain.Apartment{
		ID:              ids.claim(obj["id"]),
		Number:          stringOr(obj["number"], ""),
		Description:     stringOr(obj["description"], ""),
		Photos:          photos(obj["photos"]),
		Items:           []domain.Item{},
		MaintenanceLogs: []domain.MaintenanceLog{},
	}
	itemIDs := newIDSet(s.NewID)
	for _, entry := range objects(obj["items"]) {
		a.Items = append(a.Items, s.item(entry, itemIDs))
	}
	logIDs := newIDSet(s.NewID)
	for _, entry := range objects(obj["maintenanceLogs"]) {
		a.MaintenanceLogs = append(a.MaintenanceLogs, s.log(entry, logIDs))
	}
	return a
}

func (s Sanitizer) item(obj map[string]any, ids *idSet) domain.Item {
	status := domain.StatusOK
	if raw, ok := asString(obj["status"]); ok {
		if parsed, ok := domain.ParseItemStatus(raw); ok {
			status = parsed
		}
	}
	return domain.Item{
		ID:     ids.claim(obj["id"]),
		Name:   stringOr(obj["name"], ""),
		Status: status,
		Photos: photos(obj["photos"]),
	}
}

func (s Sanitizer) log(obj map[string]any, ids *idSet) domain.MaintenanceLog {
	return domain.MaintenanceLog{
		ID:     ids.claim(obj["id"]),
		Date:   s.timestamp(obj["date"]),
		Notes:  stringOr(obj["notes"], ""),
		Photos: photos(obj["photos"]),
		ItemID: stringOr(obj["itemId"], ""),
	}
}

func (s Sanitizer) task(obj map[string]any, ids *idSet) domain.ScheduledTask {
	priority := domain.PriorityMedium
	if raw, ok := asString(obj["priority"]); ok {
		if parsed, ok := domain.ParseTaskPriority(raw); ok {
			priority = parsed
		}
	}
	return domain.ScheduledTask{
		ID:               ids.claim(obj["id"]),
		Title:            stringOr(obj["title"], ""),
		Description:      stringOr(obj["description"], ""),
		DueDate:          s.day(obj["dueDate"]),
		Priority:         priority,
		IsComplete:       truthy(obj["isComplete"]),
		NotificationSent: truthy(obj["notificationSent"]),
	}
}

// Bounds of the instants a document can store: JSON timestamps carry a
// four-digit year.
var (
	minTimestamp = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// timestamp accepts RFC 3339 strings, epoch milliseconds, and the
// {seconds, nanoseconds} shape some document stores emit. Values outside the
// storable range fall back to now.
func (s Sanitizer) timestamp(v any) time.Time {
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t)); err == nil && storable(parsed) {
			return parsed.UTC()
		}
	case json.Number, float64, int, int64:
		ms, ok := asFloat(t)
		if ok && ms > 0 && ms <= float64(maxTimestamp.UnixMilli()) {
			return time.UnixMilli(int64(ms)).UTC()
		}
	case map[string]any:
		sec, ok := asFloat(t["seconds"])
		if ok && sec >= float64(minTimestamp.Unix()) && sec <= float64(maxTimestamp.Unix()) {
			nanos, _ := asFloat(t["nanoseconds"])
			if !(nanos >= 0 && nanos < 1e9) {
				nanos = 0
			}
			return time.Unix(int64(sec), int64(nanos)).UTC()
		}
	}
	return s.Now().UTC()
}

func storable(t time.Time) bool {
	u := t.UTC()
	return !u.Before(minTimestamp) && !u.After(maxTimestamp)
}

func (s Sanitizer) day(v any) domain.Date {
	if raw, ok := v.(string); ok {
		raw = strings.TrimSpace(raw)
		if d, err := domain.ParseDate(raw); err == nil {
			return d
		}
		if len(raw) > len(domain.DateLayout) {
			if d, err := domain.ParseDate(raw[:len(domain.DateLayout)]); err == nil {
				return d
			}
		}
	}
	return domain.Today(s.Now(), s.Location)
}

// idSet hands out the stored id of an entry unless it is empty or already
// used in the same collection, in which case a fresh id is generated.
type idSet struct {
	seen  map[string]struct{}
	newID func() string
}

func newIDSet(newID func() string) *idSet {
	return &idSet{seen: map[string]struct{}{}, newID: newID}
}

func (s *idSet) claim(v any) string {
	id, ok := asString(v)
	if ok {
		id = strings.TrimSpace(id)
	}
	if _, dup := s.seen[id]; !ok || id == "" || dup {
		id = s.newID()
		for {
			if _, dup := s.seen[id]; !dup {
				break
			}
			id = s.newID()
		}
	}
	s.seen[id] = struct{}{}
	return id
}

// objects returns the object entries of an array value, dropping falsy and
// non-object entries. Anything that is not an array yields nothing.
func objects(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, entry := range arr {
		if obj, ok := entry.(map[string]any); ok && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

func photos(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, entry := range arr {
		if s, ok := entry.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringOr(v any, def string) string {
	if s, ok := asString(v); ok {
		return s
	}
	return def
}

// asString accepts strings and numbers; numbers are rendered without exponent.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		if f, err := t.Float64(); err == nil && !math.IsInf(f, 0) {
			if i, err := t.Int64(); err == nil {
				return strconv.FormatInt(i, 10), true
			}
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return t.String(), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		lowered := strings.ToLower(strings.TrimSpace(t))
		return lowered != "" && lowered != "false" && lowered != "0"
	case nil:
		return false
	}
	if f, ok := asFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	// Arrays and objects are truthy.
	return true
}

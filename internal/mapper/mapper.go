// Package mapper decodes upstream Hive API payloads into canonical records.
//
// The upstream carries two generations of field names: current lowerCamelCase
// and the legacy PascalCase/Hungarian names older clients still emit. The
// decoder accepts either casing and produces a single canonical shape, so
// dual naming never leaks past this package.
package mapper

import (
	"encoding/json"
	"time"

	"github.com/hivehq/hive-bff/internal/models"
)

// rawRecord is one loosely-typed upstream object.
type rawRecord map[string]json.RawMessage

// DecodeTasks decodes an upstream task array. Malformed input, including
// null and non-arrays, decodes to an empty slice; wrongly-typed fields
// decode to their zero values.
func DecodeTasks(data json.RawMessage) []models.Task {
	raws := decodeArray(data)
	out := make([]models.Task, 0, len(raws))
	for _, r := range raws {
		out = append(out, models.Task{
			ID:                r.str("id", "UniqueId"),
			Title:             r.str("title", "Title"),
			Body:              r.str("body", "Description"),
			Priority:          r.num("priority", "Priority"),
			Deadline:          r.timePtr("deadline", "Deadline"),
			ScheduledStart:    r.timePtr("scheduledStart", "Scheduled_Start"),
			ScheduledEnd:      r.timePtr("scheduledEnd", "Scheduled_End"),
			Recurrence:        r.str("recurrence", "Frequency"),
			AllDay:            r.boolean("allDay", "All_Day"),
			HomeMembers:       r.strs("homeMembers", "HomeMembers"),
			BlacklistedFamily: r.strs("blacklistedFamily", "BlackListed_Family"),
			PeopleInvolved:    r.strs("peopleInvolved", "People_Involved"),
			CreatedAt:         r.timeVal("createdAt", "Created_At"),
			UpdatedAt:         r.timeVal("updatedAt", "Updated_At"),
			Deleted:           r.boolean("deleted", "Is_Deleted"),
		})
	}
	return out
}

// DecodeNotes decodes an upstream note array with the same totality
// guarantees as DecodeTasks.
func DecodeNotes(data json.RawMessage) []models.Note {
	raws := decodeArray(data)
	out := make([]models.Note, 0, len(raws))
	for _, r := range raws {
		out = append(out, models.Note{
			ID:                r.str("id", "UniqueId"),
			Title:             r.str("title", "Title"),
			Body:              r.str("body", "Description"),
			Priority:          r.num("priority", "Priority"),
			Deadline:          r.timePtr("deadline", "Deadline"),
			Recurrence:        r.str("recurrence", "Frequency"),
			AllDay:            r.boolean("allDay", "All_Day"),
			HomeMembers:       r.strs("homeMembers", "HomeMembers"),
			BlacklistedFamily: r.strs("blacklistedFamily", "BlackListed_Family"),
			PeopleInvolved:    r.strs("peopleInvolved", "People_Involved"),
			CreatedAt:         r.timeVal("createdAt", "Created_At"),
			UpdatedAt:         r.timeVal("updatedAt", "Updated_At"),
			Deleted:           r.boolean("deleted", "Is_Deleted"),
		})
	}
	return out
}

// DecodeEvents decodes an upstream event array with the same totality
// guarantees as DecodeTasks.
func DecodeEvents(data json.RawMessage) []models.Event {
	raws := decodeArray(data)
	out := make([]models.Event, 0, len(raws))
	for _, r := range raws {
		out = append(out, models.Event{
			ID:                r.str("id", "UniqueId"),
			Title:             r.str("title", "Title"),
			Body:              r.str("body", "Description"),
			Priority:          r.num("priority", "Priority"),
			ScheduledStart:    r.timePtr("scheduledStart", "Scheduled_Start"),
			ScheduledEnd:      r.timePtr("scheduledEnd", "Scheduled_End"),
			Recurrence:        r.str("recurrence", "Frequency"),
			AllDay:            r.boolean("allDay", "All_Day"),
			HomeMembers:       r.strs("homeMembers", "HomeMembers"),
			BlacklistedFamily: r.strs("blacklistedFamily", "BlackListed_Family"),
			PeopleInvolved:    r.strs("peopleInvolved", "People_Involved"),
			CreatedAt:         r.timeVal("createdAt", "Created_At"),
			UpdatedAt:         r.timeVal("updatedAt", "Updated_At"),
			Deleted:           r.boolean("deleted", "Is_Deleted"),
		})
	}
	return out
}

// DecodeFiles decodes an upstream file array. Files arrive in their final
// shape already, so this is a strict struct decode with the same
// empty-on-non-array totality as the other decoders.
func DecodeFiles(data json.RawMessage) []models.File {
	if len(data) == 0 {
		return []models.File{}
	}
	var files []models.File
	if err := json.Unmarshal(data, &files); err != nil || files == nil {
		return []models.File{}
	}
	return files
}

// decodeArray turns data into a slice of raw records, empty on any
// non-array input.
func decodeArray(data json.RawMessage) []rawRecord {
	if len(data) == 0 {
		return nil
	}
	var raws []rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}
	return raws
}

// --- field accessors: current name first, legacy name as fallback ---

func (r rawRecord) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func (r rawRecord) str(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

func (r rawRecord) num(keys ...string) int {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return 0
	}
	return n
}

func (r rawRecord) boolean(keys ...string) bool {
	v, ok := r.lookup(keys...)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false
	}
	return b
}

// strs always returns a non-nil slice so association lists are never null
// downstream.
func (r rawRecord) strs(keys ...string) []string {
	v, ok := r.lookup(keys...)
	if !ok {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func (r rawRecord) timeVal(keys ...string) time.Time {
	if t := r.timePtr(keys...); t != nil {
		return *t
	}
	return time.Time{}
}

func (r rawRecord) timePtr(keys ...string) *time.Time {
	s := r.str(keys...)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

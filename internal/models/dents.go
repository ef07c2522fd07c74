package models

import "time"

// Task is a household task attached to a contact, tile, or member.
type Task struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Priority          int        `json:"priority"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	ScheduledStart    *time.Time `json:"scheduledStart,omitempty"`
	ScheduledEnd      *time.Time `json:"scheduledEnd,omitempty"`
	Recurrence        string     `json:"recurrence,omitempty"`
	AllDay            bool       `json:"allDay"`
	HomeMembers       []string   `json:"homeMembers"`
	BlacklistedFamily []string   `json:"blacklistedFamily"`
	PeopleInvolved    []string   `json:"peopleInvolved"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Deleted           bool       `json:"deleted"`
}

// Note is a free-text note with the same association lists as Task.
type Note struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Priority          int        `json:"priority"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	Recurrence        string     `json:"recurrence,omitempty"`
	AllDay            bool       `json:"allDay"`
	HomeMembers       []string   `json:"homeMembers"`
	BlacklistedFamily []string   `json:"blacklistedFamily"`
	PeopleInvolved    []string   `json:"peopleInvolved"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Deleted           bool       `json:"deleted"`
}

// Event is a calendar event with a scheduled time window.
type Event struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Priority          int        `json:"priority"`
	ScheduledStart    *time.Time `json:"scheduledStart,omitempty"`
	ScheduledEnd      *time.Time `json:"scheduledEnd,omitempty"`
	Recurrence        string     `json:"recurrence,omitempty"`
	AllDay            bool       `json:"allDay"`
	HomeMembers       []string   `json:"homeMembers"`
	BlacklistedFamily []string   `json:"blacklistedFamily"`
	PeopleInvolved    []string   `json:"peopleInvolved"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Deleted           bool       `json:"deleted"`
}

// File is a document record with its access-control list.
// BlacklistedFamily holds user ids excluded from seeing the file.
type File struct {
	ID                string    `json:"id"`
	Filename          string    `json:"filename"`
	URL               string    `json:"url"`
	StorageProviderID string    `json:"storageProviderId"`
	AccountID         string    `json:"accountId"`
	UserID            string    `json:"userId"`
	BlacklistedFamily []string  `json:"blacklistedFamily"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Active            bool      `json:"active"`
	Deleted           bool      `json:"deleted"`
}

// DentsContent holds the four per-kind collections of an aggregate.
type DentsContent struct {
	Files  []File  `json:"files"`
	Notes  []Note  `json:"notes"`
	Events []Event `json:"events"`
	Tasks  []Task  `json:"tasks"`
}

// DentsMetadata describes what was requested and how much came back.
type DentsMetadata struct {
	RequestedTypes []ContentKind `json:"requestedTypes,omitempty"`
	IncludeDeleted bool          `json:"includeDeleted"`
	TotalItems     int           `json:"totalItems"`
}

// DentsResponse is the unified content aggregate for one entity.
//
// Invariant: Counts[k] equals the length of the matching collection whenever
// that collection is populated. The fallback shape has every collection empty
// and every count zero.
type DentsResponse struct {
	EntityType EntityType          `json:"entityType"`
	EntityID   string              `json:"entityId"`
	Dents      DentsContent        `json:"dents"`
	Counts     map[ContentKind]int `json:"counts"`
	Metadata   *DentsMetadata      `json:"metadata,omitempty"`
}

// NewEmptyResponse builds the well-shaped zero aggregate used as the
// terminal fallback for a failed fetch.
func NewEmptyResponse(entityType EntityType, entityID string) *DentsResponse {
	return &DentsResponse{
		EntityType: entityType,
		EntityID:   entityID,
		Dents: DentsContent{
			Files:  []File{},
			Notes:  []Note{},
			Events: []Event{},
			Tasks:  []Task{},
		},
		Counts: map[ContentKind]int{
			KindFiles:  0,
			KindNotes:  0,
			KindEvents: 0,
			KindTasks:  0,
		},
		Metadata: &DentsMetadata{TotalItems: 0},
	}
}

// Count returns the count for one kind, zero when absent.
func (d *DentsResponse) Count(kind ContentKind) int {
	if d.Counts == nil {
		return 0
	}
	return d.Counts[kind]
}

// ConsistentCounts reports whether every populated collection agrees with
// its advertised count.
func (d *DentsResponse) ConsistentCounts() bool {
	checks := []struct {
		kind ContentKind
		n    int
	}{
		{KindFiles, len(d.Dents.Files)},
		{KindNotes, len(d.Dents.Notes)},
		{KindEvents, len(d.Dents.Events)},
		{KindTasks, len(d.Dents.Tasks)},
	}
	for _, c := range checks {
		if got, ok := d.Counts[c.kind]; ok && got != c.n {
			return false
		}
	}
	return true
}

// NormalizeCounts recomputes Counts and Metadata.TotalItems from the
// collections, filling any count the upstream omitted.
func (d *DentsResponse) NormalizeCounts() {
	if d.Counts == nil {
		d.Counts = make(map[ContentKind]int, len(AllContentKinds))
	}
	d.Counts[KindFiles] = len(d.Dents.Files)
	d.Counts[KindNotes] = len(d.Dents.Notes)
	d.Counts[KindEvents] = len(d.Dents.Events)
	d.Counts[KindTasks] = len(d.Dents.Tasks)

	total := 0
	for _, n := range d.Counts {
		total += n
	}
	if d.Metadata == nil {
		d.Metadata = &DentsMetadata{}
	}
	d.Metadata.TotalItems = total
}

package models

// EntityType classifies the kind of entity an aggregate belongs to.
type EntityType string

const (
	EntityContact EntityType = "contact"
	EntityTile    EntityType = "tile"
	EntityUser    EntityType = "user"
)

// ValidEntityTypes is the set of all valid entity types.
var ValidEntityTypes = []EntityType{
	EntityContact,
	EntityTile,
	EntityUser,
}

// IsValid returns true if the entity type is recognized.
func (et EntityType) IsValid() bool {
	for i := range ValidEntityTypes {
		if et == ValidEntityTypes[i] {
			return true
		}
	}
	return false
}

// ContentKind names one of the four content collections in an aggregate.
type ContentKind string

const (
	KindFiles  ContentKind = "files"
	KindNotes  ContentKind = "notes"
	KindEvents ContentKind = "events"
	KindTasks  ContentKind = "tasks"
)

// AllContentKinds is the default set requested when no filter is given.
var AllContentKinds = []ContentKind{
	KindFiles,
	KindNotes,
	KindEvents,
	KindTasks,
}

// IsValid returns true if the content kind is recognized.
func (ck ContentKind) IsValid() bool {
	for i := range AllContentKinds {
		if ck == AllContentKinds[i] {
			return true
		}
	}
	return false
}

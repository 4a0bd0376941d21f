package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User owns a set of journal entries. JournalEntries is a denormalized copy of
// the user's entries and is only mutated by the journal entry service.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName string             `bson:"userName" json:"userName"`
	Password string             `bson:"password" json:"-"` // Don't return password in JSON
	Roles    []string           `bson:"roles" json:"roles"`

	JournalEntries []JournalEntry `bson:"journalEntries" json:"journalEntries"`
}

func (u *User) GetID() primitive.ObjectID {
	return u.ID
}

func (u *User) SetID(id primitive.ObjectID) {
	u.ID = id
}

// PutJournalEntry replaces the entry with the same id, or appends it.
func (u *User) PutJournalEntry(entry JournalEntry) {
	for i := range u.JournalEntries {
		if u.JournalEntries[i].ID == entry.ID {
			u.JournalEntries[i] = entry
			return
		}
	}
	u.JournalEntries = append(u.JournalEntries, entry)
}

// RemoveJournalEntry drops every entry with the given id and reports whether any was removed.
func (u *User) RemoveJournalEntry(id primitive.ObjectID) bool {
	kept := u.JournalEntries[:0]
	removed := false
	for _, e := range u.JournalEntries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	u.JournalEntries = kept
	return removed
}

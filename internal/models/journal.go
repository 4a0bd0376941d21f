package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JournalEntry is a single journal entry. Date is always assigned by the server on save.
type JournalEntry struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`
	Date    time.Time          `bson:"date" json:"date"`

	// Attachment URLs (uploaded separately)
	Attachments []string `bson:"attachments,omitempty" json:"attachments,omitempty"`
}

func (e *JournalEntry) GetID() primitive.ObjectID {
	return e.ID
}

func (e *JournalEntry) SetID(id primitive.ObjectID) {
	e.ID = id
}

// ApplyUpdate copies non-empty title and content from update.
func (e *JournalEntry) ApplyUpdate(update JournalEntry) {
	if update.Title != "" {
		e.Title = update.Title
	}
	if update.Content != "" {
		e.Content = update.Content
	}
}

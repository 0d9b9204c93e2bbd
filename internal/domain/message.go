package domain

import (
	"context"
	"time"

	"github.com/2vw/equinox/internal/infrastructure/validate"
)

const MaxContentLength = 1024

// Attachment and Embed are reserved for rich content. The ingest path
// always writes them empty; they exist so the stored record shape does
// not change once uploads and embeds land.
type Attachment struct {
	ID       int64  `bson:"_id" json:"id,string"`
	Filename string `bson:"filename" json:"filename"`
	URL      string `bson:"url" json:"url"`
}

type Embed struct {
	Title       string `bson:"title,omitempty" json:"title,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	URL         string `bson:"url,omitempty" json:"url,omitempty"`
}

// Message is a single chat message. The storage key is the exact
// (id, created_at, room_id) triple: created_at clusters the row, so a
// delete that omits any of the three can target the wrong record.
type Message struct {
	ID              int64        `bson:"_id" json:"id,string"`
	RoomID          int64        `bson:"room_id" json:"room_id,string"`
	SpaceID         *int64       `bson:"space_id,omitempty" json:"space_id,omitempty"`
	AuthorID        int64        `bson:"author_id" json:"author_id,string"`
	Content         string       `bson:"content" json:"content"`
	ReferenceID     *int64       `bson:"reference_id,omitempty" json:"reference_id,omitempty"`
	CreatedAt       time.Time    `bson:"created_at" json:"created_at"`
	EditedAt        *time.Time   `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	Attachments     []Attachment `bson:"attachments" json:"attachments"`
	Embeds          []Embed      `bson:"embeds" json:"embeds"`
	Mentions        []int64      `bson:"mentions" json:"mentions"`
	MentionRoles    []int64      `bson:"mention_roles" json:"mention_roles"`
	MentionEveryone bool         `bson:"mention_everyone" json:"mention_everyone"`
	Flags           int          `bson:"flags" json:"flags"`
	Pinned          bool         `bson:"pinned" json:"pinned"`
	System          bool         `bson:"system" json:"system"`
	TTS             bool         `bson:"tts" json:"tts"`
	WebhookID       *int64       `bson:"webhook_id,omitempty" json:"webhook_id,omitempty"`
	ThreadID        *int64       `bson:"thread_id,omitempty" json:"thread_id,omitempty"`
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByID(ctx context.Context, roomID, id int64) (*Message, error)
	ListByRoom(ctx context.Context, roomID int64, limit int) ([]Message, error)
	// Delete removes the row identified by the message's full
	// (id, created_at, room_id) key and returns ErrMessageNotFound
	// when no row matches all three.
	Delete(ctx context.Context, message *Message) error
}

// ValidateContent enforces the admission rule for message bodies:
// present and 1..1024 code points.
func ValidateContent(content string) error {
	return validate.Field("content",
		validate.Required(),
		validate.RuneLengthBetween(1, MaxContentLength),
	)(content)
}

// NewMessage builds a full message record for the given author and room.
// Every reserved field is initialized to its empty value so the stored
// shape is stable from day one.
func NewMessage(id int64, room *Room, author *User, content string, referenceID *int64) (*Message, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}

	return &Message{
		ID:           id,
		RoomID:       room.ID,
		SpaceID:      room.SpaceID,
		AuthorID:     author.ID,
		Content:      content,
		ReferenceID:  referenceID,
		CreatedAt:    time.Now().UTC(),
		System:       author.System,
		Attachments:  []Attachment{},
		Embeds:       []Embed{},
		Mentions:     []int64{},
		MentionRoles: []int64{},
	}, nil
}

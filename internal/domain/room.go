package domain

import (
	"context"
	"errors"
)

type RoomType int

const (
	// RoomTypeText is the only room type that accepts message creation.
	// New room types get their own dispatch branch in the handlers; the
	// text-room guard is never relaxed.
	RoomTypeText     RoomType = 1
	RoomTypeVoice    RoomType = 2
	RoomTypeCategory RoomType = 3
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrUnsupportedRoomType = errors.New("room type does not support this action")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
)

// Room is a conversation container. This service only reads rooms;
// provisioning and mutation belong to the room-management service.
type Room struct {
	ID      int64    `bson:"_id" json:"id,string"`
	Type    RoomType `bson:"type" json:"type"`
	SpaceID *int64   `bson:"space_id,omitempty" json:"space_id,omitempty"`
	Name    string   `bson:"name" json:"name"`
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*Room, error)
}

func (r *Room) SupportsMessages() bool {
	return r.Type == RoomTypeText
}

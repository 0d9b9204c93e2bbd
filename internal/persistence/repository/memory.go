package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/2vw/equinox/internal/domain"
)

// In-memory implementations of the repository interfaces. They back
// the "memory" store driver for local development and are what the
// handler tests run against.

type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[int64]domain.Message // id -> message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[int64]domain.Message),
	}
}

func (r *MemoryMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message == nil || message.ID == 0 || message.RoomID == 0 {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[message.ID] = *message
	return nil
}

func (r *MemoryMessageRepository) GetByID(ctx context.Context, roomID, id int64) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.messages[id]
	if !ok || message.RoomID != roomID {
		return nil, domain.ErrMessageNotFound
	}

	return &message, nil
}

func (r *MemoryMessageRepository) ListByRoom(ctx context.Context, roomID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := []domain.Message{}
	for _, m := range r.messages {
		if m.RoomID == roomID {
			messages = append(messages, m)
		}
	}

	// Newest first, same order the mongo repository returns.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})

	if len(messages) > limit {
		messages = messages[:limit]
	}

	return messages, nil
}

func (r *MemoryMessageRepository) Delete(ctx context.Context, message *domain.Message) error {
	if message == nil || message.ID == 0 || message.RoomID == 0 {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.messages[message.ID]
	if !ok || stored.RoomID != message.RoomID || !stored.CreatedAt.Equal(message.CreatedAt) {
		return domain.ErrMessageNotFound
	}

	delete(r.messages, message.ID)
	return nil
}

type MemoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[int64]domain.Room
}

func NewMemoryRoomRepository(rooms ...domain.Room) *MemoryRoomRepository {
	r := &MemoryRoomRepository{
		rooms: make(map[int64]domain.Room, len(rooms)),
	}
	for _, room := range rooms {
		r.rooms[room.ID] = room
	}
	return r
}

func (r *MemoryRoomRepository) Put(room domain.Room) {
	r.mu.Lock()
	r.rooms[room.ID] = room
	r.mu.Unlock()
}

func (r *MemoryRoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return &room, nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User // token -> user
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]domain.User),
	}
}

func (r *MemoryUserRepository) Put(token string, user domain.User) {
	r.mu.Lock()
	r.users[token] = user
	r.mu.Unlock()
}

func (r *MemoryUserRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	return &user, nil
}

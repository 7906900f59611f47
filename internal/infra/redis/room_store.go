package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Fafaw945/quiz-app/internal/game"
	"github.com/Fafaw945/quiz-app/internal/infra/memory"
)

// RoomStore is a Redis-aware implementation of game.RoomRepository.
// Notes:
//   - Rooms themselves stay in-process so the existing broadcast logic is
//     reused as-is.
//   - Redis marks room liveness (and could be extended to route cross-instance
//     pub/sub for a multi-node deployment).
type RoomStore struct {
	client  *redis.Client
	ttl     time.Duration
	newRoom memory.RoomFactory
	mu      sync.RWMutex
	rooms   map[string]*game.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration, newRoom memory.RoomFactory) *RoomStore {
	return &RoomStore{
		client:  client,
		ttl:     ttl,
		newRoom: newRoom,
		rooms:   make(map[string]*game.Room),
	}
}

func (s *RoomStore) GetOrCreate(roomID string) *game.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[roomID]; ok {
		return room
	}
	room := s.newRoom(roomID)
	s.rooms[roomID] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(roomID), "1", s.ttl).Err()
	return room
}

func (s *RoomStore) Get(roomID string) (*game.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

func (s *RoomStore) DeleteIfEmpty(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	if room.IsEmpty() {
		delete(s.rooms, roomID)
		_ = s.client.Del(context.Background(), s.key(roomID)).Err()
	}
}

func (s *RoomStore) key(roomID string) string {
	return "quiz:room:" + roomID
}

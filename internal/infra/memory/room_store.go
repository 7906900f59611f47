package memory

import (
	"sync"

	"github.com/Fafaw945/quiz-app/internal/game"
)

// RoomFactory builds a fresh room for an id. The store stays agnostic of
// room configuration and clocks.
type RoomFactory func(roomID string) *game.Room

// RoomStore is an in-memory implementation of game.RoomRepository.
type RoomStore struct {
	newRoom RoomFactory
	mu      sync.RWMutex
	rooms   map[string]*game.Room
}

func NewRoomStore(newRoom RoomFactory) *RoomStore {
	return &RoomStore{
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
	}
}

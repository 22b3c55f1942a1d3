package main

import "errors"

// Validation failures inside room transitions. The message text is what the
// originating client sees in a roomError event, so it stays human-readable.
var (
	ErrNameTaken        = errors.New("Name already taken in this room")
	ErrGameInProgress   = errors.New("Game already in progress")
	ErrNotLeader        = errors.New("Only the room leader can start the game")
	ErrNotEnoughPlayers = errors.New("Need at least 2 players to start a game")
	ErrRoomNotFound     = errors.New("Room not found")
	ErrNameRequired     = errors.New("A display name is required")
)

package engine

import "errors"

// Error is a rule violation reported back to the caller as errorMsg{code, text}.
// Code is stable for clients, Message is shown to the player.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

var ErrRoomNotFound = &Error{"RoomNotFound", "Raum nicht gefunden."}
var ErrGameAlreadyStarted = &Error{"GameAlreadyStarted", "Das Spiel hat bereits begonnen."}
var ErrRoomFull = &Error{"RoomFull", "Der Raum ist voll."}
var ErrWrongMode = &Error{"WrongMode", "In diesem Spielmodus nicht möglich."}
var ErrNotHost = &Error{"NotHost", "Nur der Admin kann das tun."}
var ErrNotEnoughPlayers = &Error{"NotEnoughPlayers", "Mindestens 3 Spieler nötig!"}
var ErrInvalidName = &Error{"InvalidName", "Bitte gib einen Namen ein."}
var ErrNotInRoom = &Error{"NotInRoom", "Du bist in keinem Raum."}
var ErrWrongPhase = &Error{"WrongPhase", "Das ist gerade nicht möglich."}
var ErrInvalidVote = &Error{"InvalidVote", "Ungültige Stimme."}
var ErrAlreadyVoted = &Error{"AlreadyVoted", "Du hast bereits abgestimmt."}
var ErrRateLimited = &Error{"RateLimited", "Zu viele Anfragen, bitte kurz warten."}
var ErrBadRequest = &Error{"BadRequest", "Ungültige Anfrage."}
var ErrUnsupportedCommand = &Error{"UnsupportedCommand", "Unbekannter Befehl."}

var errInternal = &Error{"Internal", "Interner Fehler."}

// AsError maps any error onto the client-facing shape. Unknown errors become
// a generic internal error so infrastructure details never reach players.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return errInternal
}

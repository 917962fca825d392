package types

// RoomSummary is the public view of a room served at GET /rooms/{code}.
// Roles, words and votes are never part of it.
type RoomSummary struct {
	Code       string `json:"code"`
	GameMode   string `json:"gameMode"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Started    bool   `json:"started"`
	Phase      string `json:"phase"`
	JoinURL    string `json:"joinUrl,omitempty"`
}

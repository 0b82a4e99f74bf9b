package model

// Level is a named tier in the XP ladder. Levels form a total order on
// XPRequired; a user's level is the highest tier whose threshold their XP meets.
type Level struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	XPRequired int    `json:"xp_required"`
}

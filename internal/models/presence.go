package models

// PresenceEntry is one identified connection in the users_updated list.
type PresenceEntry struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	SocketID string `json:"socketId"`
}

// UserRef identifies the user behind room join/leave and typing notifications.
type UserRef struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Ref returns the notification form of the entry.
func (p PresenceEntry) Ref() UserRef {
	return UserRef{UserID: p.ID, Email: p.Email}
}

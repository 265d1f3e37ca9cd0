package models

// Contact is a user that appears in the current user's friend list. The
// friendship itself lives on the server; the client only sees its own row.
type Contact = User

// FriendRequest is a pending incoming request. The receiver is always the
// current user, and a request stays pending for as long as it is listed.
type FriendRequest struct {
	ID       string `json:"_id"`
	SenderID string `json:"senderId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

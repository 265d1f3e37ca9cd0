package api

// Authentication
const (
	RouteLogin     = "/api/auth/login"
	RouteRegister  = "/api/auth/register"
	RouteLogout    = "/api/auth/logout"    // + /:userId
	RouteSetAvatar = "/api/auth/setavatar" // + /:userId
)

// Messaging
const (
	RouteAddMessage    = "/api/messages/addmsg"
	RouteGetMessages   = "/api/messages/getmsg"
	RouteEditMessage   = "/api/messages/edit"
	RouteDeleteMessage = "/api/messages/delete"
)

// Friend requests
const (
	RouteSendRequest    = "/api/users/send-request"
	RouteAcceptRequest  = "/api/users/accept-request"
	RouteDeclineRequest = "/api/users/decline-request"
	RouteFriends        = "/api/users/friends" // + /:userId
	RouteUsers          = "/api/users"         // + /:userId/pending-requests
)

// Admin (bearer token)
const (
	RouteAdminUsers = "/api/admin/users"
	RouteAdminUser  = "/api/admin/user" // + /:id and /:id/role
)

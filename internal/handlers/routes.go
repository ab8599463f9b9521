package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	follows := FollowHandler{Graph: deps.Relationships, Sessions: deps.Sessions, Limiter: deps.WriteLimiter}
	connections := ConnectionHandler{Graph: deps.Relationships, Sessions: deps.Sessions, Limiter: deps.WriteLimiter}
	content := BlogHandler{Blogs: deps.Blogs, Sessions: deps.Sessions, Covers: deps.Covers, Limiter: deps.WriteLimiter}
	inbox := NotificationHandler{Inbox: deps.Notifications, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)

	mux.HandleFunc("/api/v1/follows", follows.Handle)
	mux.HandleFunc("/api/v1/follows/followers", follows.Followers)
	mux.HandleFunc("/api/v1/follows/following", follows.Following)
	mux.HandleFunc("/api/v1/relationships/stats", follows.Stats)

	mux.HandleFunc("/api/v1/connections", connections.Handle)
	mux.HandleFunc("/api/v1/connections/respond", connections.Respond)

	mux.HandleFunc("/api/v1/blogs", content.Handle)
	mux.HandleFunc("/api/v1/blogs/view", content.View)
	mux.HandleFunc("/api/v1/blogs/update", content.Update)
	mux.HandleFunc("/api/v1/blogs/delete", content.Delete)
	mux.HandleFunc("/api/v1/blogs/cover", content.UploadCover)
	mux.HandleFunc("/api/v1/blogs/comments", content.Comments)
	mux.HandleFunc("/api/v1/blogs/likes", content.Likes)

	mux.HandleFunc("/api/v1/notifications", inbox.Handle)
	mux.HandleFunc("/api/v1/notifications/read", inbox.MarkRead)
	mux.HandleFunc("/api/v1/notifications/unread-count", inbox.UnreadCount)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Relationships RelationshipService
	Blogs         BlogService
	Notifications InboxService
	Covers        ImageStore
	AuthLimiter   RateLimiter
	WriteLimiter  RateLimiter
}

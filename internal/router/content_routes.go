package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/handler"
)

// RegisterContent registers posts, comments, likes and ratings.  Reads are
// open to guests; a presented session personalizes them (like status,
// ownership, own rating).  Writes need a session.
func RegisterContent(e *echo.Echo, p *handler.PostHandler, cm *handler.CommentHandler, en *handler.EngagementHandler, g Guards) {
	read := e.Group("/api", use(g.Optional)...)
	read.GET("/posts", p.ListPosts)
	read.GET("/posts/:id", p.GetPost)
	read.GET("/users/:id/posts", p.ListUserPosts)
	read.GET("/users/:id/post-count", p.CountUserPosts)
	read.GET("/posts/:id/comments", cm.List)
	read.GET("/posts/:id/likes", en.LikeCounts)
	read.GET("/posts/:id/rating", en.RatingStats)

	write := e.Group("/api", use(g.Required)...)
	write.POST("/posts", p.CreatePost)
	write.POST("/posts/media", p.UploadMedia)
	write.DELETE("/posts/:id", p.DeletePost)
	write.POST("/posts/:id/comments", cm.Create)
	write.POST("/posts/:id/like", en.ToggleLike)
	write.POST("/posts/:id/rating", en.SubmitRating)
}

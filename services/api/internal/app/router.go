package app

import (
	"time"

	apiHTTP "framefeed/services/api/internal/controller/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Posts *apiHTTP.PostHandler
	Users *apiHTTP.UserHandler
	Media *apiHTTP.MediaHandler

	// Auth guards every route that acts as the caller.
	Auth gin.HandlerFunc
	// UploadLimit throttles the multipart endpoints. Optional.
	UploadLimit gin.HandlerFunc
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Range"},
		ExposeHeaders:    []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/media/*key", h.Media.ServeMedia)

	api := r.Group("/api")
	{
		api.GET("/health", apiHTTP.Health)

		posts := api.Group("/posts")
		{
			posts.GET("", h.Posts.ListPosts)
			posts.GET("/:id", h.Posts.GetPost)
			posts.POST("", h.Auth, h.Posts.CreatePost)
			posts.POST("/media", h.upload(h.Posts.CreatePostWithMedia)...)
		}

		users := api.Group("/users")
		{
			users.GET("/current", h.Auth, h.Users.GetCurrentUser)
			users.PATCH("/current", h.Auth, h.Users.UpdateCurrentUser)
			users.POST("/current/avatar", h.upload(h.Users.UploadAvatar)...)

			users.GET("/search", h.Users.SearchUsers)
			users.GET("/new", h.Users.NewUsers)
			users.GET("/tag/:tag", h.Users.UsersByTag)

			users.GET("/:id", h.Users.GetUser)
			users.GET("/:id/profile", h.Users.GetProfile)
			users.GET("/:id/following", h.Users.GetFollowing)
			users.GET("/:id/followers", h.Users.GetFollowers)
			users.GET("/:id/follow", h.Auth, h.Users.GetFollowStatus)
			users.POST("/:id/follow", h.Auth, h.Users.Follow)
			users.DELETE("/:id/follow", h.Auth, h.Users.Unfollow)
		}
	}

	return r
}

func (h Handlers) upload(handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{h.Auth}
	if h.UploadLimit != nil {
		chain = append(chain, h.UploadLimit)
	}
	return append(chain, handler)
}

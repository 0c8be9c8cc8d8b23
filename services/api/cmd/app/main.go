package main

import (
	"framefeed/pkg/config"
	app "framefeed/services/api/internal/app"

	_ "framefeed/services/api/docs" // Swagger docs
)

// @title           FrameFeed API
// @version         1.0
// @description     Photo and video posts, profiles, follows and media streaming.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider's token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.IsProduction() && cfg.JWKSURL() == "" && cfg.JWTSecret == "" {
		panic("AUTH_JWKS_URL or JWT_SECRET must be set in production")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}

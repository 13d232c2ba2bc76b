package router

import (
	"estate-service/controller"
	"estate-service/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App) {
	api := app.Group("/v1", logger.New())

	signed := []fiber.Handler{middleware.JWT(), middleware.OTP(), middleware.Identity()}

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", controller.AuthSignup)
	auth.Post("/signin", controller.AuthSignin)
	auth.Post("/token/renew", controller.AuthTokenRenew)
	auth.Post("/signout", append(signed, controller.AuthSignout)...)
	auth.Post("/2fa/secret", append(signed, controller.AuthOtpSecret)...)
	auth.Post("/2fa/verify", append(signed, controller.AuthOtpVerify)...)
	auth.Post("/2fa/validate", middleware.JWT(), middleware.Identity(), controller.AuthOtpValidate)
	auth.Post("/2fa/disable", append(signed, controller.AuthOtpDisable)...)
	auth.Get("/me", append(signed, controller.AuthMe)...)
	auth.Put("/me", append(signed, controller.AuthUpdateMe)...)

	// Properties
	properties := api.Group("/properties")
	properties.Get("/", controller.PropertyList)
	properties.Get("/mine", append(signed, controller.PropertyMine)...)
	properties.Get("/images/:id", controller.PropertyImage)
	properties.Get("/:id", controller.PropertyGet)
	properties.Post("/", append(signed, controller.PropertyCreate)...)
	properties.Put("/:id", append(signed, controller.PropertyUpdate)...)
	properties.Delete("/:id", append(signed, controller.PropertyDelete)...)
	properties.Post("/:id/images", append(signed, controller.PropertyImagesUpload)...)

	// Messages
	messages := api.Group("/messages", signed...)
	messages.Post("/", controller.MessageSend)
	messages.Get("/conversations", controller.MessageConversations)
	messages.Get("/with/:userId", controller.MessageThread)
	messages.Put("/:id/read", controller.MessageMarkRead)

	// Favorites
	favorites := api.Group("/favorites", signed...)
	favorites.Get("/", controller.FavoriteList)
	favorites.Get("/check/:propertyId", controller.FavoriteCheck)
	favorites.Post("/:propertyId", controller.FavoriteAdd)
	favorites.Delete("/:propertyId", controller.FavoriteRemove)

	// Admin
	admin := api.Group("/admin", append(signed, middleware.RBAC())...)
	admin.Get("/users", controller.AdminUsers)
	admin.Put("/users/:id/role", controller.AdminUserRole)
}

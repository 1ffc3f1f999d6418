package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/dohyun-ko/animal-care-api/internal/handler"
	"github.com/dohyun-ko/animal-care-api/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all: the
// health check and the static upload directory.
func RegisterRoutes(e *echo.Echo, uploadRoot string) {
	e.GET("/healthz", handler.Health)
	// Lost-report images are served straight from disk under /uploads/.
	e.Static("/uploads", uploadRoot)
}

// RegisterAuth registers the credential endpoints under /auth.  The group
// deliberately skips the principal resolver: these routes authenticate by
// credential or refresh token, never by access token.  rateLimit guards the
// whole group against credential stuffing; pass a nil-safe no-op when the
// limiter is disabled.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.Use(rateLimit)

	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; the old token is dead afterwards.
	g.POST("/refresh", a.Refresh)
	// Logout is idempotent and succeeds with or without a live session.
	g.POST("/logout", a.Logout)

	// Signup form probes.
	g.GET("/check/login-id", a.CheckLoginID)
	g.GET("/check/nickname", a.CheckNickname)
	g.GET("/check/email", a.CheckEmail)
}

// API bundles the handlers mounted under /api.
type API struct {
	Inquiries   *handler.InquiryHandler
	Replies     *handler.ReplyHandler
	Notices     *handler.NoticeHandler
	LostReports *handler.LostReportHandler
	MyPage      *handler.MyPageHandler
	AdminUsers  *handler.AdminUserHandler
	Shelters    *handler.ShelterHandler
	ImageSearch *handler.ImageSearchHandler
}

// RegisterAPI mounts everything under /api behind the principal resolver.
// The resolver only annotates the request; each group below decides how
// much authentication it actually requires.
func RegisterAPI(e *echo.Echo, api API, resolve echo.MiddlewareFunc) {
	g := e.Group("/api", resolve)

	// Inquiry board: listing and detail are open (the policy layer redacts),
	// writing requires a member, answering requires an admin.
	g.GET("/inquiries", api.Inquiries.List)
	g.GET("/inquiries/:id", api.Inquiries.Detail)
	g.POST("/inquiries", api.Inquiries.Create, middleware.RequireAuth())
	g.PUT("/inquiries/:id", api.Inquiries.Update, middleware.RequireAuth())
	g.DELETE("/inquiries/:id", api.Inquiries.Delete, middleware.RequireAuth())

	g.GET("/inquiries/:id/replies", api.Replies.List)
	g.POST("/inquiries/:id/replies", api.Replies.Create, middleware.RequireRole("ADMIN"))
	g.PATCH("/inquiries/:id/replies/:replyId", api.Replies.Update, middleware.RequireRole("ADMIN"))
	g.DELETE("/inquiries/:id/replies/:replyId", api.Replies.Delete, middleware.RequireRole("ADMIN"))

	// Notice board: public reads, admin writes.
	g.GET("/notices", api.Notices.List)
	g.GET("/notices/:id", api.Notices.Detail)
	g.POST("/notices", api.Notices.Create, middleware.RequireRole("ADMIN"))
	g.PUT("/notices/:id", api.Notices.Update, middleware.RequireRole("ADMIN"))
	g.DELETE("/notices/:id", api.Notices.Delete, middleware.RequireRole("ADMIN"))

	// Lost-pet board: public reads, member writes.
	g.GET("/lost-reports", api.LostReports.List)
	g.GET("/lost-reports/:id", api.LostReports.Detail)
	g.POST("/lost-reports", api.LostReports.Create, middleware.RequireAuth())
	g.PUT("/lost-reports/:id", api.LostReports.Update, middleware.RequireAuth())
	g.DELETE("/lost-reports/:id", api.LostReports.Delete, middleware.RequireAuth())

	// Member page.
	my := g.Group("/mypage", middleware.RequireAuth())
	my.GET("", api.MyPage.Profile)
	my.PUT("", api.MyPage.UpdateProfile)
	my.DELETE("", api.MyPage.DeleteAccount)
	my.GET("/inquiries", api.MyPage.MyInquiries)
	my.GET("/lost-reports", api.MyPage.MyLostReports)

	// Admin console.
	admin := g.Group("/admin", middleware.RequireRole("ADMIN"))
	admin.GET("/users", api.AdminUsers.List)
	admin.GET("/users/:id", api.AdminUsers.Detail)
	admin.PATCH("/users/:id/role", api.AdminUsers.ChangeRole)
	admin.DELETE("/users/:id", api.AdminUsers.Delete)

	// Shelter directory proxy and image search, both public.
	g.GET("/shelters", api.Shelters.List)
	g.POST("/search/image", api.ImageSearch.Search)
	g.GET("/dog-details/:id", api.ImageSearch.DogDetail)
}

package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/controllers"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/ojtetr/tracker/internal/pkg/ratelimit"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	Student      *controllers.StudentController
	Review       *controllers.ReviewController
	Document     *controllers.DocumentController
	Announcement *controllers.AnnouncementController
	User         *controllers.UserController
	File         *controllers.FileController
}

// LoginThrottle limits login attempts per client address
type LoginThrottle struct {
	Limiter  ratelimit.Limiter
	Attempts int
	Window   time.Duration
}

// UploadCaps bounds request bodies on the upload routes
type UploadCaps struct {
	Document int64
	Avatar   int64
}

// multipartOverhead leaves room for form fields and part headers around the file
const multipartOverhead = 1 << 20

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware, throttle LoginThrottle, caps UploadCaps) {
	documentBody := middleware.LimitBody(caps.Document + multipartOverhead)
	avatarBody := middleware.LimitBody(caps.Avatar + multipartOverhead)

	student := authMiddleware.Require(models.RoleStudent)
	coordinator := authMiddleware.Require(models.RoleCoordinator)
	director := authMiddleware.Require(models.RoleDirector)
	staff := authMiddleware.Require(models.RoleCoordinator, models.RoleDirector)
	anyone := authMiddleware.Require()

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/student-register", c.Auth.StudentRegister)
		auth.POST("/login", middleware.RateLimit(throttle.Limiter, "login", throttle.Attempts, throttle.Window), c.Auth.Login)
		auth.GET("/logout", c.Auth.Logout)
		auth.GET("/me", anyone, c.Auth.Me)
	}

	studentRoutes := v1.Group("/student", student)
	{
		studentRoutes.GET("/me", c.Student.GetMyProfile)
		studentRoutes.POST("/documents", documentBody, c.Student.UploadDocument)
		studentRoutes.DELETE("/documents/:docId", c.Student.DeleteDocument)
		studentRoutes.GET("/documents/:docId/comments", c.Student.DocumentComments)
		studentRoutes.PUT("/personal-data", c.Student.UpdatePersonalData)
		studentRoutes.POST("/profile-picture", avatarBody, c.Student.UpdateProfilePicture)
		studentRoutes.POST("/submit", c.Student.Submit)
		studentRoutes.GET("/templates/:docType", c.Student.DownloadTemplate)
	}

	coordinatorRoutes := v1.Group("/coordinator", coordinator)
	{
		coordinatorRoutes.GET("/pending-students", c.Review.PendingStudents)
		coordinatorRoutes.PUT("/approve-student/:userId", c.Review.ApproveStudent)
		coordinatorRoutes.PUT("/reject-student/:userId", c.Review.RejectStudent)
		coordinatorRoutes.GET("/students", c.Review.ListStudents)
		coordinatorRoutes.GET("/students/:profileId", c.Review.StudentDetail)
		coordinatorRoutes.PUT("/checklist/:profileId", c.Review.UpdateChecklist)
		coordinatorRoutes.PUT("/document-status/:docId", c.Review.SetDocumentStatus)
		coordinatorRoutes.PUT("/mark-done/:profileId", c.Review.MarkDone)
		coordinatorRoutes.POST("/coordinators", c.Auth.CreateCoordinator)
	}

	directorRoutes := v1.Group("/director", director)
	{
		directorRoutes.GET("/review-list", c.Review.ReviewList)
		directorRoutes.GET("/students/:profileId", c.Review.StudentDetail)
		directorRoutes.PUT("/set-status/:docId", c.Review.SetDocumentStatus)
		directorRoutes.PUT("/complete/:profileId", c.Review.Complete)
	}

	v1.PUT("/staff/profile", staff, avatarBody, c.User.UpdateStaffProfile)

	documents := v1.Group("/documents", anyone)
	{
		documents.GET("/catalog", c.Document.Catalog)
		documents.POST("/:docId/comments", c.Document.AddComment)
		documents.DELETE("/:docId/comments/:commentId", c.Document.DeleteComment)
	}

	announcements := v1.Group("/announcements")
	{
		announcements.GET("", anyone, c.Announcement.List)
		announcements.GET("/feed", anyone, c.Announcement.Feed)
		announcements.POST("", coordinator, c.Announcement.Create)
		announcements.DELETE("/:id", coordinator, c.Announcement.Delete)
		announcements.POST("/:id/comments", anyone, c.Announcement.AddComment)
		announcements.DELETE("/:id/comments/:commentId", anyone, c.Announcement.DeleteComment)
	}

	router.GET(filestorage.PublicPath+"/*key", c.File.Serve)

	health := func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	}
	router.GET("/health", health)
	v1.GET("/health", health)
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

package http

import (
	"github.com/gin-gonic/gin"
)

func InitRouter(handler *Handler) *gin.Engine {
	r := gin.Default()

	// Public Routes
	api := r.Group("/api/v1")
	{
		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)
		api.GET("/courses", handler.GetAllCourses)
		api.GET("/courses/:id", handler.GetCourse)
	}

	// File serving is token-protected but role-agnostic
	files := api.Group("/files")
	files.Use(AuthMiddleware())
	{
		files.GET("/:id", handler.ServeFile)
		files.DELETE("/:id", handler.DeleteFile)
	}

	// Any authenticated user
	protected := api.Group("/")
	protected.Use(AuthMiddleware())
	{
		protected.GET("/profile", handler.GetProfile)
		protected.PUT("/profile", handler.UpdateProfile)
		protected.GET("/courses/:id/content", handler.ListContent)
	}

	// Student routes
	student := api.Group("/")
	student.Use(AuthMiddleware("student"))
	{
		student.POST("/courses/:id/enroll", handler.Enroll)
		student.POST("/courses/:id/purchase", handler.Purchase)
		student.POST("/purchase-success", handler.PurchaseSuccess)
		student.GET("/enrollments", handler.GetMyEnrollments)
		student.POST("/courses/:id/content/:contentId/complete", handler.MarkContentComplete)
		student.POST("/content/:contentId/quiz-submit", handler.SubmitQuiz)
		student.GET("/content/:contentId/quiz-submission", handler.GetMyQuizSubmission)
		student.POST("/content/:contentId/assignment-submit", handler.SubmitAssignment)
		student.GET("/content/:contentId/assignment-submission", handler.GetMyAssignmentSubmission)
	}

	// Instructor routes
	instructor := api.Group("/instructor")
	instructor.Use(AuthMiddleware("instructor"))
	{
		instructor.POST("/courses", handler.CreateCourse)
		instructor.PUT("/courses/:id", handler.UpdateCourse)
		instructor.DELETE("/courses/:id", handler.DeleteCourse)
		instructor.GET("/courses", handler.GetInstructorCourses)

		instructor.POST("/courses/:id/content", handler.AddContent)
		instructor.PUT("/content/:contentId", handler.UpdateContent)
		instructor.DELETE("/content/:contentId", handler.DeleteContent)

		instructor.POST("/files", handler.UploadFile)

		instructor.GET("/content/:contentId/quiz-analytics", handler.GetQuizAnalytics)
		instructor.GET("/content/:contentId/submissions", handler.ListAssignmentSubmissions)
		instructor.POST("/submissions/:submissionId/grade", handler.GradeAssignment)

		instructor.GET("/analytics", handler.GetInstructorAnalytics)
	}

	// Instructor or admin
	staff := api.Group("/")
	staff.Use(AuthMiddleware("instructor", "admin"))
	{
		staff.GET("/courses/:id/enrollments", handler.GetCourseEnrollments)
		staff.GET("/courses/:id/analytics", handler.GetCourseAnalytics)
	}

	// Admin only
	admin := api.Group("/admin")
	admin.Use(AuthMiddleware("admin"))
	{
		admin.GET("/users", handler.ListUsers)
		admin.PATCH("/users/:id/role", handler.ChangeUserRole)
		admin.DELETE("/users/:id", handler.DeleteUser)
		admin.DELETE("/courses/:id", handler.AdminDeleteCourse)
		admin.GET("/overview", handler.GetAdminOverview)
	}

	return r
}

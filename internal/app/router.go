package app

import (
	"quizgate_backend/docs"
	"quizgate_backend/internal/config"
	"quizgate_backend/internal/middleware"
	"quizgate_backend/internal/model"
	"quizgate_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		authGroup.GET("/notifications", c.notification.List)
		authGroup.POST("/notifications/:notificationId/read", c.notification.MarkRead)
		authGroup.POST("/notifications/read-all", c.notification.MarkAllRead)

		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	student := group.Group("")
	student.Use(middleware.RoleMiddleware(model.RoleStudent))
	{
		student.POST("/quizzes/:quizId/attempts", c.attempt.Start)
		student.GET("/quizzes/:quizId/attempts", c.attempt.List)
		student.GET("/quizzes/:quizId/attempts/summary", c.attempt.Summary)

		student.PUT("/attempts/:attemptId/answers", c.attempt.SubmitAnswer)
		student.POST("/attempts/:attemptId/submit", c.attempt.Submit)
		student.POST("/attempts/:attemptId/violations", c.attempt.RecordViolation)
	}

	// Quiz reads are shared: students see assigned quizzes without answer
	// keys, teachers their own.
	group.GET("/quizzes", c.quiz.List)
	group.GET("/quizzes/:quizId", c.quiz.Get)
	group.GET("/attempts/:attemptId", c.attempt.Get)
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("")
	teacher.Use(middleware.RoleMiddleware(model.RoleTeacher))
	{
		teacher.POST("/classes", c.class.Create)
		teacher.GET("/classes", c.class.List)
		teacher.GET("/classes/:classId/students", c.class.Students)
		teacher.POST("/classes/:classId/students", c.class.AssignStudent)

		teacher.POST("/questions", c.question.Create)
		teacher.GET("/questions", c.question.List)
		teacher.GET("/questions/:questionId", c.question.Get)
		teacher.PUT("/questions/:questionId", c.question.Update)
		teacher.DELETE("/questions/:questionId", c.question.Delete)
		teacher.POST("/questions/attachments", c.question.UploadAttachment)

		teacher.POST("/quizzes", c.quiz.Create)
		teacher.PUT("/quizzes/:quizId", c.quiz.Update)
		teacher.DELETE("/quizzes/:quizId", c.quiz.Delete)
		teacher.POST("/quizzes/:quizId/publish", c.quiz.Publish)
		teacher.POST("/quizzes/:quizId/archive", c.quiz.Archive)
		teacher.POST("/quizzes/:quizId/questions", c.quiz.AddQuestion)
		teacher.DELETE("/quizzes/:quizId/questions/:questionId", c.quiz.RemoveQuestion)
		teacher.PUT("/quizzes/:quizId/classes", c.quiz.AssignClasses)

		teacher.GET("/quizzes/:quizId/statistics", c.attempt.Statistics)
		teacher.GET("/quizzes/:quizId/submissions", c.attempt.Categorized)
		teacher.GET("/attempts/:attemptId/violations", c.attempt.ListViolations)

		teacher.POST("/attempts/:attemptId/grade", c.grading.Grade)
		teacher.GET("/quizzes/:quizId/grading/pending", c.grading.ListPending)

		teacher.POST("/quizzes/:quizId/reset", c.reset.ResetQuiz)
		teacher.POST("/quizzes/:quizId/students/:studentId/reset", c.reset.ResetStudent)
		teacher.GET("/quizzes/:quizId/students/:studentId/history", c.reset.History)
		teacher.GET("/quizzes/:quizId/students/:studentId/remaining", c.reset.Remaining)
	}
}

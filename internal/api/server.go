package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/gouthamseattle/dance-registration-portal/docs"
	v1 "github.com/gouthamseattle/dance-registration-portal/internal/api/handler/v1"
	"github.com/gouthamseattle/dance-registration-portal/internal/api/middleware"
	"github.com/gouthamseattle/dance-registration-portal/internal/config"
	"github.com/gouthamseattle/dance-registration-portal/internal/mailer"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository/dao"
	"github.com/gouthamseattle/dance-registration-portal/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB, m mailer.Mailer) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	courseRepo := repository.NewCourseRepository(dao.NewCourseDAO(db))
	studentRepo := repository.NewStudentRepository(dao.NewStudentDAO(db))
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	waitlistRepo := repository.NewWaitlistRepository(dao.NewWaitlistDAO(db))

	authHandler := v1.NewAuthHandler(conf.API, service.NewAuthService(conf.API))
	catalogHandler := v1.NewCatalogHandler(service.NewCatalogService(courseRepo, registrationRepo))
	studentHandler := v1.NewStudentHandler(service.NewStudentService(studentRepo))
	registrationHandler := v1.NewRegistrationHandler(
		service.NewRegistrationService(registrationRepo, courseRepo, studentRepo, waitlistRepo, m, conf))
	waitlistHandler := v1.NewWaitlistHandler(
		service.NewWaitlistService(waitlistRepo, studentRepo, courseRepo, m, conf))

	s.MountHandlers(authHandler, catalogHandler, studentHandler, registrationHandler, waitlistHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	catalogHandler *v1.CatalogHandler,
	studentHandler *v1.StudentHandler,
	registrationHandler *v1.RegistrationHandler,
	waitlistHandler *v1.WaitlistHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/login", authHandler.HandleLogin)

		public.GET("/courses", catalogHandler.HandleListCourses)
		public.GET("/courses/:courseID", catalogHandler.HandleGetCourse)

		public.POST("/students", studentHandler.HandleUpsertStudent)

		public.POST("/registrations", registrationHandler.HandleCreateRegistration)
		public.POST("/registrations/bundle", registrationHandler.HandleCreateBundle)
		public.POST("/registrations/combo", registrationHandler.HandleCreateCombo)

		public.POST("/waitlist", waitlistHandler.HandleJoinWaitlist)
	}

	admin := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		admin.POST("/courses", catalogHandler.HandleCreateCourse)

		admin.GET("/students/:studentID", studentHandler.HandleGetStudent)
		admin.GET("/students/:studentID/registrations", registrationHandler.HandleListStudentRegistrations)
		admin.POST("/students/:studentID/classify", studentHandler.HandleClassifyStudent)
		admin.POST("/students/reset", studentHandler.HandleBulkReset)

		admin.GET("/registrations/:registrationID", registrationHandler.HandleGetRegistration)
		admin.PATCH("/registrations/:registrationID", registrationHandler.HandleEditRegistration)
		admin.POST("/registrations/:registrationID/confirm", registrationHandler.HandleConfirmPayment)
		admin.POST("/registrations/:registrationID/cancel", registrationHandler.HandleCancelRegistration)
		admin.POST("/registrations/:registrationID/uncancel", registrationHandler.HandleUncancelRegistration)
		admin.POST("/registrations/:registrationID/fail", registrationHandler.HandleMarkPaymentFailed)

		admin.GET("/courses/:courseID/waitlist", waitlistHandler.HandleListWaitlist)
		admin.POST("/courses/:courseID/waitlist/notify-next", waitlistHandler.HandleNotifyNext)
		admin.POST("/waitlist/:entryID/notify", waitlistHandler.HandleNotifyEntry)
		admin.POST("/waitlist/:entryID/reorder", waitlistHandler.HandleReorderEntry)
		admin.DELETE("/waitlist/:entryID", waitlistHandler.HandleRemoveEntry)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Dance Registration Portal API"
	docs.SwaggerInfo.Description = "Capacity-aware course registration for a dance studio."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

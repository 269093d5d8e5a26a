package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/flyerdrop/tournees-api/docs"
	v1 "github.com/flyerdrop/tournees-api/internal/api/handler/v1"
	"github.com/flyerdrop/tournees-api/internal/api/middleware"
	"github.com/flyerdrop/tournees-api/internal/batch"
	"github.com/flyerdrop/tournees-api/internal/config"
	"github.com/flyerdrop/tournees-api/internal/dataset"
	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/geo"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/repository/dao"
	"github.com/flyerdrop/tournees-api/internal/service"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

// Dependencies are the long-lived resources the handlers are built on.
// Geo may be nil, in which case sectors come from the dataset only.
type Dependencies struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Geo      geo.Fetcher
	Dataset  *dataset.Dataset
	Engine   *tourstatus.Engine
	Schedule *tourstatus.Schedule
	Batch    batch.Runner
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

type handlers struct {
	auth          *v1.AuthHandler
	user          *v1.UserHandler
	catalog       *v1.CatalogHandler
	draft         *v1.DraftHandler
	participation *v1.ParticipationHandler
	admin         *v1.AdminHandler
}

func NewServer(conf *config.AppConfig, deps Dependencies) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(deps))

	return s
}

func (s *Server) initHandlers(deps Dependencies) handlers {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(deps.DB))
	participationRepo := repository.NewParticipationRepository(dao.NewParticipationDAO(deps.DB))
	draftStore := repository.NewDraftStore(deps.Redis, s.Config.Redis.DraftTTL)

	tourSvc := service.NewTourService(deps.Dataset, deps.Schedule, deps.Engine, participationRepo, nil)
	sectorSvc := service.NewSectorService(tourSvc, deps.Geo)
	participationSvc := service.NewParticipationService(participationRepo, sectorSvc, deps.Engine, s.Config.Pricing.CostPerThousandCents, nil)
	draftSvc := service.NewDraftService(draftStore, sectorSvc, participationSvc)
	adminSvc := service.NewAdminService(participationRepo, deps.Engine, nil)

	return handlers{
		auth:          v1.NewAuthHandler(s.Config.API, service.NewAuthService(userRepo, s.Config.API)),
		user:          v1.NewUserHandler(service.NewUserService(userRepo)),
		catalog:       v1.NewCatalogHandler(tourSvc, sectorSvc),
		draft:         v1.NewDraftHandler(draftSvc),
		participation: v1.NewParticipationHandler(participationSvc),
		admin:         v1.NewAdminHandler(adminSvc, deps.Batch),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	verifyJWT := middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT()

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", h.auth.HandleSignup)
		auth.POST("/auth/login", h.auth.HandleLogin)
		auth.GET("/auth/confirm", h.auth.HandleConfirm)
	}

	catalog := s.Router.Group(basePath)
	{
		catalog.GET("/cities", h.catalog.HandleListCities)
		catalog.GET("/cities/:city/tours", h.catalog.HandleListTours)
		catalog.GET("/cities/:city/tours/:startDate/sectors", h.catalog.HandleListSectors)
	}

	drafts := s.Router.Group(basePath)
	{
		drafts.POST("/drafts", h.draft.HandleCreateDraft)
		drafts.GET("/drafts/:draftID", h.draft.HandleGetDraft)
		drafts.POST("/drafts/:draftID/sectors", h.draft.HandleAddSector)
		drafts.DELETE("/drafts/:draftID/sectors/:sectorCode", h.draft.HandleRemoveSector)
		drafts.PUT("/drafts/:draftID/flyer", h.draft.HandleSetFlyer)
		drafts.POST("/drafts/:draftID/submit", verifyJWT, h.draft.HandleSubmitDraft)
	}

	users := s.Router.Group(basePath, verifyJWT)
	{
		users.GET("/users/me", h.user.HandleGetMe)
	}

	participations := s.Router.Group(basePath, verifyJWT)
	{
		participations.POST("/participations", h.participation.HandleCreateParticipation)
		participations.GET("/participations", h.participation.HandleListParticipations)
		participations.GET("/participations/:participationID", h.participation.HandleGetParticipation)
	}

	admin := s.Router.Group(basePath+"/admin", verifyJWT, middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/tours", h.admin.HandleOverview)
		admin.GET("/participations/export", h.admin.HandleExport)
		admin.POST("/batch/run", h.admin.HandleRunBatch)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Flyer distribution tours API"
	docs.SwaggerInfo.Description = "Book sectors of door-to-door flyer distribution tours."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

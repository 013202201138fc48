package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	v1 "github.com/rifalabs/rifa-engine/internal/api/handler/v1"
	"github.com/rifalabs/rifa-engine/internal/api/middleware"
	"github.com/rifalabs/rifa-engine/internal/config"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
	"github.com/rifalabs/rifa-engine/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	Reservations *service.ReservationService
	Raffles      *service.RaffleService
	Analyzer     *service.FraudAnalyzer
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	raffleRepo := repository.NewRaffleRepository(dao.NewRaffleDAO(db))
	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	blockedRepo := repository.NewBlockedRepository(dao.NewBlockedDAO(db))
	auditRepo := repository.NewAuditRepository(dao.NewAuditDAO(db))

	gate := service.NewFraudGate(ticketRepo, blockedRepo, auditRepo, conf.Fraud)
	userSvc := service.NewUserService(userRepo)

	s.Reservations = service.NewReservationService(raffleRepo, ticketRepo, userRepo, gate, conf.Engine)
	s.Raffles = service.NewRaffleService(raffleRepo, userRepo, conf.Engine)
	s.Analyzer = service.NewFraudAnalyzer(auditRepo, blockedRepo, conf.Fraud)

	raffleHandler := v1.NewRaffleHandler(s.Raffles, userSvc)
	ticketHandler := v1.NewTicketHandler(s.Reservations, userSvc)
	settlementHandler := v1.NewSettlementHandler(service.NewSettlementService(raffleRepo), userSvc)
	adminHandler := v1.NewAdminHandler(
		service.NewBlocklistService(blockedRepo),
		service.NewAuditService(auditRepo),
		service.NewFinanceService(repository.NewPaymentLogRepository(dao.NewPaymentLogDAO(db)), raffleRepo),
		service.NewTenantService(repository.NewTenantRepository(dao.NewTenantDAO(db))),
		userSvc,
	)

	s.MountMiddlewares()
	s.MountHandlers(raffleHandler, ticketHandler, settlementHandler, adminHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(raffleHandler *v1.RaffleHandler, ticketHandler *v1.TicketHandler, settlementHandler *v1.SettlementHandler, adminHandler *v1.AdminHandler) {
	const basePath = "/api/v1"

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.POST("/raffles", raffleHandler.HandleCreateRaffle)
		authed.GET("/raffles", raffleHandler.HandleListRaffles)
		authed.GET("/raffles/:raffleID", raffleHandler.HandleGetRaffle)
		authed.POST("/raffles/:raffleID/activate", raffleHandler.HandleActivateRaffle)
		authed.POST("/raffles/:raffleID/close", raffleHandler.HandleCloseRaffle)

		authed.GET("/raffles/:raffleID/tickets", ticketHandler.HandleListTickets)
		authed.POST("/raffles/:raffleID/tickets/:ticketRef/reserve", ticketHandler.HandleReserveTicket)
		authed.POST("/raffles/:raffleID/tickets/:ticketRef/pay", ticketHandler.HandleMarkPaid)
		authed.POST("/raffles/:raffleID/tickets/:ticketRef/cancel", ticketHandler.HandleCancelTicket)

		authed.POST("/raffles/:raffleID/result", settlementHandler.HandlePublishResult)
		authed.GET("/raffles/:raffleID/result", settlementHandler.HandleGetResult)
		authed.POST("/raffles/:raffleID/settle", settlementHandler.HandleSettleRaffle)
		authed.GET("/raffles/:raffleID/winners", settlementHandler.HandleListWinners)

		authed.POST("/admin/blocked", adminHandler.HandleBlockEntity)
		authed.GET("/admin/blocked", adminHandler.HandleListBlocked)
		authed.GET("/admin/audit", adminHandler.HandleListAuditLog)
		authed.GET("/admin/raffles/:raffleID/payments", adminHandler.HandleListPayments)
		authed.PUT("/admin/settings", adminHandler.HandleUpdateSettings)

		authed.POST("/admin/tenants", adminHandler.HandleCreateTenant)
		authed.GET("/admin/tenants", adminHandler.HandleFindTenant)
		authed.GET("/admin/tenants/:tenantID", adminHandler.HandleGetTenant)
	}

	// Payment webhook; the gateway adapter in front of us verifies signatures.
	s.Router.POST(basePath+"/payments/webhook", ticketHandler.HandlePaymentWebhook)

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

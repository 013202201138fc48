package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rifalabs/rifa-engine/internal/config"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/repository/dao"
)

type testEnv struct {
	db *gorm.DB

	reservations *ReservationService
	raffles      *RaffleService
	settlements  *SettlementService
	gate         *FraudGate
	analyzer     *FraudAnalyzer
	users        *UserService

	engineConf *config.EngineConfig
	fraudConf  *config.FraudConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, dao.InitTables(db))

	engineConf := &config.EngineConfig{
		ReservationTimeoutMinutes: 20,
		ClosingLeadMinutes:        20,
	}
	fraudConf := &config.FraudConfig{
		MaxReservations:    5,
		CapScope:           "tenant",
		CooldownSeconds:    0, // off unless a test enables it
		IPRatePerMinute:    100,
		AnalyzerIPPerHour:  100,
		AnalyzerExpPerHour: 10,
	}

	raffleRepo := repository.NewRaffleRepository(dao.NewRaffleDAO(db))
	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	blockedRepo := repository.NewBlockedRepository(dao.NewBlockedDAO(db))
	auditRepo := repository.NewAuditRepository(dao.NewAuditDAO(db))

	gate := NewFraudGate(ticketRepo, blockedRepo, auditRepo, fraudConf)

	return &testEnv{
		db:           db,
		reservations: NewReservationService(raffleRepo, ticketRepo, userRepo, gate, engineConf),
		raffles:      NewRaffleService(raffleRepo, userRepo, engineConf),
		settlements:  NewSettlementService(raffleRepo),
		gate:         gate,
		analyzer:     NewFraudAnalyzer(auditRepo, blockedRepo, fraudConf),
		users:        NewUserService(userRepo),
		engineConf:   engineConf,
		fraudConf:    fraudConf,
	}
}

func (e *testEnv) seedTenant(t *testing.T) uuid.UUID {
	t.Helper()

	tn := dao.Tenant{
		ID:     uuid.New(),
		Name:   "Banca Teste",
		Domain: uuid.New().String() + ".example.com",
	}
	require.NoError(t, e.db.Create(&tn).Error)
	return tn.ID
}

func (e *testEnv) seedUser(t *testing.T, tenantID uuid.UUID, role domain.Role) domain.User {
	t.Helper()

	u := dao.User{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "Fulano",
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
		Role:     string(role),
		IsActive: true,
	}
	require.NoError(t, e.db.Create(&u).Error)
	return domain.User{
		ID:       u.ID,
		TenantID: u.TenantID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     role,
		IsActive: true,
	}
}

// seedActiveRaffle creates an active raffle with its full ticket pool.
func (e *testEnv) seedActiveRaffle(t *testing.T, tenantID, ownerID uuid.UUID, kind domain.RaffleKind) uuid.UUID {
	t.Helper()
	return e.seedRaffle(t, tenantID, ownerID, kind, domain.RaffleActive)
}

func (e *testEnv) seedRaffle(t *testing.T, tenantID, ownerID uuid.UUID, kind domain.RaffleKind, status domain.RaffleStatus) uuid.UUID {
	t.Helper()

	raffle := dao.Raffle{
		ID:           uuid.New(),
		TenantID:     tenantID,
		OwnerID:      ownerID,
		Name:         "Rifa Teste",
		Kind:         string(kind),
		Status:       string(status),
		TicketPrice:  decimal.NewFromInt(10),
		DrawDeadline: time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, e.db.Create(&raffle).Error)

	tickets := make([]dao.Ticket, 0, kind.PoolSize())
	for n := kind.FirstNumber(); n < kind.FirstNumber()+kind.PoolSize(); n++ {
		tickets = append(tickets, dao.Ticket{
			ID:          uuid.New(),
			RaffleID:    raffle.ID,
			TenantID:    tenantID,
			Number:      kind.FormatNumber(n),
			Status:      string(domain.TicketAvailable),
			PrizeStatus: string(domain.PrizePending),
		})
	}
	require.NoError(t, e.db.CreateInBatches(tickets, 500).Error)

	return raffle.ID
}

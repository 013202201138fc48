package dao

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rifalabs/rifa-engine/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, InitTables(db))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB) Tenant {
	t.Helper()

	tn := Tenant{
		ID:     uuid.New(),
		Name:   "Banca Teste",
		Domain: uuid.New().String() + ".example.com",
	}
	require.NoError(t, db.Create(&tn).Error)
	return tn
}

func seedUser(t *testing.T, db *gorm.DB, tenantID uuid.UUID, role string) User {
	t.Helper()

	u := User{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "Fulano",
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// seedRaffle creates a raffle with its full ticket pool in the given status.
func seedRaffle(t *testing.T, db *gorm.DB, tenantID, ownerID uuid.UUID, kind domain.RaffleKind, status domain.RaffleStatus) Raffle {
	t.Helper()

	raffle := Raffle{
		ID:           uuid.New(),
		TenantID:     tenantID,
		OwnerID:      ownerID,
		Name:         "Rifa Teste",
		Kind:         string(kind),
		Status:       string(status),
		TicketPrice:  decimal.NewFromInt(10),
		DrawDeadline: time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&raffle).Error)

	tickets := make([]Ticket, 0, kind.PoolSize())
	for n := kind.FirstNumber(); n < kind.FirstNumber()+kind.PoolSize(); n++ {
		tickets = append(tickets, Ticket{
			ID:          uuid.New(),
			RaffleID:    raffle.ID,
			TenantID:    tenantID,
			Number:      kind.FormatNumber(n),
			Status:      string(domain.TicketAvailable),
			PrizeStatus: string(domain.PrizePending),
		})
	}
	require.NoError(t, db.CreateInBatches(tickets, 500).Error)

	return raffle
}

func ticketByNumber(t *testing.T, db *gorm.DB, raffleID uuid.UUID, number string) Ticket {
	t.Helper()

	var ticket Ticket
	require.NoError(t, db.First(&ticket, "raffle_id = ? AND number = ?", raffleID, number).Error)
	return ticket
}

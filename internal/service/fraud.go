package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rifalabs/rifa-engine/internal/config"
	"github.com/rifalabs/rifa-engine/internal/domain"
	"github.com/rifalabs/rifa-engine/internal/monitoring"
	"github.com/rifalabs/rifa-engine/internal/repository"
	"github.com/rifalabs/rifa-engine/internal/tenant"
)

var (
	ErrBlocked     = errors.New("caller is blocked")
	ErrRateLimited = errors.New("too many reservation attempts")
)

// FraudGate runs the synchronous pre-reservation checks: denylist, held
// reservation cap, cooldown, and the per-IP rate limit counted from audit
// history. Elevated principals bypass everything.
type FraudGate struct {
	tickets *repository.TicketRepository
	blocked *repository.BlockedRepository
	audits  *repository.AuditRepository
	conf    *config.FraudConfig
}

func NewFraudGate(tickets *repository.TicketRepository, blocked *repository.BlockedRepository, audits *repository.AuditRepository, conf *config.FraudConfig) *FraudGate {
	return &FraudGate{
		tickets: tickets,
		blocked: blocked,
		audits:  audits,
		conf:    conf,
	}
}

func (g *FraudGate) Check(ctx context.Context, scope tenant.Scope, user domain.User, ip string, raffleID uuid.UUID) error {
	if user.Role.Elevated() {
		return nil
	}

	// 1. Denylist.
	blocked, err := g.blocked.FindMatch(ctx, scope, ip, user.ID)
	switch {
	case err == nil:
		zap.L().Warn("reservation blocked by denylist",
			zap.String("user_id", user.ID.String()),
			zap.String("reason", blocked.Reason),
		)
		return fmt.Errorf("%w: %s", ErrBlocked, blocked.Reason)
	case !errors.Is(err, repository.ErrNotBlocked):
		return fmt.Errorf("g.blocked.FindMatch -> %w", err)
	}

	// 2. Held-reservation cap.
	var capRaffle *uuid.UUID
	if g.conf.CapScope == "raffle" {
		capRaffle = &raffleID
	}
	held, err := g.tickets.CountReserved(ctx, scope, user.ID, capRaffle)
	if err != nil {
		return fmt.Errorf("g.tickets.CountReserved -> %w", err)
	}
	if held >= int64(g.conf.MaxReservations) {
		return fmt.Errorf("%w: %d reservations held", ErrRateLimited, held)
	}

	// 3. Cooldown between reservations. Zero disables the check.
	if g.conf.CooldownSeconds > 0 {
		last, ok, err := g.tickets.LastReservedAt(ctx, scope, user.ID)
		if err != nil {
			return fmt.Errorf("g.tickets.LastReservedAt -> %w", err)
		}
		cooldown := time.Duration(g.conf.CooldownSeconds) * time.Second
		if ok && time.Since(last) < cooldown {
			return fmt.Errorf("%w: wait %s between reservations", ErrRateLimited, cooldown)
		}
	}

	// 4. Per-IP rate over the trailing minute, from audit history.
	count, err := g.audits.CountReservationsByIP(ctx, scope, ip, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		return fmt.Errorf("g.audits.CountReservationsByIP -> %w", err)
	}
	if count >= int64(g.conf.IPRatePerMinute) {
		return fmt.Errorf("%w: too many requests from this address", ErrRateLimited)
	}

	return nil
}

// FraudAnalyzer is the heavier batch complement to the gate. Each run scans
// the trailing hour of audit history per tenant and promotes abusive IPs and
// users into the denylist.
type FraudAnalyzer struct {
	audits  *repository.AuditRepository
	blocked *repository.BlockedRepository
	conf    *config.FraudConfig
}

func NewFraudAnalyzer(audits *repository.AuditRepository, blocked *repository.BlockedRepository, conf *config.FraudConfig) *FraudAnalyzer {
	return &FraudAnalyzer{
		audits:  audits,
		blocked: blocked,
		conf:    conf,
	}
}

// Analyze performs one scan. Safe to re-run: entities already blocked are
// skipped.
func (a *FraudAnalyzer) Analyze(ctx context.Context) error {
	oneHourAgo := time.Now().UTC().Add(-time.Hour)

	suspiciousIPs, err := a.audits.SuspiciousIPs(ctx, oneHourAgo, a.conf.AnalyzerIPPerHour)
	if err != nil {
		return fmt.Errorf("a.audits.SuspiciousIPs -> %w", err)
	}
	for _, row := range suspiciousIPs {
		tenantID := row.TenantID
		if err := a.block(ctx, domain.BlockedIP, row.Value, &tenantID,
			fmt.Sprintf("Auto-block: %d reservations in 1 hour", row.Count)); err != nil {
			return err
		}
	}

	suspiciousUsers, err := a.audits.SuspiciousActors(ctx, oneHourAgo, a.conf.AnalyzerExpPerHour)
	if err != nil {
		return fmt.Errorf("a.audits.SuspiciousActors -> %w", err)
	}
	for _, row := range suspiciousUsers {
		tenantID := row.TenantID
		if err := a.block(ctx, domain.BlockedUser, row.Value, &tenantID,
			fmt.Sprintf("Auto-block: %d expired reservations in 1 hour", row.Count)); err != nil {
			return err
		}
	}

	return nil
}

func (a *FraudAnalyzer) block(ctx context.Context, kind domain.BlockedKind, value string, tenantID *uuid.UUID, reason string) error {
	exists, err := a.blocked.Exists(ctx, kind, value, tenantID)
	if err != nil {
		return fmt.Errorf("a.blocked.Exists -> %w", err)
	}
	if exists {
		return nil
	}

	zap.L().Warn("auto-blocking entity",
		zap.String("kind", string(kind)),
		zap.String("value", value),
		zap.String("reason", reason),
	)
	if _, err := a.blocked.Insert(ctx, domain.BlockedEntity{
		Kind:     kind,
		Value:    value,
		Reason:   reason,
		TenantID: tenantID,
	}, domain.ActionEntityAutoBlocked, nil, domain.ActorRoleSystem); err != nil {
		return fmt.Errorf("a.blocked.Insert -> %w", err)
	}
	monitoring.EntitiesBlocked.WithLabelValues(string(kind)).Inc()

	return nil
}

package jobs

import (
	"consult_flow_app_go/config"
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SweepResult summarizes one pass over unassigned tickets
type SweepResult struct {
	Checked    int
	Routed     int
	Unassigned int
	Failed     int
}

// riskPriority orders the most urgent tickets first
const riskPriority = "CASE risk_level WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END"

// StartScheduler registers the routing sweep and starts the cron runner.
// The caller owns the returned runner and should Stop it on shutdown.
func StartScheduler(database *gorm.DB, cfg *config.Config) (*cron.Cron, error) {
	loc := cfg.Location()
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(cfg.RoutingSweepSpec, func() {
		logger.Log.Info("[CRON] Routing unassigned tickets")
		if _, err := RouteUnassignedTickets(database, time.Now().UTC(), cfg.RoutingSweepBatch); err != nil {
			logger.Log.Error("[CRON] Routing sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid routing sweep spec %q: %w", cfg.RoutingSweepSpec, err)
	}

	c.Start()
	logger.Log.Info("[CRON] Scheduler started", zap.String("spec", cfg.RoutingSweepSpec), zap.String("timezone", loc.String()))
	return c, nil
}

// RouteUnassignedTickets retries routing for waiting tickets that have no consultant,
// most urgent and oldest first. A batch of zero or less means no limit.
func RouteUnassignedTickets(database *gorm.DB, now time.Time, batch int) (SweepResult, error) {
	var result SweepResult

	query := database.Model(&models.ConsultationTicket{}).
		Where("status = ? AND consultant_id IS NULL", models.TicketStatusWaiting).
		Order(riskPriority).
		Order("created_at ASC")
	if batch > 0 {
		query = query.Limit(batch)
	}

	var ticketIDs []string
	if err := query.Pluck("id", &ticketIDs).Error; err != nil {
		return result, fmt.Errorf("failed to list unassigned tickets: %w", err)
	}

	for _, id := range ticketIDs {
		result.Checked++
		consultantID, err := services.AssignConsultant(database, id, nil, now)
		switch {
		case err == nil:
			result.Routed++
			logger.Log.Debug("[JOB] Ticket routed", zap.String("ticket_id", id), zap.String("consultant_id", consultantID))
		case errors.Is(err, services.ErrNoConsultantFound):
			result.Unassigned++
		default:
			result.Failed++
			logger.Log.Error("[JOB] Routing failed", zap.String("ticket_id", id), zap.Error(err))
		}
	}

	logger.Log.Info("[JOB] Routing sweep completed",
		zap.Int("checked", result.Checked),
		zap.Int("routed", result.Routed),
		zap.Int("unassigned", result.Unassigned),
		zap.Int("failed", result.Failed))
	return result, nil
}

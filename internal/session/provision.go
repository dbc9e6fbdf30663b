package session

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
	"github.com/vitaup/VitaUpBack/internal/metrics"
	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

// InsertOutcome classifies one best-effort sign-up insert.
type InsertOutcome int

const (
	InsertCreated InsertOutcome = iota
	// InsertPermissionDenied means row-level security rejected the insert;
	// a server-side trigger is expected to own the row.
	InsertPermissionDenied
	InsertFailed
)

func (o InsertOutcome) String() string {
	switch o {
	case InsertCreated:
		return "created"
	case InsertPermissionDenied:
		return "permission_denied"
	default:
		return "failed"
	}
}

// ProvisionReport describes what sign-up did about the default rows. None
// of it is an error for the caller; it lets callers pick their own policy.
type ProvisionReport struct {
	Profile         InsertOutcome
	ProfileErr      error
	Gamification    InsertOutcome
	GamificationErr error
	// RowsReady is true when both rows were readable before the poll
	// budget ran out.
	RowsReady bool
}

var errRowsPending = errors.New("default rows not visible yet")

func classifyInsert(err error) InsertOutcome {
	switch {
	case err == nil:
		return InsertCreated
	case store.IsPermissionDenied(err):
		return InsertPermissionDenied
	default:
		return InsertFailed
	}
}

func (m *Manager) provision(ctx context.Context, userID, name string) ProvisionReport {
	var report ProvisionReport

	report.ProfileErr = m.client.InsertProfile(ctx, &models.UserProfile{
		ID:       userID,
		Name:     name,
		PlanType: models.PlanFree,
	})
	report.Profile = classifyInsert(report.ProfileErr)
	m.logInsert(store.TableUserProfiles, userID, report.Profile, report.ProfileErr)

	report.GamificationErr = m.client.InsertGamification(ctx, models.NewGamification(userID))
	report.Gamification = classifyInsert(report.GamificationErr)
	m.logInsert(store.TableGamification, userID, report.Gamification, report.GamificationErr)

	return report
}

func (m *Manager) logInsert(table, userID string, outcome InsertOutcome, err error) {
	metrics.ProvisionInserts.WithLabelValues(table, outcome.String()).Inc()
	switch outcome {
	case InsertCreated:
		m.logger.Debug("default_row_created", zap.String("table", table), zap.String("user_id", userID))
	case InsertPermissionDenied:
		m.logger.Info("default_row_insert_denied", zap.String("table", table), zap.String("user_id", userID))
	default:
		m.logger.Error("default_row_insert_failed",
			zap.String("table", table),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// awaitRows polls with exponential backoff until both default rows are
// readable, a non-missing-row error occurs, or ProvisionMaxWait elapses.
// It returns the last fetch either way.
func (m *Manager) awaitRows(ctx context.Context, userID string) (rowsResult, bool) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.opts.ProvisionInitialInterval
	b.MaxInterval = m.opts.ProvisionMaxInterval

	var last rowsResult
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		last = m.fetchRows(ctx, userID)
		if err := last.failed(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !last.complete() {
			return struct{}{}, errRowsPending
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(m.opts.ProvisionMaxWait),
	)
	if err != nil {
		m.logger.Info("default_rows_not_ready",
			zap.String("user_id", userID),
			zap.Bool("profile", last.profile != nil),
			zap.Bool("gamification", last.gamification != nil),
			zap.Error(err),
		)
		return last, false
	}
	return last, true
}

package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
)

const singleObject = "application/vnd.pgrst.object+json"

func restPath(table string) string {
	return "/rest/v1/" + table
}

func eq(value string) string {
	return "eq." + value
}

// selectOne reads exactly one row; zero rows surface as store.ErrNoRows.
func (c *Client) selectOne(ctx context.Context, table, column, value string, out any) error {
	return c.doRead(ctx, request{
		method:  http.MethodGet,
		path:    restPath(table),
		query:   url.Values{column: {eq(value)}, "select": {"*"}},
		bearer:  c.bearer(),
		headers: map[string]string{"Accept": singleObject},
	}, out)
}

func (c *Client) insert(ctx context.Context, table string, row any) error {
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    restPath(table),
		body:    row,
		bearer:  c.bearer(),
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

// listForDay reads a user's rows for one calendar date, oldest first.
func (c *Client) listForDay(ctx context.Context, table, userID, date string, out any) error {
	return c.doRead(ctx, request{
		method: http.MethodGet,
		path:   restPath(table),
		query: url.Values{
			"user_id": {eq(userID)},
			"date":    {eq(date)},
			"order":   {"created_at.asc"},
			"select":  {"*"},
		},
		bearer: c.bearer(),
	}, out)
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.selectOne(ctx, store.TableUserProfiles, "id", userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) InsertProfile(ctx context.Context, profile *models.UserProfile) error {
	return c.insert(ctx, store.TableUserProfiles, profile)
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	return c.do(ctx, request{
		method:  http.MethodPatch,
		path:    restPath(store.TableUserProfiles),
		query:   url.Values{"id": {eq(userID)}},
		body:    patch,
		bearer:  c.bearer(),
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

func (c *Client) GetGamification(ctx context.Context, userID string) (*models.Gamification, error) {
	var record models.Gamification
	if err := c.selectOne(ctx, store.TableGamification, "user_id", userID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) InsertGamification(ctx context.Context, record *models.Gamification) error {
	return c.insert(ctx, store.TableGamification, record)
}

func (c *Client) ListNutritionLogs(ctx context.Context, userID, date string) ([]models.NutritionLog, error) {
	logs := []models.NutritionLog{}
	if err := c.listForDay(ctx, store.TableNutritionLogs, userID, date, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) InsertNutritionLog(ctx context.Context, entry *models.NutritionLog) error {
	return c.insert(ctx, store.TableNutritionLogs, entry)
}

func (c *Client) ListWorkoutLogs(ctx context.Context, userID, date string) ([]models.WorkoutLog, error) {
	logs := []models.WorkoutLog{}
	if err := c.listForDay(ctx, store.TableWorkoutLogs, userID, date, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) InsertWorkoutLog(ctx context.Context, entry *models.WorkoutLog) error {
	return c.insert(ctx, store.TableWorkoutLogs, entry)
}

func (c *Client) ListSleepLogs(ctx context.Context, userID, date string) ([]models.SleepLog, error) {
	logs := []models.SleepLog{}
	if err := c.listForDay(ctx, store.TableSleepLogs, userID, date, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) InsertSleepLog(ctx context.Context, entry *models.SleepLog) error {
	return c.insert(ctx, store.TableSleepLogs, entry)
}

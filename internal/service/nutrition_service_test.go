package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"peakform/coach-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNutritionUpsertGatedByPlan(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusInternalServerError, `{}`
	})

	svc := NewNutritionService(client, "token")
	_, err := svc.UpsertEntry(context.Background(), testCoach(domain.PlanStarter), domain.NutritionEntry{
		ClientID: "c1",
		Date:     "2026-08-03",
		Calories: 2100,
	})
	require.ErrorIs(t, err, ErrNutritionNoFeature)
	assert.Empty(t, backend.recorded())
}

func TestNutritionUpsertValidatesBeforeNetwork(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusInternalServerError, `{}`
	})
	svc := NewNutritionService(client, "token")
	pro := testCoach(domain.PlanPro)

	_, err := svc.UpsertEntry(context.Background(), pro, domain.NutritionEntry{
		ClientID: "c1", Date: "yesterday",
	})
	require.ErrorIs(t, err, ErrNutritionBadDate)

	_, err = svc.UpsertEntry(context.Background(), pro, domain.NutritionEntry{
		ClientID: "c1", Date: "2026-08-03", Calories: -1,
	})
	require.ErrorIs(t, err, ErrNutritionBadAmounts)

	assert.Empty(t, backend.recorded())
}

func TestNutritionUpsertInsertsWhenDayIsEmpty(t *testing.T) {
	var insertBody []byte
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusNotAcceptable, `{"code":"PGRST116"}`
		case http.MethodPost:
			insertBody, _ = io.ReadAll(r.Body)
			return http.StatusCreated, `{"id":"n1","client_id":"c1","date":"2026-08-03","calories":2100}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewNutritionService(client, "token")
	saved, err := svc.UpsertEntry(context.Background(), testCoach(domain.PlanPro), domain.NutritionEntry{
		ClientID: "c1",
		Date:     "2026-08-03",
		Calories: 2100,
		ProteinG: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", saved.ID)

	requests := backend.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPost, requests[1].Method)

	var row map[string]any
	require.NoError(t, json.Unmarshal(insertBody, &row))
	assert.Equal(t, "2026-08-03", row["date"])
	assert.NotContains(t, row, "id")
}

func TestNutritionUpsertReplacesExistingDay(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusOK, `{"id":"n1","client_id":"c1","date":"2026-08-03","calories":1800}`
		case http.MethodPatch:
			return http.StatusOK, `{"id":"n1","client_id":"c1","date":"2026-08-03","calories":2200}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewNutritionService(client, "token")
	saved, err := svc.UpsertEntry(context.Background(), testCoach(domain.PlanPro), domain.NutritionEntry{
		ClientID: "c1",
		Date:     "2026-08-03",
		Calories: 2200,
	})
	require.NoError(t, err)
	assert.Equal(t, 2200, saved.Calories)

	requests := backend.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPatch, requests[1].Method)
	assert.Contains(t, requests[1].Query, "id=eq.n1")
}

func TestNutritionWeeklySummary(t *testing.T) {
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		query := r.URL.Query()
		assert.Equal(t, "gte.2026-08-03", query.Get("date"))
		return http.StatusOK, `[
			{"id":"n1","client_id":"c1","date":"2026-08-03","calories":2000,"protein_g":150,"carbs_g":200,"fat_g":60,"water_ml":2500},
			{"id":"n2","client_id":"c1","date":"2026-08-04","calories":2200,"protein_g":170,"carbs_g":220,"fat_g":70,"water_ml":3000}
		]`
	})

	svc := NewNutritionService(client, "token")
	summary, err := svc.WeeklySummary(context.Background(), "c1", "2026-08-03")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Days)
	assert.InDelta(t, 2100, summary.AvgCalories, 0.01)
	assert.InDelta(t, 160, summary.AvgProteinG, 0.01)
	assert.Equal(t, 5500, summary.TotalWater)
}

func TestNutritionWeeklySummaryEmptyWeek(t *testing.T) {
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `[]`
	})

	svc := NewNutritionService(client, "token")
	summary, err := svc.WeeklySummary(context.Background(), "c1", "2026-08-03")
	require.NoError(t, err)
	assert.Zero(t, summary.Days)
	assert.Zero(t, summary.AvgCalories)
}

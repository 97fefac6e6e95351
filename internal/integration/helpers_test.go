package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/seating"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Fixture is a seat map with one priority row and one general row.
type Fixture struct {
	MapID   uuid.UUID
	VIPSeat uuid.UUID
	Seat    uuid.UUID
}

func seedFixture(t testing.TB, app *TestApp) *Fixture {
	t.Helper()

	ctx := context.Background()

	mapID, err := app.Service.CreateMap(ctx, TestEventID)
	require.NoError(t, err)

	_, err = app.Service.AddCategory(ctx, mapID, seating.AddCategoryInput{
		Name:      TestCategory,
		BasePrice: decimal.NewNullDecimal(decimal.RequireFromString("49.90")),
	})
	require.NoError(t, err)

	_, err = app.Service.AddCategory(ctx, mapID, seating.AddCategoryInput{
		Name:        "VIP",
		BasePrice:   decimal.NewNullDecimal(decimal.NewFromInt(150)),
		HasPriority: true,
	})
	require.NoError(t, err)

	vipSeat, err := app.Service.AddSeat(ctx, mapID, 1, 1, "VIP")
	require.NoError(t, err)

	seat, err := app.Service.AddSeat(ctx, mapID, 2, 1, TestCategory)
	require.NoError(t, err)

	return &Fixture{MapID: mapID, VIPSeat: vipSeat, Seat: seat}
}

func truncateTables(t testing.TB, db *pgxpool.Pool) {
	t.Helper()

	_, err := db.Exec(context.Background(), "TRUNCATE seat_maps CASCADE")
	require.NoError(t, err)
}

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

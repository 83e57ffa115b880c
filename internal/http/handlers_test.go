package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carpool/internal/config"
	"carpool/internal/modules/assign"
	"carpool/internal/modules/compat"
	"carpool/internal/modules/geo"
	"carpool/internal/modules/pickup"
	"carpool/internal/modules/rides"
	"carpool/internal/modules/schedule"
	"carpool/internal/types"
)

type lineRouter struct{}

func (lineRouter) Route(_ context.Context, origin, destination types.Point) ([]types.Point, error) {
	return []types.Point{origin, destination}, nil
}

type identitySnapper struct{}

func (identitySnapper) Snap(_ context.Context, p types.Point) (types.Point, error) { return p, nil }

type speedTravel struct{}

func (speedTravel) TravelTime(_ context.Context, from, to types.Point) (time.Duration, error) {
	return time.Duration(geo.HaversineMeters(from, to)/11.1) * time.Second, nil
}

type constEmbedder struct{}

func (constEmbedder) EmbedGenres(context.Context, []string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cfg := config.EngineConfig{
		LocationWeight:        0.8,
		MusicWeight:           0.1,
		InitialWeight:         0.1,
		CoverageMeters:        2000,
		DefaultPickupRadiusKm: 10,
		ClusterEpsKm:          0.5,
		MaxPickupMeters:       2000,
		StopDuration:          5 * time.Minute,
		Workers:               4,
	}
	provider := geo.NewProvider(lineRouter{}, nil, logger, cfg.Workers, 0)
	scorer := compat.NewScorer(constEmbedder{}, logger)
	engine := assign.NewEngine(provider, scorer, logger, cfg)
	resolver := pickup.NewResolver(provider, identitySnapper{}, logger, cfg)
	scheduler := schedule.NewScheduler(speedTravel{}, logger, cfg.StopDuration, cfg.ProviderTimeout)
	svc := rides.NewService(engine, resolver, scheduler, logger, cfg)
	return NewRouter(svc, logger)
}

const assignBody = `{
  "rides": [
    {
      "id": 1, "driver": true,
      "pickupLat": 0, "pickupLong": 0, "pickupRadius": 10,
      "vehicle": {"id": 1, "maxPassengers": 4},
      "user": {"id": 1},
      "event": {"id": 1, "latitude": 0, "longitude": 0.2, "startDateTime": "2025-06-01T18:00:00Z"}
    },
    {
      "id": 2, "driver": false,
      "pickupLat": 0, "pickupLong": 0.05,
      "user": {"id": 2},
      "event": {"id": 1, "latitude": 0, "longitude": 0.2, "startDateTime": "2025-06-01T18:00:00Z"}
    }
  ]
}`

func TestAssignUsersEndpoint(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rides/assign-users", strings.NewReader(assignBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Rides []rides.Entry `json:"rides"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rides) != 2 {
		t.Fatalf("got %d rides, want 2", len(resp.Rides))
	}
	if !resp.Rides[0].Driver {
		t.Errorf("first ride is not the driver")
	}
	p := resp.Rides[1]
	if p.DriverID == nil || *p.DriverID != 1 {
		t.Errorf("passenger not assigned: %+v", p)
	}
	if p.StartDateTime == nil {
		t.Errorf("passenger has no departure time")
	}
}

func TestAssignUsersEndpoint_BadJSON(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rides/assign-users", strings.NewReader(`{"rides": `))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAssignUsersEndpoint_ValidationError(t *testing.T) {
	router := testRouter(t)

	// Driver with no vehicle.
	body := `{"rides": [{
		"id": 5, "driver": true, "pickupLat": 0, "pickupLong": 0,
		"user": {"id": 5},
		"event": {"id": 1, "latitude": 0, "longitude": 0.2, "startDateTime": "2025-06-01T18:00:00Z"}
	}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/rides/assign-users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "5") {
		t.Errorf("error body %q does not name the entry", rec.Body.String())
	}
}

func TestAssignStartTimesEndpoint(t *testing.T) {
	router := testRouter(t)

	body := `{
	  "rides": [
	    {
	      "id": 1, "driver": true,
	      "pickupLat": 0, "pickupLong": 0, "pickupRadius": 10,
	      "vehicle": {"id": 1, "maxPassengers": 4},
	      "user": {"id": 1},
	      "event": {"id": 1, "latitude": 0, "longitude": 0.2, "startDateTime": "2025-06-01T18:00:00Z"},
	      "passengerRides": [
	        {
	          "id": 2, "driver": false, "driverId": 1,
	          "pickupLat": 0, "pickupLong": 0.05,
	          "user": {"id": 2},
	          "event": {"id": 1, "latitude": 0, "longitude": 0.2, "startDateTime": "2025-06-01T18:00:00Z"}
	        }
	      ]
	    }
	  ]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/rides/assign-start-times", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Rides []rides.Entry `json:"rides"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rides) != 1 || len(resp.Rides[0].PassengerRides) != 1 {
		t.Fatalf("unexpected shape: %s", rec.Body.String())
	}
	if resp.Rides[0].PassengerRides[0].StartDateTime == nil {
		t.Errorf("passenger has no departure time")
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/app/bootstrap"
	"frontdesk/internal/app/dto"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	domainstay "frontdesk/internal/domain/stay"
	"frontdesk/internal/infra/config"
	"frontdesk/internal/infra/obs"
	"frontdesk/internal/infra/storage/memory"
)

func init() { gin.SetMode(gin.TestMode) }

func clock() time.Time { return daterange.MustDay("2024-05-01").Add(9 * time.Hour) }

type testServer struct {
	router  *gin.Engine
	metrics *obs.Metrics
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	store := memory.NewStore()
	store.SeedRooms(
		&domainroom.Room{ID: "101", Number: "101"},
		&domainroom.Room{ID: "102", Number: "102"},
		&domainroom.Room{ID: "103", Number: "103", Label: "Garden Suite"},
	)
	seed := func(id, roomID, in, out string, status domainstay.Status) {
		dr, err := daterange.Parse(in, out)
		require.NoError(t, err)
		store.SeedStays(&domainstay.Stay{ID: domainstay.StayID(id), RoomID: domainroom.RoomID(roomID), Range: dr, Status: status, GuestName: "Guest " + id, Guests: 1})
	}
	seed("x", "101", "2024-05-10", "2024-05-13", domainstay.StatusConfirmed)
	seed("y", "101", "2024-05-14", "2024-05-16", domainstay.StatusPending)
	seed("z", "102", "2024-04-28", "2024-05-03", domainstay.StatusCheckedIn)

	box := memory.NewOutbox()
	metrics := obs.NewMetrics()
	app, err := bootstrap.Build(bootstrap.Deps{
		UoWFactory:  memory.Factory{Store: store, Outbox: box},
		Outbox:      box,
		Idempotency: memory.NewIdempotencyStore(),
		Recorder:    metrics,
		Now:         clock,
	})
	require.NoError(t, err)
	box.Subscribe(app.ApplyEvent)

	router := NewRouter(config.Config{}, obs.Middleware{Metrics: metrics}, obs.HealthHandlers{}, Handlers{
		Rooms:   RoomHandler{Commands: app.Commands, Queries: app.Queries},
		Stays:   StayHandler{Commands: app.Commands, Queries: app.Queries, Controller: app.Controller},
		Groups:  GroupHandler{Queries: app.Queries, Coordinator: app.Coordinator, Recorder: metrics},
		Metrics: metrics.Handler(),
	})
	return testServer{router: router, metrics: metrics}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListRoomsAndSnapshot(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[dto.RoomCollection](t, rec)
	require.Len(t, rooms.Items, 3)
	assert.Equal(t, "Garden Suite", rooms.Items[2].Label)

	rec = s.do(t, http.MethodGet, "/api/v1/rooms/102/snapshot?today=2024-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[dto.RoomSnapshot](t, rec)
	require.NotNil(t, snap.CurrentStay)
	assert.Equal(t, "z", snap.CurrentStay.ID)

	rec = s.do(t, http.MethodGet, "/api/v1/rooms/999/snapshot", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStayConflictReturnsNights(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/stays", map[string]any{
		"room_id": "101", "check_in": "2024-05-12", "check_out": "2024-05-15", "guest_name": "Grace",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "conflict", body.Code)
	require.Len(t, body.Conflicts, 1)
	assert.Equal(t, []string{"2024-05-12", "2024-05-14"}, body.Conflicts[0].Nights)

	rec = s.do(t, http.MethodPost, "/api/v1/stays", map[string]any{
		"room_id": "101", "check_in": "2024-05-16", "check_out": "2024-05-18", "guest_name": "Grace",
	}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dto.StayRef](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/stays", map[string]any{
		"room_id": "101", "check_in": "2024-05-16", "check_out": "2024-05-18", "guest_name": "Grace",
	}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, created.ID, decode[dto.StayRef](t, rec).ID)
}

func TestUpdateStayPreconditions(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPatch, "/api/v1/stays/x", map[string]any{"check_in": "2024-04-20", "check_out": "2024-04-22"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "past_date", decode[errorBody](t, rec).Precondition)

	rec = s.do(t, http.MethodPatch, "/api/v1/stays/z", map[string]any{"check_in": "2024-05-02", "check_out": "2024-05-05"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "locked_status", decode[errorBody](t, rec).Precondition)

	rec = s.do(t, http.MethodPatch, "/api/v1/stays/x", map[string]any{"check_in": "2024-05-11", "check_out": "2024-05-14"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-05-14", decode[dto.StayRef](t, rec).CheckOut)

	rec = s.do(t, http.MethodPatch, "/api/v1/stays/missing", map[string]any{"check_in": "2024-05-11", "check_out": "2024-05-14"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReschedulePreviewThenCommit(t *testing.T) {
	s := newTestServer(t)
	preview := s.do(t, http.MethodPost, "/api/v1/stays/x/reschedule", map[string]any{
		"check_in": "2024-05-20", "check_out": "2024-05-23", "room_id": "103",
	})
	require.Equal(t, http.StatusOK, preview.Code)
	resp := decode[rescheduleResponse](t, preview)
	assert.Equal(t, "declined", resp.Outcome)
	assert.Equal(t, "May 10 - May 13, 2024 (3 nights)", resp.Prompt.OldDateRangeLabel)
	assert.Equal(t, "May 20 - May 23, 2024 (3 nights)", resp.Prompt.NewDateRangeLabel)
	assert.Nil(t, resp.Stay)

	rec := s.do(t, http.MethodGet, "/api/v1/stays/x", nil)
	assert.Equal(t, "101", decode[dto.StayRef](t, rec).RoomID)

	commit := s.do(t, http.MethodPost, "/api/v1/stays/x/reschedule", map[string]any{
		"check_in": "2024-05-20", "check_out": "2024-05-23", "room_id": "103", "confirm": true,
	})
	require.Equal(t, http.StatusOK, commit.Code)
	resp = decode[rescheduleResponse](t, commit)
	assert.Equal(t, "committed", resp.Outcome)
	require.NotNil(t, resp.Stay)
	assert.Equal(t, "103", resp.Stay.RoomID)
	assert.Equal(t, []string{"idle", "validating", "optimistically_applied", "confirming", "committed", "idle"}, resp.Trace)

	metrics := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Contains(t, metrics.Body.String(), `frontdesk_stay_mutations_total{kind="move",outcome="committed"} 1`)
}

func TestRescheduleIntoOccupiedNightsIsRejected(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/stays/y/reschedule", map[string]any{
		"check_in": "2024-05-12", "check_out": "2024-05-15", "confirm": true,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "conflict", decode[errorBody](t, rec).Code)
}

func TestTransitions(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/stays/y/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode[dto.StayRef](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/api/v1/stays/z/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/stays/y/archive", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupLifecycle(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/groups", map[string]any{
		"check_in": "2024-06-01", "check_out": "2024-06-04",
		"rooms": []map[string]any{{"room_id": "102", "guest_name": "A"}, {"room_id": "102", "guest_name": "B"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"102"}, decode[errorBody](t, rec).Duplicates)

	rec = s.do(t, http.MethodPost, "/api/v1/groups", map[string]any{
		"check_in": "2024-06-01", "check_out": "2024-06-04",
		"rooms": []map[string]any{{"room_id": "102", "guest_name": "A"}, {"room_id": "103", "guest_name": "B"}, {"room_id": ""}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[groupResultResponse](t, rec)
	require.Len(t, created.Stays, 2)

	rec = s.do(t, http.MethodPut, "/api/v1/groups/"+created.GroupCode, map[string]any{"check_in": "2024-06-02", "check_out": "2024-06-05"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[groupResultResponse](t, rec)
	require.Len(t, updated.Stays, 2)
	for _, st := range updated.Stays {
		assert.Equal(t, "2024-06-02", st.CheckIn)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/groups/"+created.GroupCode, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.Group](t, rec).Stays, 2)

	rec = s.do(t, http.MethodGet, "/api/v1/groups/GRP-NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupConflictNamesRooms(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/groups", map[string]any{
		"check_in": "2024-05-12", "check_out": "2024-05-14",
		"rooms": []map[string]any{{"room_id": "101", "guest_name": "A"}, {"room_id": "103", "guest_name": "B"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	require.Len(t, body.Conflicts, 1)
	assert.Equal(t, "101", body.Conflicts[0].RoomID)
}

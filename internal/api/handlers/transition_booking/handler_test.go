package transition_booking_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	handler "github.com/cerberus-crm/booking-service/internal/api/handlers/transition_booking"
	"github.com/cerberus-crm/booking-service/internal/domain"
	transitionBooking "github.com/cerberus-crm/booking-service/internal/usecase/transition_booking"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeUseCase struct {
	gotReq *transitionBooking.Request
	resp   *transitionBooking.Response
	err    error
}

func (u *fakeUseCase) Execute(_ context.Context, req *transitionBooking.Request) (*transitionBooking.Response, error) {
	u.gotReq = req
	if u.err != nil {
		return nil, u.err
	}
	return u.resp, nil
}

// do прогоняет запрос через роутер, чтобы mux.Vars заполнялись как в main
func do(t *testing.T, uc *fakeUseCase, url string) *httptest.ResponseRecorder {
	t.Helper()

	h := handler.NewHandler(uc, nopLogger{})
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/bookings/{bookingId}/transitions/{action}", h.Handle).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Handle(t *testing.T) {
	t.Parallel()

	slotID := int64(100)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{
		resp: &transitionBooking.Response{
			ID:               1,
			CustomerID:       10,
			ServiceID:        5,
			SlotID:           &slotID,
			PetIDs:           []int64{1, 2},
			Start:            now,
			End:              now.Add(time.Hour),
			State:            "confirmed",
			AvailableActions: []string{"complete", "cancel"},
			UpdatedAt:        now,
		},
	}

	rec := do(t, uc, "/api/v1/bookings/1/transitions/confirm")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, int64(1), uc.gotReq.BookingID)
	require.Equal(t, "confirm", uc.gotReq.Action)

	var body handler.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.ID)
	require.Equal(t, "confirmed", body.State)
	require.NotNil(t, body.SlotID)
	require.Equal(t, int64(100), *body.SlotID)
	require.Equal(t, []string{"complete", "cancel"}, body.AvailableActions)
	require.Equal(t, now.Format(time.RFC3339), body.Start)
}

func TestHandler_Handle_Errors(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name       string
		url        string
		err        error
		wantStatus int
	}{
		{
			name:       "invalid booking id",
			url:        "/api/v1/bookings/abc/transitions/confirm",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "booking not found",
			url:        "/api/v1/bookings/404/transitions/confirm",
			err:        transitionBooking.ErrBookingNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown action",
			url:        "/api/v1/bookings/1/transitions/explode",
			err:        transitionBooking.ErrUnknownAction,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "transition not allowed",
			url:        "/api/v1/bookings/1/transitions/confirm",
			err:        domain.ErrTransitionNotAllowed,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "booking not ended",
			url:        "/api/v1/bookings/1/transitions/complete",
			err:        transitionBooking.ErrBookingNotEnded,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "window taken on reopen",
			url:        "/api/v1/bookings/1/transitions/reopen",
			err:        domain.ErrSlotOverlaps,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "slot full on reopen",
			url:        "/api/v1/bookings/1/transitions/reopen",
			err:        domain.ErrMaxPets,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "internal error",
			url:        "/api/v1/bookings/1/transitions/confirm",
			err:        transitionBooking.ErrInternal,
			wantStatus: http.StatusInternalServerError,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, &fakeUseCase{err: tt.err}, tt.url)
			require.Equal(t, tt.wantStatus, rec.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.wantStatus, body.Code)
			require.NotEmpty(t, body.Message)
		})
	}
}

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/norar1/fireportal/internal/config"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient starts a server answering with handler and returns a client
// pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL+"/", srv.Client(), logger.Nop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestListPermits(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/occupancy/GetPermit", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success":true,"permits":[{
			"id":"`+id.String()+`",
			"type":"occupancy",
			"date_received":"2025-04-02",
			"status":"pending",
			"payment_status":"not_paid",
			"occupancy":{"owner_establishment":"Lubao Bakery","location":"San Isidro"}
		}]}`)
	})

	permits, err := c.ListPermits(context.Background(), models.PermitOccupancy)
	require.NoError(t, err)
	require.Len(t, permits, 1)
	assert.Equal(t, id, permits[0].ID)
	assert.Equal(t, "Lubao Bakery", permits[0].Name())
	assert.Equal(t, "2025-04-02", permits[0].DateReceived.String())
}

func TestListPermits_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"server error", http.StatusInternalServerError, `{"success":false,"message":"Failed to load permits"}`, KindStatus},
		{"not found without body", http.StatusNotFound, ``, KindStatus},
		{"missing success flag", http.StatusOK, `{"permits":[]}`, KindMalformed},
		{"missing permits", http.StatusOK, `{"success":true}`, KindMalformed},
		{"null permits", http.StatusOK, `{"success":true,"permits":null}`, KindMalformed},
		{"not json", http.StatusOK, `<html>maintenance</html>`, KindMalformed},
		{"rejected", http.StatusOK, `{"success":false,"message":"database offline"}`, KindRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			permits, err := c.ListPermits(context.Background(), models.PermitBuilding)
			require.Error(t, err)
			assert.Nil(t, permits)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"success":false,"message":"Permit not found"}`)
	})

	err := c.DeletePermit(context.Background(), models.PermitBuilding, uuid.New())

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindStatus, ce.Kind)
	assert.Equal(t, http.StatusNotFound, ce.StatusCode)
	assert.Equal(t, "Permit not found", ce.Message)
	assert.Contains(t, ce.Error(), "delete building permit")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewWithHTTPClient(url, &http.Client{Timeout: time.Second}, nil)
	_, err := c.ListFires(context.Background())
	assert.True(t, IsKind(err, KindTransport), "got %v", err)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(config.PortalConfig{APIURL: srv.URL, Timeout: 50 * time.Millisecond}, logger.Nop())
	_, err := c.Stats(context.Background())
	assert.True(t, IsKind(err, KindTransport), "got %v", err)
}

func TestSearchPermitsEncodesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/businessfsic/search", r.URL.Path)
		assert.Equal(t, "Lubao & Sons", r.URL.Query().Get("query"))
		writeJSON(w, http.StatusOK, `{"success":true,"permits":[]}`)
	})

	permits, err := c.SearchPermits(context.Background(), models.PermitFSIC, "Lubao & Sons")
	require.NoError(t, err)
	assert.NotNil(t, permits)
	assert.Empty(t, permits)
}

func TestUpdatePermitSendsFlatPayload(t *testing.T) {
	p := &models.Permit{
		ID:           uuid.New(),
		Type:         models.PermitBuilding,
		DateReceived: models.NewDate(2025, time.May, 20),
		Email:        "owner@example.com",
		Building: &models.BuildingDetails{
			OwnerEstablishment: "Lubao Hardware",
			Location:           "Santa Cruz",
			ControlNo:          "CN-0042",
		},
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/building/UpdatePermit/"+p.ID.String(), r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Lubao Hardware", body["owner_establishment"])
		assert.Equal(t, "CN-0042", body["control_no"])
		assert.Equal(t, "2025-05-20", body["date_received"])
		assert.Equal(t, "owner@example.com", body["email"])
		assert.NotContains(t, body, "building")

		writeJSON(w, http.StatusOK, `{"success":true,"message":"Permit updated successfully"}`)
	})

	require.NoError(t, c.UpdatePermit(context.Background(), p))
}

func TestUpdateStatus(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/building/UpdateStatus/"+id.String(), r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"status": "approved"}, body)

		writeJSON(w, http.StatusOK, `{"success":true,"message":"Permit status updated to approved","email_sent":true}`)
	})

	result, err := c.UpdateStatus(context.Background(), models.PermitBuilding, id, models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.Equal(t, "Permit status updated to approved", result.Message)
}

func TestUpdatePayment(t *testing.T) {
	tests := []struct {
		name     string
		status   models.PaymentStatus
		paidOn   *models.Date
		expected string
	}{
		{"paid", models.PaymentPaid, models.NewDate(2025, time.June, 1).Ptr(), `{"payment_status":"paid","last_payment_date":"2025-06-01"}`},
		{"not paid", models.PaymentNotPaid, nil, `{"payment_status":"not_paid","last_payment_date":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.JSONEq(t, tt.expected, string(data))
				writeJSON(w, http.StatusOK, `{"success":true,"message":"ok"}`)
			})

			require.NoError(t, c.UpdatePayment(context.Background(), models.PermitOccupancy, uuid.New(), tt.status, tt.paidOn))
		})
	}
}

func TestFires(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/firecases/getFire":
			writeJSON(w, http.StatusOK, `{"success":true,"fires":[{
				"id":"`+id.String()+`","barangay":"Santa Cruz","purok":"Purok 2",
				"date":"2025-03-09","year":"2025","damageCost":"1,500,000 PHP"}]}`)
		case "/api/firecases/createFire":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "500000 PHP", body["damageCost"])
			assert.Equal(t, "2025-07-04", body["date"])
			writeJSON(w, http.StatusCreated, `{"success":true,"fire":{"id":"`+id.String()+`","year":"2025"}}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"success":false}`)
		}
	})
	ctx := context.Background()

	fires, err := c.ListFires(ctx)
	require.NoError(t, err)
	require.Len(t, fires, 1)
	assert.Equal(t, int64(1500000), fires[0].DamageCost.Major())

	created, err := c.CreateFire(ctx, &models.FireIncident{
		Barangay:   "Santa Cruz",
		Purok:      "Purok 2",
		Date:       models.NewDate(2025, time.July, 4),
		DamageCost: models.Pesos(500000),
	})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	assert.Equal(t, "2025", created.Year)
}

func TestStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"stats":{"building":{"pending":3,"approved":1,"rejected":0}}}`)
	})

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Pending: 3, Approved: 1}, stats[models.PermitBuilding])
}

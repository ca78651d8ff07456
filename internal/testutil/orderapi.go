// Package testutil provides an in-memory order API for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Order is one production order held by the fake API.
type Order struct {
	ID         string
	Product    string
	WorkCenter string
	Start      time.Time
	End        time.Time
	Status     string
}

type failure struct {
	status int
	code   string
	detail string
}

// OrderAPI serves GET /production/schedule and PUT /production/schedule/{id}
// from memory.
type OrderAPI struct {
	Server *httptest.Server

	mu      sync.Mutex
	orders  map[string]*Order
	ids     []string
	fail    *failure
	listErr int
	gets    int
	puts    int
}

func NewOrderAPI(t testing.TB, orders ...Order) *OrderAPI {
	t.Helper()

	api := &OrderAPI{orders: make(map[string]*Order)}
	for i := range orders {
		o := orders[i]
		api.orders[o.ID] = &o
		api.ids = append(api.ids, o.ID)
	}

	r := mux.NewRouter()
	r.HandleFunc("/production/schedule", api.list).Methods(http.MethodGet)
	r.HandleFunc("/production/schedule/{id}", api.update).Methods(http.MethodPut)

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Server.Close)
	return api
}

func (a *OrderAPI) URL() string {
	return a.Server.URL
}

// FailUpdates makes every following PUT answer with status and a
// {detail, code} body. A zero status clears the failure.
func (a *OrderAPI) FailUpdates(status int, code, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if status == 0 {
		a.fail = nil
		return
	}
	a.fail = &failure{status: status, code: code, detail: detail}
}

// FailList makes GET answer with status. Zero clears it.
func (a *OrderAPI) FailList(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listErr = status
}

func (a *OrderAPI) Order(id string) (Order, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	o, ok := a.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Requests returns how many list and update calls were served.
func (a *OrderAPI) Requests() (gets, puts int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gets, a.puts
}

func (a *OrderAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gets++

	if a.listErr != 0 {
		writeJSON(w, a.listErr, map[string]string{"detail": http.StatusText(a.listErr)})
		return
	}

	records := make([]map[string]interface{}, 0, len(a.ids))
	for _, id := range a.ids {
		o := a.orders[id]
		rec := map[string]interface{}{
			"order_id":    o.ID,
			"product":     o.Product,
			"work_center": o.WorkCenter,
			"start_date":  o.Start.Format(time.RFC3339),
			"status":      o.Status,
		}
		if !o.End.IsZero() {
			rec["due_date"] = o.End.Format(time.RFC3339)
		}
		records = append(records, rec)
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *OrderAPI) update(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.puts++

	if a.fail != nil {
		writeJSON(w, a.fail.status, map[string]string{"detail": a.fail.detail, "code": a.fail.code})
		return
	}

	o, ok := a.orders[mux.Vars(r)["id"]]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Order not found", "code": "order_not_found"})
		return
	}

	var body struct {
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error(), "code": "validation_failed"})
		return
	}
	if body.EndDate.Before(body.StartDate) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "end before start", "code": "validation_failed"})
		return
	}

	o.Start, o.End = body.StartDate, body.EndDate
	writeJSON(w, http.StatusOK, map[string]string{"order_id": o.ID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Logger returns a logger that discards its output.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

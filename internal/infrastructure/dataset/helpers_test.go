package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const header = "order_purchase_timestamp,order_delivered_customer_date,order_delivered_carrier_date," +
	"review_score,product_category_name,customer_unique_id,payment_value,customer_state," +
	"geolocation_lat,geolocation_lng"

// threeOrders is the canonical three-row sample: two January orders in SP, one February order in RJ
var threeOrders = strings.Join([]string{
	header,
	"2018-01-05 10:00:00,2018-01-10 10:00:00,2018-01-08 10:00:00,5,beleza_saude,c1,100.00,SP,-23.5,-46.6",
	"2018-01-20 09:30:00,2018-01-26 12:00:00,2018-01-22 12:00:00,3,beleza_saude,c2,50.50,SP,-23.6,-46.7",
	"2018-02-02 08:00:00,2018-02-04 08:00:00,2018-02-03 08:00:00,4,telefonia,c1,200,RJ,-22.9,-43.2",
}, "\n") + "\n"

// countingServer serves body and counts requests
type countingServer struct {
	*httptest.Server
	hits   atomic.Int32
	status atomic.Int32
	mu     sync.Mutex
	body   string
	gate   chan struct{}
}

func newCountingServer(t *testing.T, body string) *countingServer {
	t.Helper()
	s := &countingServer{body: body}
	s.status.Store(http.StatusOK)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		gate, body := s.gate, s.body
		s.mu.Unlock()
		if gate != nil {
			<-gate
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(int(s.status.Load()))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *countingServer) setBody(body string) {
	s.mu.Lock()
	s.body = body
	s.mu.Unlock()
}

func (s *countingServer) hold() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	return s.gate
}

// memoryStore is an in-memory RawStore
type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	sets    int
	deletes int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, source string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	d, ok := m.data[source]
	return d, ok, nil
}

func (m *memoryStore) Set(_ context.Context, source string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[source] = append([]byte(nil), data...)
	m.ttls[source] = ttl
	return nil
}

func (m *memoryStore) Delete(_ context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.data, source)
	return nil
}

func (m *memoryStore) Name() string { return "memory-test" }

func (m *memoryStore) has(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[source]
	return ok
}

var errStoreDown = errors.New("store down")

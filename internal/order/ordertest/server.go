// Package ordertest provides an in-memory sales service for tests. It applies
// the order transition table the way the backend does and rejects anything
// else with a 400 carrying a message.
package ordertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type Server struct {
	*httptest.Server

	mu     sync.Mutex
	orders map[string]*model.Order
	ids    []string
	ships  []model.ShipmentRequest
	calls  map[string]int

	// ShipError, when set, makes every ship call fail with this message.
	ShipError string
}

func NewServer(orders ...model.Order) *Server {
	s := &Server{
		orders: map[string]*model.Order{},
		calls:  map[string]int{},
	}
	for _, o := range orders {
		s.Put(o)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sales-orders/b2b", s.list)
	mux.HandleFunc("POST /sales-orders/b2b", s.create)
	mux.HandleFunc("GET /sales-orders/{id}", s.get)
	mux.HandleFunc("DELETE /sales-orders/{id}", s.remove)
	mux.HandleFunc("PUT /sales-orders/{id}/{op}", s.transition)
	mux.HandleFunc("POST /sales-orders/{id}/ship", s.ship)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// Put adds or replaces an order.
func (s *Server) Put(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.OrderID]; !ok {
		s.ids = append(s.ids, o.OrderID)
	}
	cp := o
	s.orders[o.OrderID] = &cp
}

// Order returns the stored order and whether it still exists.
func (s *Server) Order(id string) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// Calls counts requests by "METHOD /path".
func (s *Server) Calls(methodPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[methodPath]
}

// Shipments returns every accepted shipment request.
func (s *Server) Shipments() []model.ShipmentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ShipmentRequest, len(s.ships))
	copy(out, s.ships)
	return out
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 10
	}

	s.mu.Lock()
	var matched []model.Order
	for _, id := range s.ids {
		o, ok := s.orders[id]
		if !ok {
			continue
		}
		if st := q.Get("status"); st != "" && string(o.OrderStatus) != st {
			continue
		}
		if d := q.Get("dealerId"); d != "" && o.DealerID != d {
			continue
		}
		matched = append(matched, *o)
	}
	s.mu.Unlock()

	totalPages := (len(matched) + size - 1) / size
	start := page * size
	content := []model.Order{}
	if start < len(matched) {
		end := start + size
		if end > len(matched) {
			end = len(matched)
		}
		content = matched[start:end]
	}
	writeJSON(w, http.StatusOK, model.Page[model.Order]{
		Content:       content,
		Number:        page,
		Size:          size,
		TotalPages:    totalPages,
		TotalElements: int64(len(matched)),
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealerID string `json:"dealerId"`
		Items    []struct {
			VariantID string `json:"variantId"`
			Quantity  int    `json:"quantity"`
		} `json:"orderItems"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	id := fmt.Sprintf("o-%d", len(s.ids)+1)
	s.mu.Unlock()

	o := model.Order{
		OrderID:     id,
		DealerID:    req.DealerID,
		OrderDate:   model.Timestamp{Time: time.Now().UTC()},
		OrderStatus: model.StatusPending,
		Notes:       req.Notes,
	}
	for i, it := range req.Items {
		price := decimal.NewFromInt(500_000_000)
		line := model.OrderItem{
			OrderItemID: fmt.Sprintf("%s-%d", id, i+1),
			VariantID:   it.VariantID,
			Quantity:    it.Quantity,
			UnitPrice:   price,
		}
		line.TotalPrice = line.LineTotal()
		o.Items = append(o.Items, line)
	}
	o.TotalAmount = o.ItemsTotal()
	s.Put(o)
	writeJSON(w, http.StatusCreated, map[string]any{"code": 1000, "message": "created", "data": o})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	o, ok := s.Order(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if _, ok := model.Next(o.OrderStatus, model.ActionDelete); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Only CANCELLED orders can be deleted, order is %s", o.OrderStatus))
		return
	}
	delete(s.orders, id)
	w.WriteHeader(http.StatusNoContent)
}

var ops = map[string]model.OrderAction{
	"approve":          model.ActionApprove,
	"cancel-by-staff":  model.ActionCancel,
	"cancel-by-dealer": model.ActionCancel,
	"deliver":          model.ActionDeliver,
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	action, ok := ops[r.PathValue("op")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown operation")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	next, ok := model.Next(o.OrderStatus, action)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot %s order in status %s", action, o.OrderStatus))
		return
	}
	o.OrderStatus = next
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) ship(w http.ResponseWriter, r *http.Request) {
	var req model.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ShipError != "" {
		writeError(w, http.StatusBadRequest, s.ShipError)
		return
	}
	o, ok := s.orders[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	next, ok := model.Next(o.OrderStatus, model.ActionShip)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot ship order in status %s", o.OrderStatus))
		return
	}
	shipped := map[string]int{}
	for _, it := range req.Items {
		shipped[it.VariantID] += len(it.Vins)
	}
	for _, it := range o.Items {
		if shipped[it.VariantID] != it.Quantity {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Variant %s requires %d VINs, got %d", it.VariantID, it.Quantity, shipped[it.VariantID]))
			return
		}
	}
	o.OrderStatus = next
	s.ships = append(s.ships, req)
	writeJSON(w, http.StatusOK, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "message": msg})
}

// ConfirmedOrder is a CONFIRMED order for dealer 12 with two lines: variant
// 101 x3 and variant 102 x2.
func ConfirmedOrder(id string) model.Order {
	return NewOrder(id, "12", model.StatusConfirmed,
		Line("101", 3, 450_000_000),
		Line("102", 2, 500_000_000),
	)
}

func NewOrder(id, dealerID string, status model.OrderStatus, items ...model.OrderItem) model.Order {
	o := model.Order{
		OrderID:     id,
		DealerID:    dealerID,
		OrderDate:   model.Timestamp{Time: time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)},
		OrderStatus: status,
	}
	for i, it := range items {
		it.OrderItemID = fmt.Sprintf("%s-%d", id, i+1)
		o.Items = append(o.Items, it)
	}
	o.TotalAmount = o.ItemsTotal()
	return o
}

func Line(variantID string, qty int, unitPrice int64) model.OrderItem {
	it := model.OrderItem{VariantID: variantID, Quantity: qty, UnitPrice: decimal.NewFromInt(unitPrice)}
	it.TotalPrice = it.LineTotal()
	return it
}

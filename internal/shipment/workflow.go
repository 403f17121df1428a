// Package shipment collects and checks the VINs for a CONFIRMED order and
// submits them as one shipment.
//
// Each order line is tracked independently. Its VIN text may be edited
// freely; validation runs when the caller reports the edit is finished
// (Blur), and results that arrive after a newer edit or validation of the
// same line are dropped. Submission is refused while any line is being
// validated, has rejected VINs, or failed to validate, and the VIN count of
// every line must match the ordered quantity exactly.
package shipment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/metrics"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type State int

const (
	Idle State = iota
	Pending
	Valid
	Invalid
	Failed
)

var stateNames = [...]string{"idle", "pending", "valid", "invalid", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

var (
	ErrBusy   = errors.New("shipment is already being submitted")
	ErrClosed = errors.New("shipment workflow is closed")
)

const duplicateReason = "duplicate VIN"

const suggestionFetchLimit = 4

type Inventory interface {
	GetAvailableVins(ctx context.Context, variantID string) ([]string, error)
	ValidateVins(ctx context.Context, vins []string) (*model.VinValidationResult, error)
}

type Shipper interface {
	ShipOrder(ctx context.Context, req *model.ShipmentRequest) error
}

type Config struct {
	Inventory Inventory
	Shipper   Shipper
	Logger    logger.ZapLogger
	Metrics   *metrics.Registry
	// OnShipped runs once after the server accepts the shipment.
	OnShipped func(ctx context.Context, orderID string)
}

// Item is a snapshot of one order line in the workflow.
type Item struct {
	ItemID      string
	VariantID   string
	Quantity    int
	Text        string
	State       State
	Errors      map[string]string // rejected VIN -> reason
	Suggestions []string
	Err         error // last validation transport error, set when State is Failed
}

// Entered counts the non-empty lines of Text, valid or not.
func (i Item) Entered() int { return len(SplitVins(i.Text)) }

type itemState struct {
	Item
	seq uint64
}

type Workflow struct {
	cfg   Config
	order model.Order

	mu         sync.Mutex
	items      map[string]*itemState
	ids        []string
	submitting bool
	closed     bool
}

// Open starts a workflow for o, which must be CONFIRMED and have at least one
// line. Available VINs are fetched for every line concurrently; a line whose
// fetch fails simply has no suggestions.
func Open(ctx context.Context, o *model.Order, cfg Config) (*Workflow, error) {
	if o == nil {
		return nil, apperr.Validation("no order to ship")
	}
	if o.OrderStatus != model.StatusConfirmed {
		return nil, apperr.Validation("order %s is %s; only CONFIRMED orders can be shipped", o.OrderID, o.OrderStatus)
	}
	if len(o.Items) == 0 {
		return nil, apperr.Validation("order %s has no items", o.OrderID)
	}
	if cfg.Inventory == nil || cfg.Shipper == nil {
		return nil, fmt.Errorf("shipment workflow needs an inventory client and a shipper")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	w := &Workflow{
		cfg:   cfg,
		order: *o,
		items: make(map[string]*itemState, len(o.Items)),
	}
	for i, it := range o.Items {
		id := it.OrderItemID
		if id == "" || w.items[id] != nil {
			id = strconv.Itoa(i + 1)
		}
		w.ids = append(w.ids, id)
		w.items[id] = &itemState{Item: Item{
			ItemID:    id,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			State:     Idle,
		}}
	}

	var g errgroup.Group
	g.SetLimit(suggestionFetchLimit)
	for _, id := range w.ids {
		st := w.items[id]
		g.Go(func() error {
			vins, err := cfg.Inventory.GetAvailableVins(ctx, st.VariantID)
			if err != nil {
				cfg.Logger.Warn("failed to fetch available VINs",
					zap.String("order_id", o.OrderID),
					zap.String("variant_id", st.VariantID),
					zap.Error(err),
				)
				return nil
			}
			w.mu.Lock()
			st.Suggestions = vins
			w.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workflow) Order() model.Order { return w.order }

// Items returns a snapshot of every line in order.
func (w *Workflow) Items() []Item {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Item, 0, len(w.ids))
	for _, id := range w.ids {
		out = append(out, w.items[id].snapshot())
	}
	return out
}

func (w *Workflow) Item(itemID string) (Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.item(itemID)
	if err != nil {
		return Item{}, err
	}
	return st.snapshot(), nil
}

// SetText replaces the VIN text of a line. Any validation in flight for the
// line is discarded when it returns. Rejections for VINs still present are
// kept until the line is validated again, and a Failed line stays Failed.
func (w *Workflow) SetText(itemID, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	st, err := w.item(itemID)
	if err != nil {
		return err
	}

	st.Text = text
	st.seq++

	present := make(map[string]bool)
	for _, v := range SplitVins(text) {
		present[v] = true
	}
	kept := map[string]string{}
	for vin, reason := range st.Errors {
		if present[vin] && reason != duplicateReason {
			kept[vin] = reason
		}
	}
	st.Errors = kept
	switch {
	case st.State == Failed:
		// stays blocked until the next Blur gets an answer
	case len(kept) > 0:
		st.State = Invalid
	default:
		st.State = Idle
	}
	return nil
}

// ToggleSuggestion adds vin to the line, or removes it when already present.
func (w *Workflow) ToggleSuggestion(itemID, vin string) error {
	w.mu.Lock()
	st, err := w.item(itemID)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	current := SplitVins(st.Text)
	w.mu.Unlock()

	next := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == vin {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, vin)
	}
	return w.SetText(itemID, joinVins(next))
}

// Progress reports entered/required for a line from its raw text.
func (w *Workflow) Progress(itemID string) (entered, required int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.item(itemID)
	if err != nil {
		return 0, 0, err
	}
	return st.Entered(), st.Quantity, nil
}

// Blur validates the current VINs of a line. The returned error is the
// transport error, if any; rejected VINs are reported through Item.Errors.
func (w *Workflow) Blur(ctx context.Context, itemID string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	st, err := w.item(itemID)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	vins := SplitVins(st.Text)
	st.seq++
	seq := st.seq
	st.Err = nil
	if len(vins) == 0 {
		st.State = Idle
		st.Errors = map[string]string{}
		w.mu.Unlock()
		return nil
	}
	st.State = Pending
	w.mu.Unlock()

	unique := make([]string, 0, len(vins))
	seen := make(map[string]bool, len(vins))
	for _, v := range vins {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	res, verr := w.cfg.Inventory.ValidateVins(ctx, unique)
	w.cfg.Metrics.ObserveValidation(verr == nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || st.seq != seq {
		w.cfg.Logger.Debug("dropping stale VIN validation",
			zap.String("order_id", w.order.OrderID),
			zap.String("item_id", itemID),
		)
		return nil
	}
	if verr != nil {
		st.State = Failed
		st.Err = verr
		w.cfg.Logger.Warn("VIN validation failed",
			zap.String("order_id", w.order.OrderID),
			zap.String("variant_id", st.VariantID),
			zap.Error(verr),
		)
		return verr
	}

	if res == nil {
		res = &model.VinValidationResult{}
	}
	errs := map[string]string{}
	for _, v := range unique {
		if reason := res.Reason(v); reason != "" {
			errs[v] = reason
		}
	}
	for _, v := range duplicates(vins) {
		if _, ok := errs[v]; !ok {
			errs[v] = duplicateReason
		}
	}
	st.Errors = errs
	if len(errs) > 0 {
		st.State = Invalid
	} else {
		st.State = Valid
	}
	return nil
}

// CanSubmit reports whether Submit would get past the validation gate. Lines
// that were never validated do not block; the server checks every VIN again.
func (w *Workflow) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.submitting {
		return false
	}
	return w.gate() == nil
}

// Submit checks every line and sends one shipment request. On success the
// workflow closes and OnShipped runs. On failure the server's error is
// returned as is and nothing changes locally.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return ErrBusy
	}
	if err := w.gate(); err != nil {
		w.mu.Unlock()
		return err
	}
	req, err := w.buildRequest()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.submitting = true
	w.mu.Unlock()

	err = w.cfg.Shipper.ShipOrder(ctx, req)
	w.cfg.Metrics.ObserveShipment(err == nil)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		w.mu.Unlock()
		w.cfg.Logger.Error("shipment rejected", zap.String("order_id", w.order.OrderID), zap.Error(err))
		return err
	}
	w.closed = true
	w.mu.Unlock()

	w.cfg.Logger.Info("order shipped",
		zap.String("order_id", w.order.OrderID),
		zap.Int("vehicles", w.order.TotalQuantity()),
	)
	if w.cfg.OnShipped != nil {
		w.cfg.OnShipped(ctx, w.order.OrderID)
	}
	return nil
}

// Close abandons the workflow. Validations still in flight resolve into
// nothing.
func (w *Workflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *Workflow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workflow) item(itemID string) (*itemState, error) {
	st, ok := w.items[itemID]
	if !ok {
		return nil, apperr.NotFound("order %s has no item %s", w.order.OrderID, itemID)
	}
	return st, nil
}

// gate must be called with mu held.
func (w *Workflow) gate() error {
	for _, id := range w.ids {
		st := w.items[id]
		switch st.State {
		case Pending:
			return apperr.Validation("VINs for variant %s are still being validated", st.VariantID)
		case Invalid:
			return apperr.Validation("variant %s has %d rejected VINs", st.VariantID, len(st.Errors))
		case Failed:
			return apperr.Validation("VINs for variant %s could not be validated, check them again", st.VariantID)
		}
	}
	return nil
}

// buildRequest must be called with mu held. The first line whose VIN count
// differs from its quantity aborts the whole shipment.
func (w *Workflow) buildRequest() (*model.ShipmentRequest, error) {
	req := &model.ShipmentRequest{
		OrderID:  w.order.OrderID,
		DealerID: w.order.DealerID,
		Items:    make([]model.ShipmentItem, 0, len(w.ids)),
	}
	owner := map[string]string{}
	for _, id := range w.ids {
		st := w.items[id]
		vins := SplitVins(st.Text)
		if len(vins) != st.Quantity {
			return nil, apperr.Validation("variant %s needs exactly %d VINs, %d entered", st.VariantID, st.Quantity, len(vins))
		}
		for _, v := range vins {
			if prev, ok := owner[v]; ok {
				return nil, apperr.Validation("VIN %s is entered for both variant %s and variant %s", v, prev, st.VariantID)
			}
			owner[v] = st.VariantID
		}
		req.Items = append(req.Items, model.ShipmentItem{VariantID: st.VariantID, Vins: vins})
	}
	return req, nil
}

func (s *itemState) snapshot() Item {
	it := s.Item
	it.Errors = make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		it.Errors[k] = v
	}
	it.Suggestions = append([]string(nil), s.Suggestions...)
	return it
}

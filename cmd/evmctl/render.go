package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/phu-boop/ev-dealer-platform/internal/allocation"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/shipment"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func renderView(out io.Writer, v *allocation.View) {
	fmt.Fprintf(out, "%s  page %d/%d  (%d orders)\n", allocation.TabLabel(v.Tab), v.Page+1, max(v.TotalPages, 1), v.TotalElements)
	if len(v.Rows) == 0 {
		fmt.Fprintln(out, "no orders")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ORDER\tDEALER\tDATE\tSTATUS\tQTY\tTOTAL\tACTIONS")
	for _, r := range v.Rows {
		actions := make([]string, len(r.Actions))
		for i, a := range r.Actions {
			actions[i] = string(a)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Order.OrderID,
			r.DealerName,
			formatDate(r.Order.OrderDate),
			r.Order.OrderStatus,
			r.Order.TotalQuantity(),
			r.Order.TotalAmount.StringFixed(0),
			strings.Join(actions, ","),
		)
	}
	tw.Flush()
}

func renderShipment(out io.Writer, items []shipment.Item, names map[string]string) {
	tw := newTable(out)
	fmt.Fprintln(tw, "VARIANT\tVINS\tSTATE")
	for _, it := range items {
		name := names[it.VariantID]
		if name == "" {
			name = it.VariantID
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%s\n", name, it.Entered(), it.Quantity, it.State)
		vins := make([]string, 0, len(it.Errors))
		for vin := range it.Errors {
			vins = append(vins, vin)
		}
		sort.Strings(vins)
		for _, vin := range vins {
			fmt.Fprintf(tw, "  %s\t%s\t\n", vin, it.Errors[vin])
		}
		if it.Err != nil {
			fmt.Fprintf(tw, "  \t%s\t\n", it.Err)
		}
	}
	tw.Flush()
}

func renderInvalidVins(out io.Writer, res *model.VinValidationResult) {
	tw := newTable(out)
	fmt.Fprintln(tw, "VIN\tREASON")
	for _, vin := range res.Rejected() {
		fmt.Fprintf(tw, "%s\t%s\n", vin, res.InvalidVins[vin])
	}
	tw.Flush()
}

func renderTransaction(out io.Writer, tx *model.Transaction) {
	fmt.Fprintf(out, "%s %s: variant %s, quantity %d\n", tx.TransactionType, tx.TransactionID, tx.VariantID, tx.Quantity)
}

func renderStock(out io.Writer, rows []dto.StockRow) {
	tw := newTable(out)
	fmt.Fprintln(tw, "VARIANT\tTOTAL\tALLOCATED\tAVAILABLE\tREORDER\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			r.DisplayName(), r.TotalQuantity, r.AllocatedQuantity, r.AvailableQuantity, r.ReorderLevel, r.Status)
	}
	tw.Flush()
}

func renderDealers(out io.Writer, dealers []model.Dealer) {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tCITY")
	for _, d := range dealers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.DealerID, d.DealerName, d.City)
	}
	tw.Flush()
}

func renderHistory(out io.Writer, records []model.ActionRecord, total int) {
	fmt.Fprintf(out, "%d actions\n", total)
	tw := newTable(out)
	fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tORDER\tOUTCOME\tMESSAGE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Actor, r.Action, r.OrderID, r.Outcome, r.Message)
	}
	tw.Flush()
}

func renderPayments(out io.Writer, records []model.PaymentRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "no pending payments")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "PAYMENT\tORDER\tAMOUNT\tMETHOD\tREFERENCE\tSUBMITTED")
	for _, p := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.PaymentID, p.OrderID, p.Amount.StringFixed(0), p.Method, p.Reference, formatDate(p.SubmittedAt))
	}
	tw.Flush()
}

func formatDate(t model.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

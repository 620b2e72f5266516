package export

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/report"
)

const (
	SummarySheet = "Summary"
	ItemsSheet   = "Items"
)

var summaryHeader = []interface{}{
	"Member", "Name", "Qualified", "Work hours", "Transport", "Meal allowance",
	"Work allowance", "Accommodation", "Expenses", "Total",
}

var itemsHeader = []interface{}{
	"Member", "Category", "Date", "Description", "Mode", "Kilometers", "Rate", "Amount",
}

// Writer renders compensation results as an XLSX workbook.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteCompensation writes one summary row per member and one line per
// reimbursed item. Members are ordered as on the report.
func (w *Writer) WriteCompensation(out io.Writer, r *report.Report, results map[string]*compensation.Result) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("failed to create items sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	if err := writeRow(f, ItemsSheet, 1, itemsHeader); err != nil {
		return err
	}
	_ = f.SetRowStyle(SummarySheet, 1, 1, headerStyle)
	_ = f.SetRowStyle(ItemsSheet, 1, 1, headerStyle)

	summaryRow, itemRow := 2, 2
	grand := decimal.Zero
	for _, memberID := range memberOrder(r, results) {
		res := results[memberID]
		if res == nil {
			continue
		}
		name := memberID
		if m, ok := r.Member(memberID); ok {
			name = m.Name
		}

		if err := writeRow(f, SummarySheet, summaryRow, []interface{}{
			memberID, name, res.Qualified, compensation.FormatHours(res.TotalHours),
			money(res.TransportTotal), money(res.MealAllowance), money(res.WorkAllowance),
			money(res.AccommodationTotal), money(res.ExpenseTotal), money(res.GrandTotal),
		}); err != nil {
			return err
		}
		summaryRow++
		grand = grand.Add(res.GrandTotal)

		for _, t := range res.Transport {
			if err := writeRow(f, ItemsSheet, itemRow, []interface{}{
				memberID, "transport", t.Date, t.From + " - " + t.To, string(t.Mode),
				money(t.Kilometers), money(t.Rate), money(t.Amount),
			}); err != nil {
				return err
			}
			itemRow++
		}
		for _, item := range res.Accommodations {
			if err := writeItem(f, itemRow, memberID, "accommodation", item); err != nil {
				return err
			}
			itemRow++
		}
		for _, item := range res.Expenses {
			if err := writeItem(f, itemRow, memberID, "expense", item); err != nil {
				return err
			}
			itemRow++
		}
	}

	if err := writeRow(f, SummarySheet, summaryRow, []interface{}{
		"", "Total", "", "", "", "", "", "", "", money(grand),
	}); err != nil {
		return err
	}
	_ = f.SetRowStyle(SummarySheet, summaryRow, summaryRow, headerStyle)
	_ = f.SetCellStyle(SummarySheet, "E2", cell("J", summaryRow), moneyStyle)
	if itemRow > 2 {
		_ = f.SetCellStyle(ItemsSheet, "F2", cell("H", itemRow-1), moneyStyle)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("compensation workbook written",
		"report_id", r.ID,
		"members", summaryRow-2,
		"items", itemRow-2)
	return nil
}

func writeItem(f *excelize.File, row int, memberID, category string, item compensation.ItemEntry) error {
	return writeRow(f, ItemsSheet, row, []interface{}{
		memberID, category, item.Date, item.Description, "", nil, nil, money(item.Amount),
	})
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// memberOrder lists team members first, then any result without a team entry.
func memberOrder(r *report.Report, results map[string]*compensation.Result) []string {
	seen := make(map[string]bool, len(results))
	order := make([]string, 0, len(results))
	for _, id := range r.MemberIDs() {
		if _, ok := results[id]; ok {
			order = append(order, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range results {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the booking rows.
const SheetName = "Bookings"

var headers = []string{"ID", "Item", "Booker", "Start", "End", "Status"}

var statusColors = map[models.BookingStatus]string{
	models.StatusWaiting:  "#FFF2CC",
	models.StatusApproved: "#E2EFDA",
	models.StatusRejected: "#F8CBAD",
}

// WriteBookings renders bookings as an xlsx workbook with one row per booking.
func WriteBookings(w io.Writer, bookings []*models.Booking) error {
	f, err := build(bookings)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveBookings writes the owner's bookings into dir and returns the file path.
func SaveBookings(dir string, ownerID int64, bookings []*models.Booking, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := build(bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, FileName(ownerID, now))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

// FileName is the download name of an owner's export.
func FileName(ownerID int64, now time.Time) string {
	return fmt.Sprintf("bookings_owner_%d_%s.xlsx", ownerID, now.Format("2006-01-02"))
}

func build(bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	if err := writeHeaders(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	styles := make(map[models.BookingStatus]int, len(statusColors))
	for status, color := range statusColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		styles[status] = style
	}

	for i, b := range bookings {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			b.ID,
			itemName(b),
			bookerName(b),
			b.Start.Format(models.DateTimeLayout),
			b.End.Format(models.DateTimeLayout),
			string(b.Status),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}

		if style, ok := styles[b.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(SheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "C", 25)
	_ = f.SetColWidth(SheetName, "D", "F", 20)

	return f, nil
}

func writeHeaders(f *excelize.File) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &row); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(SheetName, "A1", last, style)
}

func itemName(b *models.Booking) string {
	if b.Item == nil {
		return fmt.Sprintf("item #%d", b.ItemID)
	}
	return b.Item.Name
}

func bookerName(b *models.Booking) string {
	if b.Booker == nil {
		return fmt.Sprintf("user #%d", b.BookerID)
	}
	return b.Booker.Name
}

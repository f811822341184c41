// Package export выгружает расписание тренера в Excel
package export

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Schedule"

var headers = []string{"Date", "Start", "End", "Status", "Reserved by", "Reserved at"}

// WeekSchedule строит xlsx с одной строкой на слот недели, начиная с weekStart.
// Время выводится в часовом поясе loc.
func WeekSchedule(coachName string, weekStart time.Time, loc *time.Location, slots []*model.Slot) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	weekStart = weekStart.In(loc)
	weekEnd := weekStart.AddDate(0, 0, 6)
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		coachName, weekStart.Format("02.01.2006"), weekEnd.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "F1")

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A2", "F2", headerStyle)
	}

	reservedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})
	openStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
	})

	row := 3
	for _, slot := range slots {
		start := slot.StartTime.In(loc)
		values := []any{
			start.Format("Mon 02.01"),
			start.Format("15:04"),
			slot.EndTime.In(loc).Format("15:04"),
			string(slot.Status),
			"",
			"",
		}
		if slot.ReservedBy != nil {
			values[4] = *slot.ReservedBy
		}
		if slot.ReservedAt != nil {
			values[5] = slot.ReservedAt.In(loc).Format("02.01.2006 15:04")
		}

		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, first, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		last, _ := excelize.CoordinatesToCellName(len(headers), row)
		style := openStyle
		if !slot.IsOpen() {
			style = reservedStyle
		}
		_ = f.SetCellStyle(sheetName, first, last, style)
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "D", 14)
	_ = f.SetColWidth(sheetName, "E", "F", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName имя файла выгрузки недели
func FileName(weekStart time.Time) string {
	return fmt.Sprintf("schedule_%s.xlsx", weekStart.Format("2006-01-02"))
}

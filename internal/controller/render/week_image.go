// Package render рисует недельное расписание тренера картинкой для бота
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 16.0
	slotTimeFontSize   = 15.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotOpenColor         = color.RGBA{133, 193, 85, 220}
	slotReservedColor     = color.RGBA{255, 182, 193, 255}
	slotTextColor         = color.RGBA{20, 24, 28, 230}
	slotReservedTextColor = color.RGBA{120, 40, 50, 255}
	slotShadowColor       = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
)

// setFont выбирает шрифт Go нужного размера, при ошибке basicfont
func setFont(dc *gg.Context, size float64, bold bool) {
	fontsOnce.Do(func() {
		regularFont, _ = opentype.Parse(goregular.TTF)
		boldFont, _ = opentype.Parse(gobold.TTF)
	})

	f := regularFont
	if bold {
		f = boldFont
	}
	if f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// WeekImage рисует PNG с неделей, начинающейся в weekStart. Слоты раскладываются по дням в часовом поясе loc.
func WeekImage(weekStart time.Time, loc *time.Location, slots []*model.Slot, now time.Time) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	weekStart = weekStart.In(loc)
	now = now.In(loc)

	today := normalizeToDay(now)
	highlightToday := !today.Before(weekStart) && today.Before(weekStart.AddDate(0, 0, totalDaysInWeek))

	slotsByDay := groupSlotsByDay(slots, loc)
	hours := calculateHourRange(slots, loc)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, weekStart)
	drawHourLabels(dc, hours, cellHeight)

	day := weekStart
	for i := 0; i < totalDaysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, highlightToday && day.Equal(today))
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, slot := range slotsByDay[day.Format(time.DateOnly)] {
			drawSlot(dc, slot, loc, x, y, dayWidth, hours, cellHeight)
		}

		day = day.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func groupSlotsByDay(slots []*model.Slot, loc *time.Location) map[string][]*model.Slot {
	byDay := make(map[string][]*model.Slot)
	for _, slot := range slots {
		key := slot.StartTime.In(loc).Format(time.DateOnly)
		byDay[key] = append(byDay[key], slot)
	}
	return byDay
}

// calculateHourRange диапазон часов, покрывающий все слоты, с отступом в час сверху и снизу
func calculateHourRange(slots []*model.Slot, loc *time.Location) hourRange {
	minHour, maxHour := 24, 0

	for _, slot := range slots {
		start := slot.StartTime.In(loc)
		end := slot.EndTime.In(loc)

		startH := start.Hour()
		endH := end.Hour()
		if end.Minute() > 0 {
			endH++
		}
		// слот через полночь рисуем до конца дня
		if !normalizeToDay(end).Equal(normalizeToDay(start)) {
			endH = 24
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)
	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, weekStart time.Time) {
	weekEnd := weekStart.AddDate(0, 0, totalDaysInWeek-1)

	title := weekStart.Format("January 2") + " - " + weekEnd.Format("January 2, 2006")
	setFont(dc, titleFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	setFont(dc, hourLabelFontSize, false)
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	setFont(dc, dayFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(date.Format("Mon"), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, slot *model.Slot, loc *time.Location, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	start := slot.StartTime.In(loc)
	startHour := float64(start.Hour()) + float64(start.Minute())/60
	endHour := startHour + slot.Duration().Hours()
	endHour = min(endHour, float64(hours.end))

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := max((endHour-startHour)*cellHeight, minSlotHeight)

	fill, txt := slotOpenColor, slotTextColor
	if !slot.IsOpen() {
		fill, txt = slotReservedColor, slotReservedTextColor
	}
	slotWidth := float64(dayWidth) - dayPaddingX*2

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	setFont(dc, slotTimeFontSize, true)
	dc.SetColor(txt)
	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(start.Format("15:04"), txtX, txtY, 0, 0)

	if slot.ReservedBy != nil && slotHeight > 25 {
		setFont(dc, slotTimeFontSize-3, false)
		dc.DrawStringAnchored(truncate(*slot.ReservedBy, 18), txtX, txtY+16, 0, 0)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine красная линия текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Open", slotOpenColor},
		{"Reserved", slotReservedColor},
	}

	const boxW, boxH = 20.0, 14.0
	x := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 78.0

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		setFont(dc, legendItemFontSize, false)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}

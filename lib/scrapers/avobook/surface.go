package avobook

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gymwatch-backend/lib/booking"
	"gymwatch-backend/lib/slottext"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// surface is one logged-in booking page. The site renders everything
// server side, so "controls" are fragments addressed with query
// parameters on the booking path and the only state kept here is which
// calendar page is showing and which day was picked.
type surface struct {
	client   *Client
	bookPath string
	page     *goquery.Document

	picker       *pickerState
	selectedDate string
	closed       bool
}

type pickerState struct {
	year  int
	month time.Month
	doc   *goquery.Document
}

func (s *surface) SelectDuration(ctx context.Context, label string) error {
	ctx, span := tracer.Start(ctx, "surface:SelectDuration")
	defer span.End()

	sel := s.page.Find("select[name=duration]")
	if sel.Length() == 0 {
		err := fmt.Errorf("duration control: %w", booking.ErrControlMissing)
		span.RecordError(err)
		span.SetStatus(codes.Error, "duration control missing")
		return err
	}

	want := slottext.Normalize(label)
	value := ""
	found := false
	sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if slottext.Normalize(opt.Text()) == want {
			value = opt.AttrOr("value", strings.TrimSpace(opt.Text()))
			found = true
			return false
		}
		return true
	})
	if !found {
		err := fmt.Errorf("duration option %q: %w", label, booking.ErrControlMissing)
		span.RecordError(err)
		span.SetStatus(codes.Error, "duration option missing")
		return err
	}

	res, err := s.client.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"duration": value}).
		Post(s.bookPath)
	if err != nil {
		err = requestError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit duration")
		return err
	}
	if res.StatusCode() >= 400 {
		err := fmt.Errorf("POST %s: status %d", s.bookPath, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "duration submit rejected")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse duration response")
		return err
	}
	s.page = doc

	slog.DebugContext(ctx, "selected duration", "label", label, "value", value)
	return nil
}

func (s *surface) OpenDatePicker(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "surface:OpenDatePicker")
	defer span.End()

	doc, err := s.client.getPage(ctx, s.bookPath, map[string]string{"view": "calendar"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch calendar")
		return err
	}
	picker, err := parsePicker(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse calendar")
		return err
	}

	s.picker = picker
	return nil
}

func parsePicker(doc *goquery.Document) (*pickerState, error) {
	cal := doc.Find("div#datepicker table.calendar")
	if cal.Length() == 0 {
		return nil, fmt.Errorf("date picker: %w", booking.ErrControlMissing)
	}
	year, err := strconv.Atoi(cal.AttrOr("data-year", ""))
	if err != nil {
		return nil, fmt.Errorf("calendar year attribute: %w", err)
	}
	month, err := strconv.Atoi(cal.AttrOr("data-month", ""))
	if err != nil {
		return nil, fmt.Errorf("calendar month attribute: %w", err)
	}
	return &pickerState{
		year:  year,
		month: time.Month(month),
		doc:   doc,
	}, nil
}

func (s *surface) SetYear(ctx context.Context, year int) error {
	ctx, span := tracer.Start(ctx, "surface:SetYear")
	defer span.End()

	if s.picker == nil {
		return fmt.Errorf("date picker is not open")
	}
	err := s.position(ctx, year, s.picker.month)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to position calendar year")
	}
	return err
}

func (s *surface) SetMonth(ctx context.Context, month time.Month) error {
	ctx, span := tracer.Start(ctx, "surface:SetMonth")
	defer span.End()

	if s.picker == nil {
		return fmt.Errorf("date picker is not open")
	}
	err := s.position(ctx, s.picker.year, month)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to position calendar month")
	}
	return err
}

func (s *surface) position(ctx context.Context, year int, month time.Month) error {
	doc, err := s.client.getPage(ctx, s.bookPath, map[string]string{
		"view":  "calendar",
		"year":  strconv.Itoa(year),
		"month": strconv.Itoa(int(month)),
	})
	if err != nil {
		return err
	}
	picker, err := parsePicker(doc)
	if err != nil {
		return err
	}
	if picker.year != year || picker.month != month {
		return fmt.Errorf(
			"calendar would not move to %04d-%02d, stayed on %04d-%02d: %w",
			year, month, picker.year, picker.month, booking.ErrControlMissing,
		)
	}

	s.picker = picker
	return nil
}

func (s *surface) SelectDay(ctx context.Context, sel booking.DaySelector) error {
	ctx, span := tracer.Start(ctx, "surface:SelectDay")
	defer span.End()

	if s.picker == nil {
		return fmt.Errorf("date picker is not open")
	}

	dayStr := strconv.Itoa(sel.Day)
	var href, date string
	found := false
	s.picker.doc.Find("div#datepicker table.calendar td[data-day]").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if cell.AttrOr("data-day", "") != dayStr {
			return true
		}
		if cell.HasClass("disabled") {
			return true
		}
		if !sel.IncludeAdjacentMonths {
			cellMonth, err := strconv.Atoi(cell.AttrOr("data-month", ""))
			if err != nil || time.Month(cellMonth) != s.picker.month {
				return true
			}
		}
		href = cell.Find("a").AttrOr("href", "")
		date = cell.AttrOr("data-date", "")
		found = true
		return false
	})
	if !found {
		err := fmt.Errorf("no selectable cell for day %d in %04d-%02d", sel.Day, s.picker.year, s.picker.month)
		span.RecordError(err)
		span.SetStatus(codes.Error, "day cell not found")
		return err
	}
	if href == "" || date == "" {
		err := fmt.Errorf("cell for day %d has no booking link", sel.Day)
		span.RecordError(err)
		span.SetStatus(codes.Error, "day cell not clickable")
		return err
	}

	path, query, err := s.client.relativePath(href)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse day link")
		return err
	}
	if path == "" {
		path = s.bookPath
	}
	doc, err := s.client.getPage(ctx, path, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to follow day link")
		return err
	}

	s.page = doc
	s.selectedDate = date

	slog.DebugContext(ctx, "selected day", "date", date)
	return nil
}

func (s *surface) ReadSlotLabels(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "surface:ReadSlotLabels")
	defer span.End()

	if s.selectedDate == "" {
		return nil, fmt.Errorf("no day is selected")
	}

	doc, err := s.client.getPage(ctx, s.bookPath, map[string]string{"view": "timeslots"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch slot list")
		return nil, err
	}

	list := doc.Find("div#timeslots")
	if list.Length() == 0 {
		err := fmt.Errorf("slot list: %w", booking.ErrControlMissing)
		span.RecordError(err)
		span.SetStatus(codes.Error, "slot list missing")
		return nil, err
	}
	if list.AttrOr("data-state", "") == "loading" {
		err := fmt.Errorf("slot list still loading: %w", booking.ErrStaleControl)
		span.RecordError(err)
		return nil, err
	}
	if got := list.AttrOr("data-date", ""); got != s.selectedDate {
		err := fmt.Errorf("slot list is still showing %q: %w", got, booking.ErrStaleControl)
		span.RecordError(err)
		return nil, err
	}

	var labels []string
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if text != "" {
			labels = append(labels, text)
		}
	})

	slog.DebugContext(ctx, "read slot labels", "date", s.selectedDate, "count", len(labels))
	return labels, nil
}

func (s *surface) Close(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "surface:Close")
	defer span.End()

	if s.closed {
		return nil
	}
	s.closed = true

	res, err := s.client.Http.R().
		SetContext(ctx).
		Post("/Account/Logout")
	if err != nil {
		err = requestError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to logout")
		return err
	}
	if res.StatusCode() >= 400 {
		err := fmt.Errorf("POST /Account/Logout: status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "logout rejected")
		return err
	}

	return nil
}

// relativePath strips the tenant prefix from an on-site link so it can
// be passed back through the client's base url.
func (c *Client) relativePath(href string) (string, map[string]string, error) {
	link, err := url.Parse(href)
	if err != nil {
		return "", nil, err
	}

	path := link.EscapedPath()
	base := c.BaseUrl.EscapedPath()
	if base != "" && base != "/" && strings.HasPrefix(path, base) {
		path = strings.TrimPrefix(path, base)
	}

	query := map[string]string{}
	for key := range link.Query() {
		query[key] = link.Query().Get(key)
	}
	return path, query, nil
}

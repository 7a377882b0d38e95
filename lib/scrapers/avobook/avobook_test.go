package avobook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gymwatch-backend/lib/booking"
	"gymwatch-backend/lib/telemetry"
	"gymwatch-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

// fakeSite is a minimal in-memory rendition of the booking site: cookie
// wall, login form, duration form, calendar partial and a slot fragment
// that reports "loading" for a configurable number of polls after a day
// is picked.
type fakeSite struct {
	mu sync.Mutex

	username string
	password string
	// slot labels per ISO date, absent dates render the placeholder
	slots map[string][]string
	// how many slot fragment reads return loading after a day select
	loadingPolls int

	defaultYear  int
	defaultMonth time.Month

	consentCount   int
	loginCount     int
	duration       string
	selectedDate   string
	pendingLoading int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		username:     "user@example.com",
		password:     "hunter2",
		slots:        map[string][]string{},
		defaultYear:  2024,
		defaultMonth: time.August,
	}
}

func (f *fakeSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/CookieConsent", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.consentCount++
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "consent", Value: "1", Path: "/"})
	})
	mux.HandleFunc("/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.loginCount++
		if r.FormValue("__RequestVerificationToken") == "" {
			http.Error(w, "missing token", http.StatusBadRequest)
			return
		}
		if r.FormValue("username") != f.username || r.FormValue("password") != f.password {
			fmt.Fprint(w, `<html><body>`+loginForm+`<div class="validation-summary-errors">Onjuiste gebruikersnaam of wachtwoord</div></body></html>`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "avosession", Value: "ok", Path: "/"})
		fmt.Fprint(w, `<html><body>Welkom</body></html>`)
	})
	mux.HandleFunc("/Account/Logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "avosession", Value: "", Path: "/", MaxAge: -1})
	})
	mux.HandleFunc("/Accommodation/Book/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("consent"); err != nil {
			fmt.Fprint(w, `<html><body><form id="cookie-consent" action="/CookieConsent">Wij gebruiken cookies</form></body></html>`)
			return
		}
		if _, err := r.Cookie("avosession"); err != nil {
			fmt.Fprint(w, `<html><body>`+loginForm+`</body></html>`)
			return
		}
		f.bookPage(w, r)
	})
	return mux
}

const loginForm = `<form id="login-form" action="/Account/Login" method="post">
<input type="hidden" name="__RequestVerificationToken" value="tok123"/>
<input name="username"/><input name="password" type="password"/>
<button type="submit">Inloggen</button>
</form>`

func (f *fakeSite) bookPage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodPost {
		f.duration = r.FormValue("duration")
	}
	if date := r.URL.Query().Get("date"); date != "" {
		f.selectedDate = date
		f.pendingLoading = f.loadingPolls
	}

	switch r.URL.Query().Get("view") {
	case "calendar":
		year, month := f.defaultYear, f.defaultMonth
		if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
			if y >= 2024 && y <= 2025 {
				year = y
			}
		}
		if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		}
		fmt.Fprint(w, renderCalendar(r.URL.Path, year, month))
	case "timeslots":
		if f.pendingLoading > 0 {
			f.pendingLoading--
			fmt.Fprint(w, `<html><body><div id="timeslots" data-state="loading"></div></body></html>`)
			return
		}
		labels, ok := f.slots[f.selectedDate]
		if !ok {
			labels = []string{"Geen tijden beschikbaar"}
		}
		var items strings.Builder
		for _, l := range labels {
			fmt.Fprintf(&items, `<li>%s</li>`, l)
		}
		fmt.Fprintf(
			w,
			`<html><body><div id="timeslots" data-date="%s"><ul>%s</ul></div></body></html>`,
			f.selectedDate, items.String(),
		)
	default:
		fmt.Fprint(w, `<html><body>
<label>Hoe lang wilt u reserveren?</label>
<select name="duration">
<option value="60">1 uur</option>
<option value="90">1,5 uur</option>
<option value="120">2 uur</option>
</select>
</body></html>`)
	}
}

// renderCalendar emits a monday-anchored month grid with padding cells
// from the adjacent months, the way the real picker does.
func renderCalendar(path string, year int, month time.Month) string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, timezone.Location)
	offset := (int(first.Weekday()) + 6) % 7
	cursor := first.AddDate(0, 0, -offset)

	var cells strings.Builder
	for week := 0; week < 6; week++ {
		cells.WriteString("<tr>")
		for day := 0; day < 7; day++ {
			iso := cursor.Format("2006-01-02")
			fmt.Fprintf(
				&cells,
				`<td data-day="%d" data-month="%d" data-date="%s"><a href="%s?date=%s">%d</a></td>`,
				cursor.Day(), int(cursor.Month()), iso, path, iso, cursor.Day(),
			)
			cursor = cursor.AddDate(0, 0, 1)
		}
		cells.WriteString("</tr>")
	}

	return fmt.Sprintf(
		`<html><body><div id="datepicker"><table class="calendar" data-year="%d" data-month="%d">%s</table></div></body></html>`,
		year, int(month), cells.String(),
	)
}

func setup(t *testing.T, site *fakeSite, opts Options) (booking.Surface, *Client) {
	cleanup := telemetry.SetupForTesting(t, "test:avobook")
	t.Cleanup(cleanup)

	server := httptest.NewServer(site.handler())
	t.Cleanup(server.Close)

	opts.BaseUrl = server.URL
	if opts.Username == "" {
		opts.Username = site.username
		opts.Password = site.password
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	t.Cleanup(cancel)

	client, err := NewClient(ctx, opts)
	require.NoError(t, err)
	sfc, err := client.OpenSurface(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		sfc.Close(context.Background())
	})
	return sfc, client
}

func TestScanFlow(t *testing.T) {
	site := newFakeSite()
	site.loadingPolls = 1
	site.slots["2024-09-09"] = []string{"18:30 - 20:00", "20:00 - 21:30"}

	sfc, _ := setup(t, site, Options{BookPath: "/Accommodation/Book/106"})
	ctx := context.Background()

	require.Equal(t, 1, site.loginCount)
	require.GreaterOrEqual(t, site.consentCount, 1)

	require.NoError(t, sfc.SelectDuration(ctx, "1,5 uur"))
	require.Equal(t, "90", site.duration)

	err := sfc.SelectDuration(ctx, "3 uur")
	require.ErrorIs(t, err, booking.ErrControlMissing)

	require.NoError(t, sfc.OpenDatePicker(ctx))
	require.NoError(t, sfc.SetYear(ctx, 2024))
	require.NoError(t, sfc.SetMonth(ctx, time.September))
	require.NoError(t, sfc.SelectDay(ctx, booking.DaySelector{Day: 9}))

	// the fragment swaps asynchronously, first read hits the old state
	_, err = sfc.ReadSlotLabels(ctx)
	require.ErrorIs(t, err, booking.ErrStaleControl)

	labels, err := sfc.ReadSlotLabels(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"18:30 - 20:00", "20:00 - 21:30"}, labels)

	// a date without availability renders the placeholder row
	require.NoError(t, sfc.OpenDatePicker(ctx))
	require.NoError(t, sfc.SetMonth(ctx, time.September))
	require.NoError(t, sfc.SelectDay(ctx, booking.DaySelector{Day: 10}))
	_, err = sfc.ReadSlotLabels(ctx)
	require.ErrorIs(t, err, booking.ErrStaleControl)
	labels, err = sfc.ReadSlotLabels(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Geen tijden beschikbaar"}, labels)

	require.NoError(t, sfc.Close(ctx))
	require.NoError(t, sfc.Close(ctx))
}

func TestSelectDaySkipsAdjacentMonths(t *testing.T) {
	site := newFakeSite()

	sfc, _ := setup(t, site, Options{BookPath: "/Accommodation/Book/106"})
	ctx := context.Background()

	// september 2024 starts on a sunday, so the grid leads with padding
	// cells from august, among them august 30th
	require.NoError(t, sfc.OpenDatePicker(ctx))
	require.NoError(t, sfc.SetYear(ctx, 2024))
	require.NoError(t, sfc.SetMonth(ctx, time.September))
	require.NoError(t, sfc.SelectDay(ctx, booking.DaySelector{Day: 30}))

	labels, err := sfc.ReadSlotLabels(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, labels)
	require.Equal(t, "2024-09-30", site.selectedDate)
}

func TestSetYearOutOfRange(t *testing.T) {
	site := newFakeSite()

	sfc, _ := setup(t, site, Options{BookPath: "/Accommodation/Book/106"})
	ctx := context.Background()

	require.NoError(t, sfc.OpenDatePicker(ctx))
	err := sfc.SetYear(ctx, 2030)
	require.ErrorIs(t, err, booking.ErrControlMissing)
}

func TestLoginFailed(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:avobook")
	defer cleanup()

	site := newFakeSite()
	server := httptest.NewServer(site.handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	client, err := NewClient(ctx, Options{
		BaseUrl:  server.URL,
		Username: site.username,
		Password: "wrong",
		BookPath: "/Accommodation/Book/106",
	})
	require.NoError(t, err)

	_, err = client.OpenSurface(ctx)
	require.ErrorIs(t, err, LoginFailed)
}

func TestFacilityResolution(t *testing.T) {
	site := newFakeSite()
	base := site.handler()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("consent"); err != nil {
			fmt.Fprint(w, `<html><body><form id="cookie-consent" action="/CookieConsent"></form></body></html>`)
			return
		}
		if _, err := r.Cookie("avosession"); err != nil {
			fmt.Fprint(w, `<html><body>`+loginForm+`</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>
<div class="accommodations">
<a href="/Accommodation/Book/105">Sporthal De Scheg</a>
<a href="/Accommodation/Book/106">Brede School Legmeer / Gymzaal A</a>
</div>
</body></html>`)
	})
	mux.Handle("/CookieConsent", base)
	mux.Handle("/Account/", base)
	mux.Handle("/Accommodation/Book/", base)

	cleanup := telemetry.SetupForTesting(t, "test:avobook")
	defer cleanup()

	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	// case differences are fine, resolution normalizes both sides
	client, err := NewClient(ctx, Options{
		BaseUrl:  server.URL,
		Username: site.username,
		Password: site.password,
		Facility: "brede school legmeer / GYMZAAL A",
	})
	require.NoError(t, err)
	sfc, err := client.OpenSurface(ctx)
	require.NoError(t, err)
	require.NoError(t, sfc.SelectDuration(ctx, "1,5 uur"))
	require.NoError(t, sfc.Close(ctx))

	// an unknown facility must not silently fall back to a wrong one
	client, err = NewClient(ctx, Options{
		BaseUrl:  server.URL,
		Username: site.username,
		Password: site.password,
		Facility: "Zwembad De Otter",
	})
	require.NoError(t, err)
	_, err = client.OpenSurface(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Zwembad De Otter")
}

// Package avobook drives an AVO style accommodation booking site over
// plain HTTP. The site is server rendered: the booking page for a
// facility carries a reservation duration form, a calendar partial
// addressed with view/year/month query parameters and a time slot
// fragment that the server fills in asynchronously after a day is
// picked. The package implements the booking.Opener and
// booking.Surface interfaces on top of that page structure.
package avobook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http/cookiejar"
	"net/url"
	"time"

	"gymwatch-backend/lib/booking"
	"gymwatch-backend/lib/htmlutil"
	"gymwatch-backend/lib/restyutil"
	"gymwatch-backend/lib/telemetry"
	"gymwatch-backend/lib/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/avobook")

var LoginFailed = fmt.Errorf("Failed to sign in to the booking site.")

// facility names come from humans, exact matches are preferred but a
// close one is accepted
const facilityMatchFloor = 0.85

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	options Options
}

type Options struct {
	// tenant root, e.g. https://avo.example.nl/uithoorn
	BaseUrl  string
	Username string
	Password string
	// direct path of the facility's booking page, skips the facility
	// search when set
	BookPath string
	// facility display name, resolved against the booking anchors on
	// the accommodation pages
	Facility string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/avobook/http")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		options: opts,
	}
	return c, nil
}

// requestError rebrands transport timeouts so callers can tell a slow
// site from a broken one.
func requestError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", booking.ErrWaitTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", booking.ErrWaitTimeout, err)
	}
	return err
}

// getPage fetches a path and deals with the cookie consent
// interstitial the site serves to fresh sessions.
func (c *Client) getPage(ctx context.Context, path string, query map[string]string) (*goquery.Document, error) {
	doc, err := c.getPageOnce(ctx, path, query)
	if err != nil {
		return nil, err
	}

	consent := doc.Find("form#cookie-consent")
	if consent.Length() == 0 {
		return doc, nil
	}

	err = c.acceptCookies(ctx, consent)
	if err != nil {
		return nil, err
	}
	return c.getPageOnce(ctx, path, query)
}

func (c *Client) getPageOnce(ctx context.Context, path string, query map[string]string) (*goquery.Document, error) {
	req := c.Http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	res, err := req.Get(path)
	if err != nil {
		return nil, requestError(err)
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", path, res.StatusCode())
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

func (c *Client) acceptCookies(ctx context.Context, consent *goquery.Selection) error {
	ctx, span := tracer.Start(ctx, "client:acceptCookies")
	defer span.End()

	action := consent.AttrOr("action", "/CookieConsent")
	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"accept": "true"}).
		Post(action)
	if err != nil {
		err = requestError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to accept cookies")
		return err
	}
	if res.StatusCode() >= 400 {
		err := fmt.Errorf("POST %s: status %d", action, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "cookie consent rejected")
		return err
	}

	return nil
}

func isLoginPage(doc *goquery.Document) bool {
	return doc.Find("form#login-form").Length() > 0
}

func (c *Client) login(ctx context.Context, doc *goquery.Document, target string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:login")
	defer span.End()

	form := doc.Find("form#login-form")
	token := form.Find("input[name=__RequestVerificationToken]").AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, "failed to find login token")
		return nil, fmt.Errorf("could not find login token")
	}
	action := form.AttrOr("action", "/Account/Login")

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"__RequestVerificationToken": token,
			"username":                   c.options.Username,
			"password":                   c.options.Password,
		}).
		Post(action)
	if err != nil {
		err = requestError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return nil, err
	}
	resDoc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login response html")
		return nil, err
	}
	if resDoc.Find(".validation-summary-errors").Length() > 0 || isLoginPage(resDoc) {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return nil, LoginFailed
	}

	return c.getPage(ctx, target, nil)
}

// selectFacility narrows a complex's booking page down to the
// configured room by following the closest matching booking anchor.
func (c *Client) selectFacility(ctx context.Context, doc *goquery.Document) (*goquery.Document, string, error) {
	ctx, span := tracer.Start(ctx, "client:selectFacility")
	defer span.End()

	anchors := htmlutil.GetAnchors(ctx, doc.Find("a[href*='/Accommodation/Book/']"))
	if len(anchors) == 0 {
		err := fmt.Errorf("no facility booking links on page")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	target := textutil.NormalizeName(c.options.Facility)

	var matched htmlutil.Anchor
	found := false
	for _, a := range anchors {
		if textutil.NormalizeName(a.Name) == target {
			matched = a
			found = true
			break
		}
	}
	if !found {
		var bestScore float64
		for _, a := range anchors {
			score := matchr.JaroWinkler(textutil.NormalizeName(a.Name), target, false)
			if score > bestScore {
				bestScore = score
				matched = a
			}
		}
		if bestScore < facilityMatchFloor {
			err := fmt.Errorf("facility %q not found, best candidate %q", c.options.Facility, matched.Name)
			span.RecordError(err)
			span.SetStatus(codes.Error, "facility not found")
			return nil, "", err
		}
		slog.WarnContext(ctx, "facility matched fuzzily", "want", c.options.Facility, "got", matched.Name, "score", bestScore)
	}

	path, query, err := c.relativePath(matched.Href)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse facility link")
		return nil, "", err
	}

	next, err := c.getPage(ctx, path, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open facility page")
		return nil, "", err
	}
	return next, path, nil
}

func (c *Client) OpenSurface(ctx context.Context) (booking.Surface, error) {
	ctx, span := tracer.Start(ctx, "client:OpenSurface")
	defer span.End()

	bookPath := c.options.BookPath
	if bookPath == "" {
		bookPath = "/"
	}

	doc, err := c.getPage(ctx, bookPath, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open booking page")
		return nil, err
	}

	if isLoginPage(doc) {
		doc, err = c.login(ctx, doc, bookPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to login")
			return nil, err
		}
	}

	if c.options.Facility != "" {
		doc, bookPath, err = c.selectFacility(ctx, doc)
		if err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "opened booking surface", "path", bookPath)
	return &surface{
		client:   c,
		bookPath: bookPath,
		page:     doc,
	}, nil
}

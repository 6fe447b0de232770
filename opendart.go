package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	VERSION = "0.1.0"

	// DefaultBaseURL is the OpenDART API host.
	DefaultBaseURL = "https://opendart.fss.or.kr"

	// StatusOK and StatusNoData are OpenDART result codes.
	StatusOK     = "000"
	StatusNoData = "013"
)

// ErrNoData is returned when OpenDART has nothing for the request (status 013).
var ErrNoData = eris.New("dart: no data for request")

// ClientOptions configures the OpenDART client.
type ClientOptions struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int           // retries after the first attempt; 0 means 3, negative means none
	RequestsPerSecond float64
	FSDiv             string        // CFS (consolidated) or OFS (separate)
	MaxDocumentBytes  int64         // guard for extracted XBRL instances
	BackoffBase       time.Duration // first retry delay, doubled per attempt
}

// Client talks to the OpenDART API with rate limiting and retries.
type Client struct {
	http    *http.Client
	opts    ClientOptions
	limiter *rate.Limiter
}

// NewClient creates a Client, filling unset options with defaults.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = 3
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.FSDiv == "" {
		opts.FSDiv = "CFS"
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	burst := int(math.Ceil(opts.RequestsPerSecond))
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
	}
}

// AccountRow is one line of the fnlttSinglAcntAll response.
type AccountRow struct {
	ReceiptNo        string `json:"rcept_no"`
	ReportCode       string `json:"reprt_code"`
	BusinessYear     string `json:"bsns_year"`
	CorpCode         string `json:"corp_code"`
	StatementDiv     string `json:"sj_div"` // BS, IS, CIS, CF, SCE
	StatementName    string `json:"sj_nm"`
	AccountID        string `json:"account_id"`
	AccountName      string `json:"account_nm"`
	CurrentName      string `json:"thstrm_nm"`
	CurrentAmount    string `json:"thstrm_amount"`
	CumulativeAmount string `json:"thstrm_add_amount"` // empty in annual reports
	Order            string `json:"ord"`
	Currency         string `json:"currency"`
}

// Current returns the row's current-period amount as an account line.
func (r AccountRow) Current() AccountLine {
	return AccountLine{Name: r.AccountName, Amount: ParseAmount(r.CurrentAmount)}
}

// Cumulative returns the year-to-date amount, or the current-period amount
// when the row has no cumulative column.
func (r AccountRow) Cumulative() AccountLine {
	if v, ok := LookupAmount(r.CumulativeAmount); ok {
		return AccountLine{Name: r.AccountName, Amount: v}
	}
	return r.Current()
}

// IncomeRows keeps the income statement rows. Filers presenting a single
// statement of comprehensive income report it under CIS only.
func IncomeRows(rows []AccountRow) []AccountRow {
	var is, cis []AccountRow
	for _, r := range rows {
		switch r.StatementDiv {
		case "IS":
			is = append(is, r)
		case "CIS":
			cis = append(cis, r)
		}
	}
	if len(is) > 0 {
		return is
	}
	return cis
}

type accountsResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	List    []AccountRow `json:"list"`
}

type statusResult struct {
	Status  string `xml:"status"`
	Message string `xml:"message"`
}

func statusError(status, message string) error {
	if status == StatusNoData {
		return eris.Wrapf(ErrNoData, "dart: %s", message)
	}
	return eris.Errorf("dart: api status %s: %s", status, message)
}

// FetchAccounts returns every account row of one periodic report.
func (c *Client) FetchAccounts(ctx context.Context, corpCode string, year int, report ReportType) ([]AccountRow, error) {
	body, err := c.get(ctx, "/api/fnlttSinglAcntAll.json", url.Values{
		"corp_code":  {corpCode},
		"bsns_year":  {strconv.Itoa(year)},
		"reprt_code": {report.Code()},
		"fs_div":     {c.opts.FSDiv},
	})
	if err != nil {
		return nil, err
	}

	var resp accountsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "dart: decode accounts response")
	}
	if resp.Status != StatusOK {
		return nil, statusError(resp.Status, resp.Message)
	}
	return resp.List, nil
}

// FetchDocument downloads the XBRL archive of a filing and returns the
// instance document inside it, with its file name.
func (c *Client) FetchDocument(ctx context.Context, receiptNo string, report ReportType) ([]byte, string, error) {
	body, err := c.get(ctx, "/api/fnlttXbrl.xml", url.Values{
		"rcept_no":   {receiptNo},
		"reprt_code": {report.Code()},
	})
	if err != nil {
		return nil, "", err
	}
	if err := checkStatusXML(body); err != nil {
		return nil, "", err
	}
	return extractInstance(body, c.opts.MaxDocumentBytes)
}

// FetchCorpCodes downloads the company registry.
func (c *Client) FetchCorpCodes(ctx context.Context) (*CorpRegistry, error) {
	body, err := c.get(ctx, "/api/corpCode.xml", url.Values{})
	if err != nil {
		return nil, err
	}
	if err := checkStatusXML(body); err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, eris.Wrap(err, "dart: open corp code archive")
	}
	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrap(err, "dart: open corp code file")
		}
		defer rc.Close() //nolint:errcheck
		return ParseCorpCodes(rc)
	}
	return nil, eris.New("dart: corp code archive has no xml file")
}

// checkStatusXML turns an XML status reply (sent instead of a zip archive
// when a request fails) into an error.
func checkStatusXML(body []byte) error {
	if isZip(body) {
		return nil
	}
	var res statusResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return eris.Wrap(err, "dart: unexpected non-archive response")
	}
	if res.Status == StatusOK {
		return eris.New("dart: status ok but no archive returned")
	}
	return statusError(res.Status, res.Message)
}

func isZip(body []byte) bool {
	return len(body) >= 4 && bytes.Equal(body[:4], []byte("PK\x03\x04"))
}

// extractInstance picks the XBRL instance out of a filing archive: a .xbrl
// file if present, otherwise the first .xml that is not a linkbase.
func extractInstance(archive []byte, maxBytes int64) ([]byte, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, "", eris.Wrap(err, "dart: open xbrl archive")
	}

	var pick *zip.File
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".xbrl") {
			pick = f
			break
		}
		if pick == nil && strings.HasSuffix(name, ".xml") && !isLinkbase(name) {
			pick = f
		}
	}
	if pick == nil {
		return nil, "", eris.New("dart: xbrl archive has no instance document")
	}
	if int64(pick.UncompressedSize64) > maxBytes {
		return nil, "", eris.Wrapf(ErrDocumentTooLarge, "dart: %s is %d bytes", pick.Name, pick.UncompressedSize64)
	}

	rc, err := pick.Open()
	if err != nil {
		return nil, "", eris.Wrap(err, "dart: open instance")
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, "", eris.Wrap(err, "dart: read instance")
	}
	if int64(len(data)) > maxBytes {
		return nil, "", eris.Wrapf(ErrDocumentTooLarge, "dart: %s exceeds %d bytes", pick.Name, maxBytes)
	}
	return data, pick.Name, nil
}

func isLinkbase(name string) bool {
	for _, suffix := range []string{"_lab.xml", "_lab-ko.xml", "_lab-en.xml", "_pre.xml", "_cal.xml", "_def.xml", "_ref.xml"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// get performs a rate-limited GET against the API with retries on transport
// failures, 429 and 5xx responses.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("crtfc_key", c.opts.APIKey)
	rawURL := c.opts.BaseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dart: create request")
	}
	req.Header.Set("User-Agent", "go-dart/"+VERSION)

	var lastErr error
	for attempt := range c.opts.MaxRetries + 1 {
		if attempt > 0 {
			c.backoff(ctx, attempt-1)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "dart: rate limiter wait")
		}

		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("opendart request failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, endpoint)
			zap.L().Warn("opendart server error, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "dart: read response")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("dart: unexpected status %d from %s", resp.StatusCode, endpoint)
		}
		return body, nil
	}

	return nil, eris.Wrapf(lastErr, "dart: all retries exhausted after %d attempts", c.opts.MaxRetries+1)
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(c.opts.BackoffBase) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

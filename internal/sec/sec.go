// Package sec is the filing provider backed by the EDGAR submissions API.
package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/dealwatch/internal/news"
)

const (
	// ArchiveBaseURL is the public location of filing documents.
	ArchiveBaseURL = "https://www.sec.gov/Archives/edgar/data"
	// RecentLimit is how many of the most recent filings are inspected.
	RecentLimit  = 50
	maxBodyBytes = 20 << 20
)

// Entity is a tracked filer.
type Entity struct {
	Name string `yaml:"name" json:"name"`
	CIK  string `yaml:"cik" json:"cik"`
}

// DefaultEntities are the parties to the transaction.
var DefaultEntities = []Entity{
	{Name: "Netflix", CIK: "0001065280"},
	{Name: "Warner Bros Discovery", CIK: "0001437107"},
	{Name: "Paramount", CIK: "0000813828"},
}

// FormDescriptions is the allow-list of M&A-relevant form types.
var FormDescriptions = map[string]string{
	"SC 13D":    "Activist investor stake disclosure",
	"SC 13D/A":  "Amended activist stake disclosure",
	"SC 13G":    "Passive investor stake disclosure",
	"SC 13G/A":  "Amended passive stake disclosure",
	"SC TO-T":   "Third-party tender offer statement",
	"SC TO-T/A": "Amended tender offer statement",
	"SC TO-C":   "Tender offer communication",
	"SC 14D9":   "Target company tender offer response",
	"SC 14D9/A": "Amended tender offer response",
	"DEFM14A":   "Definitive merger proxy statement",
	"DEFM14C":   "Definitive merger information statement",
	"PREM14A":   "Preliminary merger proxy statement",
	"PREM14C":   "Preliminary merger information statement",
	"S-4":       "M&A registration statement",
	"S-4/A":     "Amended M&A registration",
	"S-4EF":     "Automatic M&A registration",
	"425":       "M&A prospectus communication",
	"DEFA14A":   "Additional proxy solicitation material",
	"8-K":       "Material event report",
	"8-K/A":     "Amended material event report",
}

// Filing is one allow-listed filing within the window.
type Filing struct {
	Company         string `json:"company"`
	Form            string `json:"form"`
	FormDescription string `json:"form_description"`
	Date            string `json:"date"`
	Title           string `json:"title"`
	URL             string `json:"url"`
}

type submissions struct {
	Filings struct {
		Recent struct {
			Form                  []string `json:"form"`
			FilingDate            []string `json:"filingDate"`
			AccessionNumber       []string `json:"accessionNumber"`
			PrimaryDocument       []string `json:"primaryDocument"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// Client fetches submissions. EDGAR requires a descriptive User-Agent and
// limits request rates, so every request waits on a shared limiter.
type Client struct {
	baseURL    string
	userAgent  string
	windowDays int
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// New returns a Client. ratePerSecond <= 0 disables limiting.
func New(baseURL, userAgent string, windowDays int, ratePerSecond float64, timeout time.Duration) *Client {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		windowDays: windowDays,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// Fetch returns the entity's allow-listed filings from the trailing window,
// newest first.
func (c *Client) Fetch(ctx context.Context, e Entity) ([]Filing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, news.ClassifyFetchError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/CIK%s.json", c.baseURL, e.CIK), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", news.ErrFetchTransport, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, news.ClassifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: edgar status %d for %s", news.ErrFetchTransport, resp.StatusCode, e.Name)
	}

	var payload submissions
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode submissions: %v", news.ErrFetchParse, err)
	}

	cutoff := c.now().UTC().AddDate(0, 0, -c.windowDays).Format("2006-01-02")
	filings := extract(e, payload, cutoff)
	SortFilings(filings)
	return filings, nil
}

func extract(e Entity, payload submissions, cutoff string) []Filing {
	recent := payload.Filings.Recent
	n := len(recent.Form)
	if n > RecentLimit {
		n = RecentLimit
	}

	var out []Filing
	for i := 0; i < n; i++ {
		form := recent.Form[i]
		desc, ok := FormDescriptions[form]
		if !ok {
			continue
		}
		date := at(recent.FilingDate, i)
		accession := at(recent.AccessionNumber, i)
		if date < cutoff || accession == "" {
			continue
		}
		title := at(recent.PrimaryDocDescription, i)
		if title == "" {
			title = form
		}
		out = append(out, Filing{
			Company:         e.Name,
			Form:            form,
			FormDescription: desc,
			Date:            date,
			Title:           title,
			URL:             DocumentURL(e.CIK, accession, at(recent.PrimaryDocument, i)),
		})
	}
	return out
}

// DocumentURL builds the retrieval URL of a filing document, or of the
// filing index page when the document name is unknown.
func DocumentURL(cik, accession, document string) string {
	dir := fmt.Sprintf("%s/%s/%s", ArchiveBaseURL, cik, strings.ReplaceAll(accession, "-", ""))
	if document == "" {
		return dir + "/" + accession + "-index.htm"
	}
	return dir + "/" + document
}

// SortFilings orders filings by date, newest first.
func SortFilings(filings []Filing) {
	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].Date > filings[j].Date
	})
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

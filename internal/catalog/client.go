package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rwscout/internal/model"
)

const defaultTimeout = 10 * time.Second

// Client wraps the restaurant week backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Query is the optional server-side pre-filter for the restaurant list.
// The backend may ignore it; client-side filtering is authoritative.
type Query struct {
	Search        string
	Neighborhoods []string
	Boroughs      []string
	Tag           string
	MealTypes     []string
}

// QueryFromCriteria converts base filter criteria into a server-side pre-filter.
// The backend accepts a single cuisine tag, so it is only sent when exactly one is selected.
func QueryFromCriteria(c model.FilterCriteria) Query {
	q := Query{
		Search:        strings.TrimSpace(c.Search),
		Neighborhoods: c.Neighborhoods.Sorted(),
		Boroughs:      c.Boroughs.Sorted(),
		MealTypes:     c.MealTypes.Sorted(),
	}
	if len(c.Cuisines) == 1 {
		q.Tag = c.Cuisines.Sorted()[0]
	}
	return q
}

func (q Query) values() url.Values {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	for _, n := range q.Neighborhoods {
		params.Add("neighborhoods", n)
	}
	for _, b := range q.Boroughs {
		params.Add("boroughs", b)
	}
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}
	for _, m := range q.MealTypes {
		params.Add("meal_type", m)
	}
	return params
}

// Restaurants fetches the restaurant list. IDs are assigned by response position.
func (c *Client) Restaurants(ctx context.Context, q Query) ([]model.Restaurant, error) {
	var records []restaurantRecord
	if err := c.getJSON(ctx, "/restaurants", q.values(), &records); err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return toRestaurants(records), nil
}

// Filters fetches the filter vocabulary.
func (c *Client) Filters(ctx context.Context) (model.FilterVocabulary, error) {
	var resp filtersResponse
	if err := c.getJSON(ctx, "/filters", nil, &resp); err != nil {
		return model.FilterVocabulary{}, fmt.Errorf("failed to list filters: %w", err)
	}
	return model.FilterVocabulary{
		Neighborhoods: resp.Neighborhoods,
		Boroughs:      resp.Boroughs,
		Tags:          resp.Tags,
		MealTypes:     resp.MealTypes,
	}, nil
}

// AvailabilityQuery identifies one slot lookup. Exactly one of OpenTableID and
// PlatformURL should be set; OpenTableID wins when both are.
type AvailabilityQuery struct {
	Date        string // YYYY-MM-DD
	PartySize   int
	OpenTableID string
	PlatformURL string
}

// AvailabilityResponse is a well-formed backend answer: either slots or an error message.
type AvailabilityResponse struct {
	Slots    []model.Slot
	Error    string
	HasError bool
}

// Availability looks up open slots for one restaurant.
// A body carrying an error field is returned as a response regardless of HTTP status;
// transport failures, undecodable bodies, bodies without a slots list and bare
// non-2xx statuses are returned as errors.
func (c *Client) Availability(ctx context.Context, q AvailabilityQuery) (AvailabilityResponse, error) {
	params := url.Values{}
	params.Set("date", q.Date)
	params.Set("party_size", strconv.Itoa(q.PartySize))
	switch {
	case q.OpenTableID != "":
		params.Set("opentable_id", q.OpenTableID)
	case q.PlatformURL != "":
		params.Set("platform_url", q.PlatformURL)
	default:
		return AvailabilityResponse{}, model.ErrNoIntegration
	}

	status, body, err := c.get(ctx, "/availability", params)
	if err != nil {
		return AvailabilityResponse{}, err
	}

	var parsed availabilityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return AvailabilityResponse{}, fmt.Errorf("JSON decode error (status %d): %w", status, err)
	}
	if parsed.Error != nil {
		return AvailabilityResponse{Error: *parsed.Error, HasError: true}, nil
	}
	if status < 200 || status >= 300 {
		return AvailabilityResponse{}, fmt.Errorf("API error: status %d", status)
	}
	if parsed.Slots == nil {
		return AvailabilityResponse{}, fmt.Errorf("JSON decode error (status %d): missing slots", status)
	}

	slots := make([]model.Slot, 0, len(*parsed.Slots))
	for _, s := range *parsed.Slots {
		slots = append(slots, model.Slot{Time: s.Time, SeatingType: s.SeatingType})
	}
	return AvailabilityResponse{Slots: slots}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	status, body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("API error: status %d", status)
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return fmt.Errorf("JSON decode error: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// API response types

type restaurantRecord struct {
	Name           string     `json:"name"`
	Neighborhood   string     `json:"neighborhood"`
	Borough        string     `json:"borough"`
	Tags           []string   `json:"tags"`
	MealTypes      []string   `json:"meal_types"`
	OpenTableID    flexibleID `json:"opentable_id"`
	ReservationURL string     `json:"reservation_url"`
	Website        string     `json:"website"`
}

type filtersResponse struct {
	Neighborhoods []string `json:"neighborhoods"`
	Boroughs      []string `json:"boroughs"`
	Tags          []string `json:"tags"`
	MealTypes     []string `json:"meal_types"`
}

type availabilityResponse struct {
	Slots *[]slotRecord `json:"slots"`
	Error *string       `json:"error"`
}

type slotRecord struct {
	Time        string `json:"time"`
	SeatingType string `json:"seating_type"`
}

// flexibleID accepts an OpenTable id encoded as either a JSON number or string.
// Any other value decodes as no id, so one bad record does not fail the catalog.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	*f = ""
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err == nil {
			*f = flexibleID(strings.TrimSpace(str))
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleID(n.String())
	}
	return nil
}

func toRestaurants(records []restaurantRecord) []model.Restaurant {
	out := make([]model.Restaurant, 0, len(records))
	for i, rec := range records {
		out = append(out, model.Restaurant{
			ID:           model.RestaurantID(i),
			Name:         strings.TrimSpace(rec.Name),
			Neighborhood: strings.TrimSpace(rec.Neighborhood),
			Borough:      strings.TrimSpace(rec.Borough),
			Tags:         rec.Tags,
			MealTypes:    rec.MealTypes,
			Website:      strings.TrimSpace(rec.Website),
			Reservation:  reservationOption(rec),
		})
	}
	return out
}

func reservationOption(rec restaurantRecord) model.ReservationOption {
	switch {
	case rec.OpenTableID != "":
		return model.ReservationOption{Kind: model.ReservationOpenTableID, Value: string(rec.OpenTableID)}
	case strings.TrimSpace(rec.ReservationURL) != "":
		return model.ReservationOption{Kind: model.ReservationPlatformURL, Value: strings.TrimSpace(rec.ReservationURL)}
	case strings.TrimSpace(rec.Website) != "":
		return model.ReservationOption{Kind: model.ReservationWebsite, Value: strings.TrimSpace(rec.Website)}
	default:
		return model.ReservationOption{Kind: model.ReservationNone}
	}
}

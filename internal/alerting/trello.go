package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	cardsPath        = "/cards"
	defaultTrelloURL = "https://api.trello.com/1"
	defaultPosition  = "top"
)

// Credentials authorise card creation on one list.
type Credentials struct {
	APIKey string
	Token  string
	ListID string
}

// Missing lists the names of absent credential values.
func (c Credentials) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(c.ListID) == "" {
		missing = append(missing, "list_id")
	}
	return missing
}

// Complete reports whether every credential value is present.
func (c Credentials) Complete() bool {
	return len(c.Missing()) == 0
}

// CardRequest is the content of a card to create.
type CardRequest struct {
	Name        string
	Description string
	Position    string
}

// Card is the created card as returned by the board service.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ShortURL string `json:"shortUrl"`
}

// CardCreator creates a card in a destination list.
type CardCreator interface {
	CreateCard(ctx context.Context, creds Credentials, req CardRequest) (Card, error)
}

// SubmissionError is returned when the board service rejects a card.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("trello responded %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("trello responded %d", e.StatusCode)
}

// TrelloClient creates cards through the Trello REST API.
type TrelloClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewTrelloClient constructs a Trello card creator.
func NewTrelloClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *TrelloClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = defaultTrelloURL
	}

	return &TrelloClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "trello").Logger(),
	}
}

// CreateCard POSTs a new card to the list named in creds.
func (c *TrelloClient) CreateCard(ctx context.Context, creds Credentials, cr CardRequest) (Card, error) {
	position := cr.Position
	if position == "" {
		position = defaultPosition
	}

	params := url.Values{}
	params.Set("key", creds.APIKey)
	params.Set("token", creds.Token)
	params.Set("idList", creds.ListID)
	params.Set("name", cr.Name)
	params.Set("desc", cr.Description)
	params.Set("pos", position)

	endpoint := c.baseURL + cardsPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return Card{}, fmt.Errorf("create trello request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Card{}, fmt.Errorf("send trello request: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Card{}, &SubmissionError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var card Card
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return Card{}, fmt.Errorf("decode trello card: %w", err)
	}

	c.logger.Info().Str("card_id", card.ID).Str("url", card.URL).Msg("card created")
	return card, nil
}

// redactURLError strips the query string, which carries the key and token.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		redacted.URL = u.String()
	}
	return &redacted
}

var _ CardCreator = (*TrelloClient)(nil)

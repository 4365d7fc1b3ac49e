package telegram

import (
	"context"
	"fmt"
	"strings"

	xhttp "AlphaPulse/pkg/http"
	"AlphaPulse/pkg/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier delivers alert messages through the Telegram Bot API.
// Messages are sent with HTML parse mode.
type Notifier struct {
	http    *xhttp.Client
	log     *logger.Logger
	baseURL string
	token   string
	chatID  string
}

// Option configures the Notifier.
type Option func(*Notifier)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(n *Notifier) { n.baseURL = strings.TrimRight(u, "/") }
}

// New creates a Notifier for the given bot token and chat.
func New(httpClient *xhttp.Client, log *logger.Logger, token, chatID string, opts ...Option) *Notifier {
	n := &Notifier{
		http:    httpClient,
		log:     log,
		baseURL: defaultBaseURL,
		token:   token,
		chatID:  chatID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send implements repository.Notifier.
func (n *Notifier) Send(ctx context.Context, text string) error {
	var resp sendResponse
	err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token),
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: map[string]string{
			"chat_id":    n.chatID,
			"text":       text,
			"parse_mode": "HTML",
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram rejected message: %s", resp.Description)
	}

	n.log.Debug("alert delivered", logger.Int("chars", len(text)))
	return nil
}

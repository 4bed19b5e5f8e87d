package notifier

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/itantech/napista/internal/event"
)

// MaxPostLength is the Twitter status limit in characters.
const MaxPostLength = 280

// statusUpdater is the part of twitter.StatusService used here.
type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts events to Twitter
type TwitterNotifier struct {
	statuses statusUpdater
	interval time.Duration
}

// NewTwitterNotifier creates a new Twitter notifier using environment variables
// Required environment variables:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func NewTwitterNotifier() (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials in environment variables")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{statuses: client.Statuses, interval: 2 * time.Second}, nil
}

// Notify posts one status per event. A failure after the first post is
// reported as a *PartialError.
func (n *TwitterNotifier) Notify(events []event.Event) error {
	for i, evt := range events {
		post := FormatPost(evt)

		_, _, err := n.statuses.Update(post, nil)
		if err != nil {
			err = fmt.Errorf("failed to post event %q: %w", evt.Title, err)
			if i > 0 {
				return &PartialError{Sent: i, Err: err}
			}
			return err
		}

		// Rate limiting: wait between posts
		if i < len(events)-1 && n.interval > 0 {
			time.Sleep(n.interval)
		}
	}

	return nil
}

// FormatPost formats an event as a short announcement
func FormatPost(evt event.Event) string {
	var b strings.Builder
	b.WriteString("🎭 Destaque Na Pista!\n\n")
	fmt.Fprintf(&b, "📌 %s", strings.TrimSpace(evt.Title))
	if evt.Type != "" {
		fmt.Fprintf(&b, " (%s)", strings.TrimSpace(evt.Type))
	}
	b.WriteString("\n")

	when := evt.Day()
	if t := strings.TrimSpace(evt.Time); t != "" {
		when = fmt.Sprintf("%s às %s", when, t)
	}
	if when != "" {
		fmt.Fprintf(&b, "📅 %s\n", when)
	}

	if evt.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", strings.TrimSpace(evt.Location))
	}

	if evt.HasLink() {
		fmt.Fprintf(&b, "\n🔗 %s\n", strings.TrimSpace(evt.URL))
	}

	b.WriteString("\n#NaPista #AgendaCultural")

	return truncate(b.String(), MaxPostLength)
}

// truncate cuts s to at most max characters, ending with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

package crisis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
)

var ErrNoContact = errors.New("resource has no contact for method")

const (
	retryPrompt         = "We couldn't open that just now. Please try again, or choose another way to reach support."
	retryPromptNoMethod = "This service can't be reached that way. Try one of the other contact options listed."
)

// PromptCatalog returns every static prompt the contact flow can show.
func PromptCatalog() []string {
	return []string{retryPrompt, retryPromptNoMethod}
}

// Opener hands a URI to whatever can act on it: the phone dialer, a
// messaging app, or a chat client that shows the link.
type Opener interface {
	CanOpen(ctx context.Context, uri string) bool
	Open(ctx context.Context, uri string) error
}

// URIFor builds the URI that contacts r through method m.
func URIFor(r models.CrisisResource, m models.ContactMethod) (string, error) {
	contact := strings.TrimSpace(r.ContactFor(m))
	if contact == "" {
		return "", fmt.Errorf("%w %s", ErrNoContact, m)
	}
	switch m {
	case models.ContactPhone:
		return "tel:" + dialable(contact), nil
	case models.ContactText:
		return "sms:" + dialable(contact), nil
	case models.ContactChat, models.ContactWebsite:
		if !strings.Contains(contact, "://") {
			contact = "https://" + contact
		}
		u, err := url.Parse(contact)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid %s url %q", m, contact)
		}
		return u.String(), nil
	}
	return "", fmt.Errorf("%w %s", ErrNoContact, m)
}

func dialable(number string) string {
	var b strings.Builder
	for i, r := range number {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Contacter opens crisis resources through an Opener and turns every
// failure into a retry prompt.
type Contacter struct {
	opener Opener
	logger *zap.Logger
}

func NewContacter(opener Opener, logger *zap.Logger) *Contacter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contacter{opener: opener, logger: logger}
}

// ContactResource resolves the method to a URI, checks it can be opened and
// opens it.
func (c *Contacter) ContactResource(ctx context.Context, r models.CrisisResource, m models.ContactMethod) models.ContactResult {
	uri, err := URIFor(r, m)
	if err != nil {
		c.logger.Warn("No usable contact for resource",
			zap.String("resource_id", r.ID),
			zap.String("method", string(m)),
			zap.Error(err))
		return models.ContactResult{RetryPrompt: retryPromptNoMethod}
	}
	if !c.opener.CanOpen(ctx, uri) {
		c.logger.Warn("Contact URI cannot be opened",
			zap.String("resource_id", r.ID),
			zap.String("uri", uri))
		return models.ContactResult{URI: uri, RetryPrompt: retryPrompt}
	}
	if err := c.opener.Open(ctx, uri); err != nil {
		c.logger.Error("Failed to open contact URI",
			zap.String("resource_id", r.ID),
			zap.String("uri", uri),
			zap.Error(err))
		return models.ContactResult{URI: uri, RetryPrompt: retryPrompt}
	}
	return models.ContactResult{Success: true, URI: uri}
}

// SchemeOpener accepts URIs with a known scheme and hands them to Deliver.
// A nil Deliver treats handing the URI back to the caller as opening it.
type SchemeOpener struct {
	Schemes []string
	Deliver func(ctx context.Context, uri string) error
}

// NewSchemeOpener accepts tel, sms, http and https URIs.
func NewSchemeOpener(deliver func(ctx context.Context, uri string) error) *SchemeOpener {
	return &SchemeOpener{
		Schemes: []string{"tel", "sms", "http", "https"},
		Deliver: deliver,
	}
}

func (o *SchemeOpener) CanOpen(ctx context.Context, uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	for _, s := range o.Schemes {
		if strings.EqualFold(u.Scheme, s) {
			return u.Opaque != "" || u.Host != ""
		}
	}
	return false
}

func (o *SchemeOpener) Open(ctx context.Context, uri string) error {
	if o.Deliver == nil {
		return nil
	}
	return o.Deliver(ctx, uri)
}

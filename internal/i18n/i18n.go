// Package i18n renders the notices shown to console users.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
)

//go:embed locales/*.json
var localeFS embed.FS

var localeFiles = []string{"locales/en.json", "locales/vi.json"}

type Translator struct {
	localizer *goi18n.Localizer
}

// New loads the embedded catalogs and localizes to lang, falling back to
// English.
func New(lang string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return &Translator{localizer: goi18n.NewLocalizer(bundle, lang, "en")}, nil
}

// T renders message id; unknown ids come back unchanged.
func (t *Translator) T(id string, data map[string]any) string {
	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

// Notice turns an error into the message shown to the user. Validation and
// conflict messages are shown verbatim; transient failures get a generic
// notice since their detail is only useful in logs.
func (t *Translator) Notice(err error) string {
	if err == nil {
		return ""
	}
	var e *apperr.Error
	if !errors.As(err, &e) {
		return t.T("generic_failure", nil)
	}
	switch e.Kind {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindNotFound:
		return e.Error()
	case apperr.KindAuth:
		if e.Message == "not signed in" {
			return t.T("not_signed_in", nil)
		}
		return t.T("session_expired", nil)
	default:
		return t.T("generic_failure", nil)
	}
}

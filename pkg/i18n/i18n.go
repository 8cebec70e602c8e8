package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
)

// Init builds the bundle with the embedded locales. It is safe to call more than once.
func Init() {
	mu.Lock()
	defer mu.Unlock()

	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range []string{"locales/active.en.json", "locales/active.id.json"} {
		if _, err := b.LoadMessageFileFS(locales, f); err != nil {
			panic(err)
		}
	}
	bundle = b
}

// Load adds an external message file on top of the embedded ones.
func Load(path string) error {
	current := get()
	mu.Lock()
	defer mu.Unlock()
	_, err := current.LoadMessageFile(path)
	return err
}

// Localize renders messageID for the accept-language value lang. Unknown ids
// come back unchanged.
func Localize(lang, messageID string, data map[string]interface{}) string {
	b := get()
	mu.RLock()
	defer mu.RUnlock()

	loc := goi18n.NewLocalizer(b, lang, language.English.String())
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

func get() *goi18n.Bundle {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		Init()
		mu.RLock()
		b = bundle
		mu.RUnlock()
	}
	return b
}

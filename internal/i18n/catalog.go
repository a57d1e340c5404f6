// Package i18n resolves the browser's locale and the localized messages the
// session guard shows.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/language"

	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/ports"
)

//go:embed locales/*.json
var embedded embed.FS

var _ ports.Translator = (*Catalog)(nil)

// builtin covers the messages that must render even when a bundle is missing.
var builtin = map[string]map[string]string{
	"en": {
		apperrors.KindUnauthorized.MessageKey(): "Unauthorized",
		langLoadKey:                             "Failed to load english language resources",
	},
	"de": {
		apperrors.KindUnauthorized.MessageKey(): "Nicht autorisiert",
		langLoadKey:                             "Fehler beim Laden der deutschsprachigen Ressourcen",
	},
	"ru": {
		apperrors.KindUnauthorized.MessageKey(): "Неавторизованный доступ",
		langLoadKey:                             "Не удалось загрузить русскоязычные ресурсы",
	},
}

// langLoadKey is the builtin message shown in the user's own locale when a bundle fails to load.
const langLoadKey = "lang.loadFailed"

// LangLoadKey returns the key of the locale-independent bundle failure message.
func LangLoadKey() string { return langLoadKey }

// Options configures a Catalog.
type Options struct {
	Supported []string
	Default   string
	Fallback  string
	// FS holds <lang>.json bundles at its root. Defaults to the embedded bundles.
	FS     fs.FS
	Logger *slog.Logger
}

// Catalog holds the flattened message bundles and the locale matcher.
type Catalog struct {
	supported []string
	matcher   language.Matcher
	def       string
	fallback  string
	bundles   fs.FS
	messages  map[string]map[string]string
	logger    *slog.Logger
}

// New loads every supported bundle it can. A missing bundle is logged, not fatal:
// its locale falls back to builtin and fallback messages.
func New(opts Options) (*Catalog, error) {
	if len(opts.Supported) == 0 {
		return nil, errors.New("at least one supported locale is required")
	}
	if !slices.Contains(opts.Supported, opts.Default) {
		return nil, fmt.Errorf("default locale %q is not supported", opts.Default)
	}

	tags := make([]language.Tag, 0, len(opts.Supported))
	for _, l := range opts.Supported {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", l, err)
		}
		tags = append(tags, tag)
	}

	bundles := opts.FS
	if bundles == nil {
		sub, err := fs.Sub(embedded, "locales")
		if err != nil {
			return nil, fmt.Errorf("open embedded locales: %w", err)
		}
		bundles = sub
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fallback := opts.Fallback
	if fallback == "" {
		fallback = opts.Default
	}

	c := &Catalog{
		supported: slices.Clone(opts.Supported),
		matcher:   language.NewMatcher(tags),
		def:       opts.Default,
		fallback:  fallback,
		bundles:   bundles,
		messages:  make(map[string]map[string]string, len(opts.Supported)),
		logger:    logger,
	}

	for _, l := range c.supported {
		msgs, err := c.load(l)
		if err != nil {
			logger.Warn("locale bundle unavailable", "locale", l, "error", err)
			continue
		}
		c.messages[l] = msgs
	}
	return c, nil
}

// Supported lists the supported locales.
func (c *Catalog) Supported() []string { return slices.Clone(c.supported) }

// Default returns the default locale.
func (c *Catalog) Default() string { return c.def }

// IsSupported reports whether lang is a supported locale.
func (c *Catalog) IsSupported(lang string) bool { return slices.Contains(c.supported, lang) }

// Resolve picks the locale: an explicit supported choice first, then the best
// Accept-Language match, then the default.
func (c *Catalog) Resolve(choice, acceptLanguage string) string {
	if c.IsSupported(choice) {
		return choice
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := c.matcher.Match(tags...)
			if conf != language.No {
				return c.supported[idx]
			}
		}
	}
	return c.def
}

// Translate resolves key in locale, then the builtin table, then the fallback locale.
// Unknown keys are returned as-is.
func (c *Catalog) Translate(locale, key string) string {
	if v, ok := c.messages[locale][key]; ok {
		return v
	}
	if v, ok := builtin[locale][key]; ok {
		return v
	}
	if v, ok := c.messages[c.fallback][key]; ok {
		return v
	}
	if v, ok := builtin[c.fallback][key]; ok {
		return v
	}
	return key
}

// Bundle returns the raw message bundle for lang. Load failures carry the matching
// language-load kind.
func (c *Catalog) Bundle(lang string) (json.RawMessage, error) {
	if !c.IsSupported(lang) {
		return nil, apperrors.New(apperrors.KindBadInputData, "unsupported locale "+lang)
	}
	kind := apperrors.ClassifyMessage("Loading chunk " + lang)
	data, err := fs.ReadFile(c.bundles, lang+".json")
	if err != nil {
		return nil, apperrors.Wrap(err, kind)
	}
	if !json.Valid(data) {
		return nil, apperrors.New(kind, "invalid JSON in "+lang+" bundle")
	}
	return data, nil
}

// Keys lists the flattened keys loaded for locale, sorted.
func (c *Catalog) Keys(locale string) []string {
	keys := make([]string, 0, len(c.messages[locale]))
	for k := range c.messages[locale] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalog) load(lang string) (map[string]string, error) {
	data, err := fs.ReadFile(c.bundles, path.Clean(lang+".json"))
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode %s bundle: %w", lang, err)
	}
	out := make(map[string]string)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = strings.TrimSpace(fmt.Sprint(val))
		}
	}
}

package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cvboard/admin/internal/errors"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(Options{Supported: []string{"en", "de", "ru"}, Default: "en"})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Supported: []string{"en"}, Default: "de"})
	assert.Error(t, err)

	_, err = New(Options{Supported: []string{"en", "!!"}, Default: "en"})
	assert.Error(t, err)
}

func TestCatalog_Resolve(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		name, choice, accept, want string
	}{
		{name: "explicit choice wins", choice: "ru", accept: "de-DE,de;q=0.9", want: "ru"},
		{name: "unsupported choice ignored", choice: "fr", accept: "de-DE,de;q=0.9", want: "de"},
		{name: "regional variant", accept: "de-CH", want: "de"},
		{name: "quality ordering", accept: "fr;q=0.9,ru;q=0.8", want: "ru"},
		{name: "nothing matches", accept: "ja", want: "en"},
		{name: "no header", want: "en"},
		{name: "garbage header", accept: ";;;", want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(tt.choice, tt.accept))
		})
	}
}

func TestCatalog_TranslateUnauthorized(t *testing.T) {
	c := newCatalog(t)
	key := apperrors.KindUnauthorized.MessageKey()

	assert.Equal(t, "Unauthorized", c.Translate("en", key))
	assert.Equal(t, "Nicht autorisiert", c.Translate("de", key))
	assert.Equal(t, "Неавторизованный доступ", c.Translate("ru", key))
	assert.Equal(t, "Unauthorized", c.Translate("fr", key), "unknown locale uses fallback")
	assert.Equal(t, "no.such.key", c.Translate("en", "no.such.key"))
}

func TestCatalog_EveryKindLocalized(t *testing.T) {
	c := newCatalog(t)

	for _, locale := range c.Supported() {
		keys := c.Keys(locale)
		for _, kind := range apperrors.Kinds {
			assert.Contains(t, keys, kind.MessageKey(), "%s bundle", locale)
		}
	}
}

func TestCatalog_MissingBundleFallsBackToBuiltin(t *testing.T) {
	bundles := fstest.MapFS{
		"en.json": {Data: []byte(`{"errors":{"UNEXPECTED_ERROR":"Oops"}}`)},
	}
	c, err := New(Options{Supported: []string{"en", "de"}, Default: "en", FS: bundles})
	require.NoError(t, err)

	assert.Equal(t, "Nicht autorisiert", c.Translate("de", apperrors.KindUnauthorized.MessageKey()))
	assert.Equal(t, "Fehler beim Laden der deutschsprachigen Ressourcen", c.Translate("de", LangLoadKey()))
	assert.Equal(t, "Oops", c.Translate("de", apperrors.KindUnexpected.MessageKey()))

	_, err = c.Bundle("de")
	assert.Equal(t, apperrors.KindLangDeLoad, apperrors.KindOf(err))
}

func TestCatalog_Bundle(t *testing.T) {
	c := newCatalog(t)

	data, err := c.Bundle("de")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Nicht autorisiert")

	_, err = c.Bundle("fr")
	assert.Equal(t, apperrors.KindBadInputData, apperrors.KindOf(err))
}

func TestCatalog_BundleInvalidJSON(t *testing.T) {
	bundles := fstest.MapFS{
		"en.json": {Data: []byte(`{}`)},
		"ru.json": {Data: []byte(`{not json`)},
	}
	c, err := New(Options{Supported: []string{"en", "ru"}, Default: "en", FS: bundles})
	require.NoError(t, err)

	_, err = c.Bundle("ru")
	assert.Equal(t, apperrors.KindLangRuLoad, apperrors.KindOf(err))
}

func TestFlatten(t *testing.T) {
	out := map[string]string{}
	flatten("", map[string]any{
		"a": "x",
		"b": map[string]any{"c": "y", "d": map[string]any{"e": "z"}},
		"n": 3.0,
	}, out)

	assert.Equal(t, map[string]string{"a": "x", "b.c": "y", "b.d.e": "z", "n": "3"}, out)
}

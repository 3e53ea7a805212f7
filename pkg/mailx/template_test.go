package mailx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/Abraxas-365/expomail/pkg/mailx/mailxmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		html string
		data map[string]any
		want string
	}{
		{"known and unknown keys", "Hi {{name}}, {{missing}}!", map[string]any{"name": "Ann"}, "Hi Ann, !"},
		{"whitespace inside braces", "{{ name }}/{{name}}", map[string]any{"name": "Ann"}, "Ann/Ann"},
		{"nil value", "[{{v}}]", map[string]any{"v": nil}, "[]"},
		{"numbers and bools", "{{n}} {{ok}}", map[string]any{"n": 42, "ok": true}, "42 true"},
		{"nil data", "x{{a}}y", nil, "xy"},
		{"repeated key", "{{a}}{{a}}", map[string]any{"a": "z"}, "zz"},
		{"no placeholders", "<p>plain</p>", map[string]any{"a": 1}, "<p>plain</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mailx.Render(tt.html, tt.data))
		})
	}
}

func TestResolve_OverrideWinsOverFilesystem(t *testing.T) {
	overrides := mailxmemory.NewOverrideStore()
	overrides.Put("welcome", "Hello there", "<p>override</p>")

	r := mailx.NewTemplateResolver(templateDir(t, map[string]string{"welcome.html": "<p>file</p>"}), overrides)

	tmpl, err := r.Resolve(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, "<p>override</p>", tmpl.HTML)
	assert.Equal(t, mailx.SourceOverride, tmpl.Source)
	assert.Equal(t, "Hello there", tmpl.Subject)
}

type brokenOverrides struct{}

func (brokenOverrides) Get(context.Context, string) (*mailx.RawTemplate, error) {
	return nil, errors.New("connection refused")
}

func (brokenOverrides) ListIDs(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestResolve_OverrideErrorFallsBackToFilesystem(t *testing.T) {
	r := mailx.NewTemplateResolver(templateDir(t, map[string]string{"welcome.html": "<p>file</p>"}), brokenOverrides{})

	tmpl, err := r.Resolve(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, mailx.SourceFilesystem, tmpl.Source)

	ids, err := r.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"welcome"}, ids)
}

func TestResolve_NotFound(t *testing.T) {
	r := mailx.NewTemplateResolver(templateDir(t, nil), mailxmemory.NewOverrideStore())

	for _, id := range []string{"does-not-exist", "../secrets", "", "a/b"} {
		_, err := r.Resolve(context.Background(), id)
		assert.True(t, errx.IsCode(err, mailx.ErrTemplateNotFound), id)
	}
}

func TestListAvailable_FilesystemThenStoreWithDuplicates(t *testing.T) {
	overrides := mailxmemory.NewOverrideStore()
	overrides.Put("welcome", "", "<p>o</p>")
	overrides.Put("custom", "", "<p>c</p>")

	r := mailx.NewTemplateResolver(templateDir(t, map[string]string{
		"payment-reminder.html": "x",
		"welcome.html":          "y",
		"README.md":             "ignored",
	}), overrides)

	ids, err := r.ListAvailable(context.Background())
	require.NoError(t, err)
	// os.ReadDir enumerates in name order.
	assert.Equal(t, []string{"payment-reminder", "welcome", "welcome", "custom"}, ids)
}

func TestListAvailable_NoSources(t *testing.T) {
	ids, err := mailx.NewTemplateResolver(nil, nil).ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTextFromHTML(t *testing.T) {
	assert.Equal(t, "Hello Ann, welcome.", mailx.TextFromHTML("<h1>Hello <b>Ann</b>, welcome.</h1>"))
	assert.Equal(t, "plain", mailx.Envelope{HTML: "<p>ignored</p>", Text: "plain"}.PlainText())
	assert.Equal(t, "from html", mailx.Envelope{HTML: "<p>from html</p>"}.PlainText())
}

func TestTitleFromID(t *testing.T) {
	assert.Equal(t, "Stall Application", mailx.TitleFromID("stall-application"))
	assert.Equal(t, "Welcome", mailx.TitleFromID("welcome"))
	assert.Equal(t, "Application Waitlisted", mailx.TitleFromID("application--waitlisted"))
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := mailx.Config{RelayUser: "relay@expo.test", PublicBaseURL: "https://expo.test/"}.WithDefaults()
	assert.Equal(t, "smtp.gmail.com", cfg.RelayHost)
	assert.Equal(t, 587, cfg.RelayPort)
	assert.Equal(t, "relay@expo.test", cfg.FromAddress)
	assert.Equal(t, mailx.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, "https://expo.test/dashboard", cfg.Link("/dashboard"))
}

func TestSendTemplateEmail_OverrideSubjectIsRendered(t *testing.T) {
	overrides := mailxmemory.NewOverrideStore()
	overrides.Put("welcome", "Welcome aboard, {{name}}", "<p>Hi {{name}}</p>")
	tr := &fakeTransport{}
	d := mailx.New(testConfig(), tr, mailx.NewTemplateResolver(nil, overrides))

	_, err := d.SendTemplateEmail(context.Background(), mailx.TemplateMessage{
		To: "ann@x.test", TemplateID: "welcome", Data: map[string]any{"name": "Ann"},
	})
	require.NoError(t, err)
	require.Len(t, tr.Sent(), 1)
	assert.Equal(t, "Welcome aboard, Ann", tr.Sent()[0].Subject)
	assert.Equal(t, "<p>Hi Ann</p>", tr.Sent()[0].HTML)
}

package mailx

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Abraxas-365/expomail/pkg/fsx"
	"github.com/Abraxas-365/expomail/pkg/logx"
)

// TemplateSource tells where a RawTemplate came from.
type TemplateSource string

const (
	SourceOverride   TemplateSource = "override"
	SourceFilesystem TemplateSource = "filesystem"
)

// RawTemplate is an unrendered template. Subject is only set by overrides.
type RawTemplate struct {
	ID      string         `json:"id"`
	Subject string         `json:"subject,omitempty"`
	HTML    string         `json:"html"`
	Source  TemplateSource `json:"source"`
}

// OverrideStore holds per-deployment template overrides. Get returns
// (nil, nil) when id has no override.
type OverrideStore interface {
	Get(ctx context.Context, id string) (*RawTemplate, error)
	ListIDs(ctx context.Context) ([]string, error)
}

var (
	templateIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)
)

const templateExt = ".html"

// TemplateResolver loads templates from the override store first and the
// file store second.
type TemplateResolver struct {
	files     fsx.FileReader
	overrides OverrideStore
}

// NewTemplateResolver builds a resolver. Either source may be nil.
func NewTemplateResolver(files fsx.FileReader, overrides OverrideStore) *TemplateResolver {
	return &TemplateResolver{files: files, overrides: overrides}
}

// Resolve returns the template named id.
func (r *TemplateResolver) Resolve(ctx context.Context, id string) (RawTemplate, error) {
	if !templateIDPattern.MatchString(id) {
		return RawTemplate{}, mailxErrors.New(ErrTemplateNotFound).WithDetail("template_id", id)
	}

	if r.overrides != nil {
		tmpl, err := r.overrides.Get(ctx, id)
		switch {
		case err != nil:
			logx.WithError(err).Warnf("mailx: override store lookup for %q failed, using filesystem", id)
		case tmpl != nil:
			out := *tmpl
			out.ID = id
			out.Source = SourceOverride
			return out, nil
		}
	}

	if r.files != nil {
		data, err := r.files.ReadFile(ctx, id+templateExt)
		if err == nil {
			return RawTemplate{ID: id, HTML: string(data), Source: SourceFilesystem}, nil
		}
		if !errors.Is(err, fsx.ErrNotFound) {
			logx.WithError(err).Warnf("mailx: reading template %q failed", id)
		}
	}

	return RawTemplate{}, mailxErrors.New(ErrTemplateNotFound).WithDetail("template_id", id)
}

// ListAvailable returns file-store ids in enumeration order followed by
// override ids in store order. An id present in both sources is listed
// twice.
func (r *TemplateResolver) ListAvailable(ctx context.Context) ([]string, error) {
	ids := []string{}

	if r.files != nil {
		infos, err := r.files.List(ctx, "")
		if err != nil && !errors.Is(err, fsx.ErrNotFound) {
			return nil, fmt.Errorf("listing template directory: %w", err)
		}
		for _, info := range infos {
			if info.IsDir || path.Ext(info.Name) != templateExt {
				continue
			}
			ids = append(ids, strings.TrimSuffix(info.Name, templateExt))
		}
	}

	if r.overrides != nil {
		stored, err := r.overrides.ListIDs(ctx)
		if err != nil {
			logx.WithError(err).Warn("mailx: listing override templates failed")
		}
		ids = append(ids, stored...)
	}

	return ids, nil
}

// Render substitutes every {{key}} in tmpl.HTML. Keys absent from data or
// holding nil render as the empty string.
func (r *TemplateResolver) Render(tmpl RawTemplate, data map[string]any) string {
	return Render(tmpl.HTML, data)
}

// Render substitutes every {{key}} in html with data[key].
func Render(html string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(html, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return stringify(data[key])
	})
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

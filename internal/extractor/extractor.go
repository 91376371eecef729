package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/site-mirror/internal/classifier"
	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

// Resources holds the raw URL strings found on a page, per category, in document order.
type Resources struct {
	Stylesheets []string
	Images      []string
	Videos      []string
	Scripts     []string
	PageLinks   []string
}

// Candidate is one raw string together with the role it was found under.
type Candidate struct {
	Raw  string
	Role entity.Role
}

// Candidates flattens the resources in dispatch order: stylesheets, images,
// videos, scripts, then page links.
func (r *Resources) Candidates() []Candidate {
	groups := []struct {
		role entity.Role
		raws []string
	}{
		{entity.RoleStylesheet, r.Stylesheets},
		{entity.RoleImage, r.Images},
		{entity.RoleVideo, r.Videos},
		{entity.RoleScript, r.Scripts},
		{entity.RolePageLink, r.PageLinks},
	}
	var out []Candidate
	for _, g := range groups {
		for _, raw := range g.raws {
			out = append(out, Candidate{Raw: raw, Role: g.role})
		}
	}
	return out
}

type source struct {
	selector string
	property string
	filter   func(ctx context.Context, el repository.Element) bool
}

var (
	stylesheetSource = source{selector: "link", property: "href", filter: isStylesheet}
	imageSource      = source{selector: "img", property: "src"}
	videoSource      = source{selector: "video>source", property: "src"}
	scriptSource     = source{selector: "script[src]", property: "src"}
	pageLinkSource   = source{selector: "a", property: "href"}
)

// Extract queries the rendered page for every resource category. Elements
// whose property is empty or unreadable are skipped; a failing query fails
// the whole extraction.
func Extract(ctx context.Context, page repository.Page) (*Resources, error) {
	var res Resources
	targets := []struct {
		src  source
		dest *[]string
	}{
		{stylesheetSource, &res.Stylesheets},
		{imageSource, &res.Images},
		{videoSource, &res.Videos},
		{scriptSource, &res.Scripts},
		{pageLinkSource, &res.PageLinks},
	}
	for _, t := range targets {
		values, err := collect(ctx, page, t.src)
		if err != nil {
			return nil, fmt.Errorf("extract %q from %s: %w", t.src.selector, page.URL(), err)
		}
		*t.dest = values
	}
	return &res, nil
}

func collect(ctx context.Context, page repository.Page, src source) ([]string, error) {
	elements, err := page.Query(ctx, src.selector)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(elements))
	for _, el := range elements {
		if src.filter != nil && !src.filter(ctx, el) {
			continue
		}
		v, err := el.Property(ctx, src.property)
		if err != nil {
			slog.Debug("Skipping unreadable element", "selector", src.selector, "property", src.property, "error", err)
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

func isStylesheet(ctx context.Context, el repository.Element) bool {
	rel, err := el.Property(ctx, "rel")
	if err != nil {
		return false
	}
	return classifier.IsStylesheetRel(rel)
}

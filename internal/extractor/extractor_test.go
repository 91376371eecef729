package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

type fakeElement struct {
	props map[string]string
	err   error
}

func (e fakeElement) Property(_ context.Context, name string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.props[name], nil
}

type fakePage struct {
	elements map[string][]repository.Element
	queryErr map[string]error
}

func (p *fakePage) URL() string                             { return "http://example.com/" }
func (p *fakePage) Content(context.Context) (string, error) { return "<html></html>", nil }
func (p *fakePage) Query(_ context.Context, sel string) ([]repository.Element, error) {
	if err := p.queryErr[sel]; err != nil {
		return nil, err
	}
	return p.elements[sel], nil
}

func el(kv ...string) repository.Element {
	props := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		props[kv[i]] = kv[i+1]
	}
	return fakeElement{props: props}
}

func TestExtract(t *testing.T) {
	page := &fakePage{elements: map[string][]repository.Element{
		"link": {
			el("rel", "stylesheet", "href", "http://example.com/a.css"),
			el("rel", "icon", "href", "http://example.com/favicon.ico"),
			el("rel", "alternate stylesheet", "href", "http://example.com/b.css"),
			el("rel", "canonical", "href", "http://example.com/"),
		},
		"img": {
			el("src", "http://example.com/1.png"),
			el("src", ""),
			fakeElement{err: errors.New("node detached")},
			el("src", "http://example.com/2.png"),
		},
		"video>source": {el("src", "http://example.com/v.mp4")},
		"script[src]":  {el("src", "http://example.com/app.js")},
		"a": {
			el("href", "http://example.com/b"),
			el(),
			el("href", "http://example.com/a"),
		},
	}}

	res, err := Extract(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://example.com/a.css", "http://example.com/b.css"}, res.Stylesheets)
	assert.Equal(t, []string{"http://example.com/1.png", "http://example.com/2.png"}, res.Images)
	assert.Equal(t, []string{"http://example.com/v.mp4"}, res.Videos)
	assert.Equal(t, []string{"http://example.com/app.js"}, res.Scripts)
	assert.Equal(t, []string{"http://example.com/b", "http://example.com/a"}, res.PageLinks)
}

func TestExtractEmptyPage(t *testing.T) {
	res, err := Extract(context.Background(), &fakePage{})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates())
}

func TestExtractQueryFailure(t *testing.T) {
	page := &fakePage{queryErr: map[string]error{"img": errors.New("target closed")}}
	_, err := Extract(context.Background(), page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"img"`)
}

func TestCandidatesDispatchOrder(t *testing.T) {
	res := &Resources{
		Stylesheets: []string{"s"},
		Images:      []string{"i1", "i2"},
		Videos:      []string{"v"},
		Scripts:     []string{"j"},
		PageLinks:   []string{"p"},
	}
	assert.Equal(t, []Candidate{
		{"s", entity.RoleStylesheet},
		{"i1", entity.RoleImage},
		{"i2", entity.RoleImage},
		{"v", entity.RoleVideo},
		{"j", entity.RoleScript},
		{"p", entity.RolePageLink},
	}, res.Candidates())
}

// Package resolver turns a user-facing category name ("Trash Can",
// "Castle", "amenity=fuel", "dog poop bag dispenser") into one or more
// OverpassQL tag predicates ready to splice into a search query.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
)

// Kind says which step of the resolution chain produced the result.
type Kind int

const (
	// KindCompound is a hand-authored multi-predicate filter for the few
	// categories where a single key=value pair is not useful.
	KindCompound Kind = iota
	// KindTag is a single key=value predicate from the catalog or from a
	// verbatim "key=value" input.
	KindTag
	// KindRaw is a ready-to-splice predicate fragment returned by the
	// remote resolution endpoint.
	KindRaw
	// KindFallback is the broad name-regex disjunction used when nothing
	// else matched; every input resolves to something.
	KindFallback
)

// ErrNoResolution is returned when the remote resolution endpoint was
// configured but produced no usable filter. It is distinct from search
// connectivity failures and is never retried by the resolver itself.
var ErrNoResolution = errors.New("resolver: no usable filter")

// Resolved is a cacheable category resolution.
type Resolved struct {
	Kind    Kind
	Key     string // set for KindTag
	Value   string // set for KindTag
	filters []string
}

// Filters returns the OverpassQL predicate fragments to apply, e.g.
// `["amenity"="toilets"]` or `["name"~"castle",i]`.
func (r Resolved) Filters() []string {
	return r.filters
}

// Doer issues a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Resolver resolves category names. The zero remote endpoint disables the
// remote resolution step.
type Resolver struct {
	remoteEndpoint string
	httpc          Doer
	userAgent      string
}

// New returns a Resolver. remoteEndpoint may be empty, in which case
// unmatched names go straight to the generic fallback.
func New(remoteEndpoint, userAgent string, httpc Doer) *Resolver {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Resolver{remoteEndpoint: remoteEndpoint, httpc: httpc, userAgent: userAgent}
}

// Resolve runs the resolution chain, first match wins:
// builtin compound, catalog lookup, verbatim key=value, remote endpoint
// (if configured), generic fallback.
func (r *Resolver) Resolve(ctx context.Context, name string) (Resolved, error) {
	name = strings.TrimSpace(name)

	if filters := compoundFilters(name); filters != nil {
		return Resolved{Kind: KindCompound, filters: filters}, nil
	}

	if mapped, ok := Catalog[name]; ok {
		key, value, _ := strings.Cut(mapped, "=")
		return tagResolution(key, value), nil
	}

	if key, value, ok := strings.Cut(name, "="); ok {
		return tagResolution(key, value), nil
	}

	if r.remoteEndpoint != "" {
		res, err := r.resolveRemote(ctx, name)
		if err != nil {
			logger.Debug("resolver: remote resolution of %q failed: %v", name, err)
			return Resolved{}, fmt.Errorf("%w: %v", ErrNoResolution, err)
		}
		return res, nil
	}

	return fallbackResolution(name), nil
}

func tagResolution(key, value string) Resolved {
	return Resolved{
		Kind:    KindTag,
		Key:     key,
		Value:   value,
		filters: []string{fmt.Sprintf(`["%s"="%s"]`, key, value)},
	}
}

// fallbackKeys are the top-level OSM category keys tried by the generic
// fallback, alongside a case-insensitive name regex.
var fallbackKeys = []string{
	"amenity", "shop", "leisure", "tourism", "natural", "historic",
	"highway", "emergency", "man_made", "craft", "office", "sport", "building",
}

func fallbackResolution(name string) Resolved {
	snake := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	filters := make([]string, 0, len(fallbackKeys)+1)
	filters = append(filters, fmt.Sprintf(`["name"~"%s",i]`, name))
	for _, key := range fallbackKeys {
		filters = append(filters, fmt.Sprintf(`["%s"="%s"]`, key, snake))
	}
	return Resolved{Kind: KindFallback, filters: filters}
}

// resolverPrompt instructs the remote text-generation endpoint to emit a
// single OverpassQL predicate under a fixed ontology.
const resolverPrompt = `Map the point-of-interest category below to one OpenStreetMap ` +
	`tag filter. Use leisure=* for sports and recreation, shop=* for retail, ` +
	`amenity=* for services, tourism=* for tourism, emergency=* for emergency ` +
	`equipment, vending=* for dispensers, and a case-insensitive regex on name ` +
	`or brand for brand or name lookups. ` +
	`Answer with a JSON object holding exactly one field "filter" containing a ` +
	`ready-to-use OverpassQL predicate such as ["vending"="excrement_bags"]. ` +
	`Category: `

type remoteResolution struct {
	Filter string `json:"filter"`
}

func (r *Resolver) resolveRemote(ctx context.Context, name string) (Resolved, error) {
	reqURL := r.remoteEndpoint + "?q=" + url.QueryEscape(resolverPrompt+name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Resolved{}, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return Resolved{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Resolved{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Resolved{}, err
	}

	// The endpoint may wrap the JSON object in prose; slice out the first
	// '{' to the last '}' before decoding.
	raw := string(body)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Resolved{}, fmt.Errorf("no JSON object in response")
	}
	var parsed remoteResolution
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return Resolved{}, fmt.Errorf("decode filter: %w", err)
	}
	filter := strings.TrimSpace(parsed.Filter)
	if filter == "" {
		return Resolved{}, errors.New("empty filter field")
	}
	return Resolved{Kind: KindRaw, filters: []string{filter}}, nil
}

// compoundFilters returns the hand-authored multi-predicate filter for the
// small set of categories that need one, or nil.
func compoundFilters(name string) []string {
	switch name {
	case "Public Toilet":
		return []string{
			`["amenity"="toilets"]`,
			`["toilets"~"yes|designated|public"]`,
		}
	case "Trash Can", "Trash Bin":
		return []string{
			`["amenity"="waste_basket"]`,
			`["bin"="yes"]`,
			`["rubbish"="yes"]`,
			`["amenity"="waste_disposal"]`,
		}
	}
	return nil
}

package bluesky

import (
	"context"
	"sort"

	"github.com/wasilibs/go-re2"
)

// Rich text patterns, applied to the raw post text. Byte offsets are what the
// AT Protocol expects in facet indexes, so matches are taken on the UTF-8
// encoded string directly.
var (
	urlPattern     = re2.MustCompile(`https?://\S+`)
	hashtagPattern = re2.MustCompile(`#(\w+)`)
	mentionPattern = re2.MustCompile(`@(\w+(?:\.\w+)*)`)
)

// facet is an AT Protocol rich text facet: a byte range plus the features
// (link, tag, mention) that apply to it.
type facet struct {
	Index    byteSlice `json:"index"`
	Features []feature `json:"features"`
}

type byteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type feature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
	DID  string `json:"did,omitempty"`
}

const (
	featureTypeLink    = "app.bsky.richtext.facet#link"
	featureTypeTag     = "app.bsky.richtext.facet#tag"
	featureTypeMention = "app.bsky.richtext.facet#mention"
)

// handleResolver resolves a handle (e.g. alice.bsky.social) to a DID.
// Resolution failures are not fatal: the mention is simply left unlinked.
type handleResolver func(ctx context.Context, handle string) (string, error)

// detectFacets scans the text for links, hashtags and mentions and builds the
// facet list. Mentions are resolved to DIDs via resolve; unresolvable
// mentions are skipped.
func detectFacets(ctx context.Context, text string, resolve handleResolver) []facet {
	var facets []facet

	for _, m := range urlPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, facet{
			Index: byteSlice{ByteStart: m[0], ByteEnd: m[1]},
			Features: []feature{{
				Type: featureTypeLink,
				URI:  text[m[0]:m[1]],
			}},
		})
	}

	for _, m := range hashtagPattern.FindAllStringSubmatchIndex(text, -1) {
		facets = append(facets, facet{
			Index: byteSlice{ByteStart: m[0], ByteEnd: m[1]},
			Features: []feature{{
				Type: featureTypeTag,
				Tag:  text[m[2]:m[3]],
			}},
		})
	}

	if resolve != nil {
		for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
			handle := text[m[2]:m[3]]
			did, err := resolve(ctx, handle)
			if err != nil || did == "" {
				continue
			}
			facets = append(facets, facet{
				Index: byteSlice{ByteStart: m[0], ByteEnd: m[1]},
				Features: []feature{{
					Type: featureTypeMention,
					DID:  did,
				}},
			})
		}
	}

	sort.Slice(facets, func(i, j int) bool {
		return facets[i].Index.ByteStart < facets[j].Index.ByteStart
	})

	return facets
}

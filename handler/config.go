package handler

import (
	"strings"

	"github.com/MegaGrindStone/go-docsplit/splitter"
)

// LinkConfig controls the page level links assigned to chunks whose content carries no
// Sources block.
type LinkConfig struct {
	// BaseURL is the root of the published documentation. Empty disables page links.
	BaseURL string
	// URLSuffix is appended to the page name, e.g. ".html".
	URLSuffix string
	// UseURLMapping links every chunk to its own page and section anchor. When false, every
	// chunk links to BaseURL.
	UseURLMapping bool
}

func (c LinkConfig) pageLink(page, title string) string {
	if c.BaseURL == "" {
		return ""
	}
	if !c.UseURLMapping {
		return c.BaseURL
	}

	link := strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(page, "/") + c.URLSuffix
	if title == splitter.RootTitle {
		return link
	}
	if anchor := splitter.Slugify(title); anchor != "" {
		link += "#" + anchor
	}
	return link
}

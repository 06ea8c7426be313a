// Package feed builds RSS 2.0 documents for the public category listing.
package feed

import (
	"encoding/xml"
	"time"

	"blogpress/internal/models"
)

const (
	// ContentType is the media type RSS documents are served with.
	ContentType = "application/rss+xml; charset=utf-8"
	// DublinCore is the namespace of the dc:creator item element.
	DublinCore = "http://purl.org/dc/elements/1.1/"
)

// RSS is the root <rss> element.
type RSS struct {
	XMLName     xml.Name `xml:"rss"`
	Version     string   `xml:"version,attr"`
	DCNamespace string   `xml:"xmlns:dc,attr"`
	Channel     Channel  `xml:"channel"`
}

// Channel describes the feed and carries its items.
type Channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	Language      string `xml:"language,omitempty"`
	LastBuildDate string `xml:"lastBuildDate,omitempty"`
	Items         []Item `xml:"item"`
}

// Item is one category in the feed. RSS <author> must be an email address,
// so the display name goes in dc:creator.
type Item struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    GUID   `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Creator string `xml:"dc:creator,omitempty"`
}

// GUID identifies an item. Category GUIDs are their permalinks.
type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Builder turns categories into feeds. CategoryURL resolves a slug to the
// category's absolute public URL.
type Builder struct {
	Title       string
	Link        string
	Description string
	CategoryURL func(slug string) string
}

// Build returns the feed for the given categories in listing order. The
// channel's lastBuildDate is the newest publication date among them.
func (b Builder) Build(categories []models.Category) RSS {
	ch := Channel{
		Title:       b.Title,
		Link:        b.Link,
		Description: b.Description,
		Language:    "en",
		Items:       make([]Item, 0, len(categories)),
	}

	var newest time.Time
	for _, c := range categories {
		url := b.CategoryURL(c.Slug)
		ch.Items = append(ch.Items, Item{
			Title:   c.Title,
			Link:    url,
			GUID:    GUID{Value: url, IsPermaLink: true},
			PubDate: c.PublishedAt.Format(time.RFC1123Z),
			Creator: c.AuthorName,
		})
		if c.PublishedAt.After(newest) {
			newest = c.PublishedAt
		}
	}
	if !newest.IsZero() {
		ch.LastBuildDate = newest.Format(time.RFC1123Z)
	}

	return RSS{Version: "2.0", DCNamespace: DublinCore, Channel: ch}
}

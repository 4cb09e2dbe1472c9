// Copyright (c) 2025 BVK Chaitanya

package zenmarket

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bvk/zenwatch/watch"
	"github.com/shopspring/decimal"
)

// Per-platform css selectors for the search result pages. Yahoo pages
// use a different layout than the mercari/rakuten product grid.
type pageSelectors struct {
	item string

	// nameLink is used when one anchor carries both the item name and
	// the link (yahoo). Otherwise name and link have separate selectors.
	nameLink string
	name     string
	link     string

	price string
	image string
	time  string
}

var selectorMap = map[string]pageSelectors{
	watch.Yahoo: {
		item:     "div.yahoo-search-result",
		nameLink: "div.translate a.auction-url",
		price:    "div.auction-price span.amount",
		image:    "div.img-wrap img",
		time:     "div.col-md-7 div:has(> span.glyphicon-time)",
	},
	watch.Mercari: {
		item:  "div.product",
		name:  "h3.item-title",
		link:  "a.product-link",
		price: "div.price span.amount",
		image: "div.img-wrap img",
	},
	watch.Rakuten: {
		item:  "div.product",
		name:  "h3.item-title",
		link:  "a.product-link",
		price: "div.price span.amount",
		image: "div.img-wrap img",
	},
}

// Category names the site sometimes leaves in the title slot instead of
// the real item name. The anchor's title attribute has the full name.
var genericNames = []string{
	"Baby and Kids Toys, Educational toys",
	"Games / Toys / Goods, Character goods",
	"Toys, Hobbies & Games, Figures",
	"Comics, Anime",
	"Other",
	"Search results",
}

func (c *Client) parseSearchPage(platform string, doc *goquery.Document) []*watch.Item {
	sel := selectorMap[platform]

	items := []*watch.Item{}
	containers := doc.Find(sel.item)
	if containers.Length() == 0 {
		if !hasNoResultsMarker(doc) {
			slog.Warn("no item containers found on search page; site layout may have changed", "platform", platform)
		}
		return items
	}

	containers.Each(func(i int, s *goquery.Selection) {
		if v := c.parseItem(platform, sel, s); v != nil {
			items = append(items, v)
		}
	})
	return items
}

func (c *Client) parseItem(platform string, sel pageSelectors, s *goquery.Selection) *watch.Item {
	item := new(watch.Item)

	if platform == watch.Yahoo {
		anchor := s.Find(sel.nameLink).First()
		item.Name = strings.TrimSpace(anchor.Text())
		if href, ok := anchor.Attr("href"); ok {
			item.URL = c.resolveURL(href)
		}
		if t := s.Find(sel.time).First(); t.Length() != 0 {
			if mins, ok := ParseTimeRemaining(collapseSpace(t.Text())); ok {
				item.MinutesLeft = &mins
			}
		}
	} else {
		anchor := s.Find(sel.link).First()
		if href, ok := anchor.Attr("href"); ok {
			item.URL = c.resolveURL(href)
		}
		title := s.Find(sel.name).First()
		item.Name = strings.TrimSpace(title.Text())
		if attr := strings.TrimSpace(title.AttrOr("title", "")); len(attr) != 0 {
			if len(item.Name) == 0 {
				item.Name = attr
			} else if len(attr) > len(item.Name) && isGenericName(item.Name) {
				item.Name = attr
			}
		}
	}

	price := s.Find(sel.price).First()
	if price.Length() != 0 {
		raw := price.AttrOr("data-jpy", "")
		if len(raw) == 0 {
			raw = price.Text()
		}
		v, ok := ParsePrice(raw)
		if !ok {
			return nil
		}
		item.Price = v
	} else {
		return nil
	}

	img := s.Find(sel.image).First()
	if img.Length() != 0 {
		raw := img.AttrOr("data-src", "")
		if len(raw) == 0 {
			raw = img.AttrOr("src", "")
		}
		if len(raw) != 0 && !strings.HasPrefix(raw, "data:image") {
			item.ImageURL = c.resolveURL(raw)
		}
	}

	if len(item.Name) == 0 || len(item.URL) == 0 {
		return nil
	}
	return item
}

func (c *Client) resolveURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return c.baseURL.ResolveReference(u).String()
}

func isGenericName(name string) bool {
	for _, v := range genericNames {
		if name == v {
			return true
		}
	}
	return false
}

var noResultsRe = regexp.MustCompile(`(?i)find any items matching|no results found`)

func hasNoResultsMarker(doc *goquery.Document) bool {
	if doc.Find(".products-not-found-text, .search-results-empty").Length() != 0 {
		return true
	}
	return noResultsRe.MatchString(doc.Text())
}

var nonPriceRe = regexp.MustCompile(`[^\d.]`)

// ParsePrice extracts a numeric price out of a display string like
// "¥1,234" or "1234.00 JPY". Extra decimal points are treated as digit
// group separators except for the last one.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	cleaned := nonPriceRe.ReplaceAllString(raw, "")
	if strings.Count(cleaned, ".") > 1 {
		parts := strings.Split(cleaned, ".")
		cleaned = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}
	if len(cleaned) == 0 || cleaned == "." {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		slog.Warn("could not parse price string", "raw", raw, "cleaned", cleaned)
		return decimal.Zero, false
	}
	return v, true
}

var (
	daysRe    = regexp.MustCompile(`(\d+)\s+day`)
	hoursRe   = regexp.MustCompile(`(\d+)\s+hour`)
	minutesRe = regexp.MustCompile(`(\d+)\s+(?:minute|min)`)
)

// ParseTimeRemaining converts auction countdown text like
// "3 days, 17 hours" or "45 minutes" into total minutes. "< 1 minute"
// parses as zero and an ended auction parses as watch.Ended. Returns
// false when no known time unit is present. Seconds are ignored.
func ParseTimeRemaining(raw string) (int64, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if len(text) == 0 {
		return 0, false
	}
	if strings.Contains(text, "<") && strings.Contains(text, "minute") {
		return 0, true
	}
	if strings.Contains(text, "ended") || strings.Contains(text, "finished") {
		return watch.Ended, true
	}

	total := int64(0)
	parsed := false
	sum := func(re *regexp.Regexp, unitMinutes int64) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			total += v * unitMinutes
			parsed = true
		}
	}
	sum(daysRe, 24*60)
	sum(hoursRe, 60)
	sum(minutesRe, 1)
	if !parsed {
		return 0, false
	}
	return total, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

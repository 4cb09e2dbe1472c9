// Copyright (c) 2025 BVK Chaitanya

package zenmarket

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/bvk/zenwatch/watch"
	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"¥1,234", "1234", true},
		{"1234.00 JPY", "1234", true},
		{"1.234.56", "1234.56", true},
		{"¥12", "12", true},
		{"0", "0", true},
		{"", "", false},
		{".", "", false},
		{"yen", "", false},
	}
	for _, test := range tests {
		v, ok := ParsePrice(test.raw)
		if ok != test.ok {
			t.Errorf("ParsePrice(%q): want ok=%v, got %v", test.raw, test.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		want, err := decimal.NewFromString(test.want)
		if err != nil {
			t.Fatal(err)
		}
		if !v.Equal(want) {
			t.Errorf("ParsePrice(%q): want %s, got %s", test.raw, want, v)
		}
	}
}

func TestParseTimeRemaining(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"3 days, 17 hours", 3*24*60 + 17*60, true},
		{"5 hours, 30 minutes", 5*60 + 30, true},
		{"45 minutes", 45, true},
		{"8 min 30 sec", 8, true},
		{"< 1 minute", 0, true},
		{"Ended", watch.Ended, true},
		{"Auction finished", watch.Ended, true},
		{"", 0, false},
		{"soon", 0, false},
		{"30 sec", 0, false},
	}
	for _, test := range tests {
		v, ok := ParseTimeRemaining(test.raw)
		if ok != test.ok {
			t.Errorf("ParseTimeRemaining(%q): want ok=%v, got %v", test.raw, test.ok, ok)
			continue
		}
		if ok && v != test.want {
			t.Errorf("ParseTimeRemaining(%q): want %d, got %d", test.raw, test.want, v)
		}
	}
}

func TestSearchURL(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	addr, err := c.SearchURL(watch.Mercari, "hololive plush", "")
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://zenmarket.jp/en/mercari.aspx?q=hololive+plush"; addr != want {
		t.Errorf("want %q, got %q", want, addr)
	}

	addr, err = c.SearchURL(watch.Mercari, "figure", "LaunchDate")
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://zenmarket.jp/en/mercari.aspx?q=figure&sort=LaunchDate"; addr != want {
		t.Errorf("want %q, got %q", want, addr)
	}

	addr, err = c.SearchURL(watch.Yahoo, "figure", watch.EndingSoonSortOrder)
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://zenmarket.jp/en/yahoo.aspx?q=figure&sort=endtime&order=asc"; addr != want {
		t.Errorf("want %q, got %q", want, addr)
	}

	if _, err := c.SearchURL("ebay", "figure", ""); err == nil {
		t.Errorf("want error for unsupported platform, got nil")
	}
}

const mercariPage = `
<html><body>
<div class="product">
  <a class="product-link" href="/en/mercari.aspx?itemCode=m111"></a>
  <h3 class="item-title" title="Hololive Shirakami Fubuki plush doll">Comics, Anime</h3>
  <div class="price"><span class="amount" data-jpy="2,500">¥2,500</span></div>
  <div class="img-wrap"><img data-src="/images/m111.jpg"></div>
</div>
<div class="product">
  <a class="product-link" href="/en/mercari.aspx?itemCode=m222"></a>
  <h3 class="item-title">Gawr Gura figure</h3>
  <div class="price"><span class="amount">¥9,800</span></div>
  <div class="img-wrap"><img src="data:image/gif;base64,R0lGOD"></div>
</div>
<div class="product">
  <a class="product-link" href="/en/mercari.aspx?itemCode=m333"></a>
  <h3 class="item-title">No price item</h3>
  <div class="img-wrap"><img src="/images/m333.jpg"></div>
</div>
</body></html>`

func TestParseMercariPage(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(mercariPage))
	if err != nil {
		t.Fatal(err)
	}

	items := c.parseSearchPage(watch.Mercari, doc)
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Name != "Hololive Shirakami Fubuki plush doll" {
		t.Errorf("want title attribute to replace generic name, got %q", first.Name)
	}
	if first.URL != "https://zenmarket.jp/en/mercari.aspx?itemCode=m111" {
		t.Errorf("unexpected item url %q", first.URL)
	}
	if !first.Price.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("want price 2500, got %s", first.Price)
	}
	if first.ImageURL != "https://zenmarket.jp/images/m111.jpg" {
		t.Errorf("unexpected image url %q", first.ImageURL)
	}
	if first.MinutesLeft != nil {
		t.Errorf("mercari items must not carry minutes left")
	}

	second := items[1]
	if second.Name != "Gawr Gura figure" {
		t.Errorf("unexpected name %q", second.Name)
	}
	if len(second.ImageURL) != 0 {
		t.Errorf("inline data image must be dropped, got %q", second.ImageURL)
	}
	if !second.Price.Equal(decimal.NewFromInt(9800)) {
		t.Errorf("want price 9800, got %s", second.Price)
	}
}

const yahooPage = `
<html><body>
<div class="yahoo-search-result">
  <div class="translate"><a class="auction-url" href="/en/auction.aspx?itemCode=y111">Holo figure lot</a></div>
  <div class="auction-price"><span class="amount" data-jpy="3,000">¥3,000</span></div>
  <div class="img-wrap"><img src="/images/y111.jpg"></div>
  <div class="col-md-7"><div><span class="glyphicon-time"></span> 3 days, 17 hours</div></div>
</div>
<div class="yahoo-search-result">
  <div class="translate"><a class="auction-url" href="/en/auction.aspx?itemCode=y222">Ended auction</a></div>
  <div class="auction-price"><span class="amount">¥500</span></div>
  <div class="col-md-7"><div><span class="glyphicon-time"></span> Ended</div></div>
</div>
</body></html>`

func TestParseYahooPage(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(yahooPage))
	if err != nil {
		t.Fatal(err)
	}

	items := c.parseSearchPage(watch.Yahoo, doc)
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Name != "Holo figure lot" {
		t.Errorf("unexpected name %q", first.Name)
	}
	if first.MinutesLeft == nil || *first.MinutesLeft != 3*24*60+17*60 {
		t.Errorf("unexpected minutes left %v", first.MinutesLeft)
	}

	second := items[1]
	if second.MinutesLeft == nil || *second.MinutesLeft != watch.Ended {
		t.Errorf("want ended sentinel, got %v", second.MinutesLeft)
	}
}

const emptyPage = `
<html><body>
<div class="products-not-found-text">We couldn't find any items matching your search.</div>
</body></html>`

func TestParseNoResults(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(emptyPage))
	if err != nil {
		t.Fatal(err)
	}

	items := c.parseSearchPage(watch.Mercari, doc)
	if items == nil {
		t.Fatal("want non-nil empty result")
	}
	if len(items) != 0 {
		t.Errorf("want no items, got %d", len(items))
	}
}

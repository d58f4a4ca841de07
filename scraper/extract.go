package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/F8ai/sourcing-agent/models"
	"github.com/F8ai/sourcing-agent/parser"
	"github.com/PuerkitoBio/goquery"
)

// Heuristic extraction over a fetched supplier page. Every extractor is a
// total function: false positives and absent fields are acceptable, a
// record is always produced.

var (
	navClassPattern     = regexp.MustCompile(`nav|menu|product`)
	cardClassPattern    = regexp.MustCompile(`product|item|card`)
	serviceClassPattern = regexp.MustCompile(`service|consulting|support`)

	phonePattern = regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	streetSuffix   = `(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Place|Pl|Court|Ct)`
	addressPattern = regexp.MustCompile(`\d+\s+[A-Za-z\s]+` + streetSuffix)

	fullAddressPattern = regexp.MustCompile(`\d+\s+[A-Za-z\s]+` + streetSuffix + `[^,]*,\s*[A-Za-z\s]+,\s*[A-Z]{2}\s*\d{5}`)
	cityStatePattern   = regexp.MustCompile(`[A-Za-z][A-Za-z\s]*,\s*[A-Z]{2}\b`)
	cityRegionPattern  = regexp.MustCompile(`[A-Za-z][A-Za-z\s]*,\s*[A-Za-z][A-Za-z\s]*`)
)

var productKeywords = []string{
	"product", "products", "catalog", "shop", "store", "buy",
	"seeds", "clones", "nutrients", "equipment", "lighting",
	"packaging", "containers", "supplies", "accessories",
}

var certificationKeywords = []string{
	"certified", "certification", "licensed", "license", "approved",
	"omri", "organic", "usda", "fda", "iso", "gmp", "haccp",
	"kosher", "halal", "vegan", "gluten-free",
}

// maxProductCards caps how many product-card elements are inspected.
const maxProductCards = 10

// certContextRadius is the text window captured around a certification term.
const certContextRadius = 50

// extract parses a fetched page and builds a success record, merging seed
// values from the source descriptor.
func extract(body []byte, pageURL string, seed models.Source) (*models.ScrapeRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	pageText := doc.Text()

	return &models.ScrapeRecord{
		URL:            pageURL,
		Timestamp:      time.Now(),
		Status:         models.StatusSuccess,
		Title:          extractTitle(doc),
		Description:    extractDescription(doc),
		Products:       extractProducts(doc, seed.Products),
		ContactInfo:    extractContactInfo(doc, pageText),
		Location:       extractLocation(pageText, seed.Location),
		Certifications: extractCertifications(pageText),
		Services:       extractServices(doc, seed.Services),
	}, nil
}

// extractTitle prefers the <title> text, falling back to the first <h1>.
func extractTitle(doc *goquery.Document) string {
	if title := parser.CleanText(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return parser.CleanText(doc.Find("h1").First().Text())
}

// extractDescription tries the description meta tag, then og:description,
// then the first substantial paragraph truncated to 200 characters.
func extractDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name='description']`).Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			return desc
		}
	}
	if desc, ok := doc.Find(`meta[property='og:description']`).Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			return desc
		}
	}
	if text := parser.CleanText(doc.Find("p").First().Text()); len(text) > 50 {
		return parser.Truncate(text, 200)
	}
	return ""
}

func extractProducts(doc *goquery.Document, seed []string) []string {
	products := make(map[string]struct{})
	add := func(value string) {
		if value = parser.CleanText(value); value != "" {
			products[value] = struct{}{}
		}
	}

	// Navigation and menu entries mentioning a product keyword.
	doc.Find("a, li").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if !navClassPattern.MatchString(class) {
			return
		}
		text := parser.CleanText(sel.Text())
		lower := strings.ToLower(text)
		for _, keyword := range productKeywords {
			if strings.Contains(lower, keyword) {
				add(text)
				return
			}
		}
	})

	// Headings inside the first product/item/card containers.
	inspected := 0
	doc.Find("div, section").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		if !cardClassPattern.MatchString(class) {
			return true
		}
		inspected++
		if heading := sel.Find("h2, h3, h4").First(); heading.Length() > 0 {
			add(heading.Text())
		}
		return inspected < maxProductCards
	})

	for _, product := range seed {
		add(product)
	}
	return sortedSet(products)
}

func extractContactInfo(doc *goquery.Document, pageText string) *models.ContactInfo {
	info := &models.ContactInfo{}

	if match := phonePattern.FindString(pageText); match != "" {
		info.Phone = strings.TrimSpace(match)
	}
	if match := emailPattern.FindString(pageText); match != "" {
		info.Email = match
	}
	if match := addressPattern.FindString(pageText); match != "" {
		info.Address = parser.CleanText(match)
	}

	// Explicit contact links beat anything the regexes found.
	doc.Find(`a[href^='mailto:'], a[href^='tel:']`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		switch {
		case strings.HasPrefix(href, "mailto:"):
			info.Email = strings.TrimPrefix(href, "mailto:")
		case strings.HasPrefix(href, "tel:"):
			info.Phone = strings.TrimPrefix(href, "tel:")
		}
	})

	return info
}

// extractLocation prefers the catalog's seed location, then scans the page
// for a full street address, a "City, ST" pair, or any comma-separated
// place name.
func extractLocation(pageText, seed string) string {
	if seed != "" {
		return seed
	}
	for _, pattern := range []*regexp.Regexp{fullAddressPattern, cityStatePattern, cityRegionPattern} {
		if match := pattern.FindString(pageText); match != "" {
			return parser.CleanText(match)
		}
	}
	return ""
}

func extractCertifications(pageText string) []string {
	lower := strings.ToLower(pageText)
	found := make(map[string]struct{})

	for _, keyword := range certificationKeywords {
		index := strings.Index(lower, keyword)
		if index < 0 {
			continue
		}
		context := parser.CleanText(textWindow(lower, index, certContextRadius))
		if context != "" {
			found[context] = struct{}{}
		}
	}
	return sortedSet(found)
}

func extractServices(doc *goquery.Document, seed []string) []string {
	services := make(map[string]struct{})
	add := func(value string) {
		if value = parser.CleanText(value); value != "" {
			services[value] = struct{}{}
		}
	}

	for _, service := range seed {
		add(service)
	}

	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if !serviceClassPattern.MatchString(class) {
			return
		}
		if heading := sel.Find("h2, h3, h4").First(); heading.Length() > 0 {
			add(heading.Text())
		}
	})
	return sortedSet(services)
}

// textWindow returns the text surrounding byte offset index, snapped
// outwards to rune boundaries.
func textWindow(text string, index, radius int) string {
	start := index - radius
	if start < 0 {
		start = 0
	}
	end := index + radius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return text[start:end]
}

// sortedSet flattens a string set into a sorted slice so extraction output
// is stable across runs.
func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

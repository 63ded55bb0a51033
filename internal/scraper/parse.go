package scraper

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"ruokalista/internal/menu"
)

const (
	classListing    = "ruoka-template-header"
	classLabel      = "ruoka-header-pvm"
	classMainMeal   = "ruoka-header-ruoka"
	classVegetarian = "ruoka-header-kasvisruoka"

	vegetarianPrefix = "kasvisruoka"
)

var finnishFold = cases.Lower(language.Finnish)

// Parse extracts up to menu.MaxDays listings from an HTML document. Listings
// missing any of the label, main meal or vegetarian meal elements are skipped.
// A document without listings yields an empty slice and no error.
func Parse(r io.Reader) ([]menu.Day, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	days := make([]menu.Day, 0, menu.MaxDays)
	for _, listing := range findAll(doc, classListing) {
		if len(days) >= menu.MaxDays {
			break
		}
		label := findFirst(listing, classLabel)
		main := findFirst(listing, classMainMeal)
		vege := findFirst(listing, classVegetarian)
		if label == nil || main == nil || vege == nil {
			continue
		}
		days = append(days, menu.Day{
			Label:          normalizeLabel(textContent(label)),
			MainMeal:       normalizeMeal(textContent(main)),
			VegetarianMeal: normalizeVegetarian(textContent(vege)),
		})
	}
	return days, nil
}

// normalizeLabel removes every whitespace rune: "Ma 12.10." becomes "Ma12.10.".
func normalizeLabel(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), "")
}

func normalizeMeal(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), " ")
}

func normalizeVegetarian(value string) string {
	meal := normalizeMeal(value)
	if len(meal) < len(vegetarianPrefix) {
		return meal
	}
	if finnishFold.String(meal[:len(vegetarianPrefix)]) != vegetarianPrefix {
		return meal
	}
	rest := meal[len(vegetarianPrefix):]
	// Only a standalone word is a prefix: "Kasvisruokapihvit" is a dish.
	if rest != "" && rest[0] != ' ' && rest[0] != ':' {
		return meal
	}
	rest = strings.TrimLeft(rest, " :")
	return strings.TrimSpace(rest)
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, field := range strings.Fields(attr.Val) {
			if field == class {
				return true
			}
		}
	}
	return false
}

// findAll returns descendants of root carrying class, in document order.
func findAll(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if hasClass(c, class) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first descendant of root carrying class.
func findFirst(root *html.Node, class string) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, class) {
			return c
		}
		if found := findFirst(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

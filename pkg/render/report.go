package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/matchboard/internal/logger"
)

const tablePlaceholder = "MATCHBOARDTABLE%dEND"

// ReportMarkdown converts a rendered page into markdown for text clients.
// Forms, scripts and styles are dropped. Tables become markdown tables.
func ReportMarkdown(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse report html: %w", err)
	}
	doc.Find("script, style, form, head").Remove()

	var tables []string
	doc.Find("table").Each(func(i int, t *goquery.Selection) {
		tables = append(tables, tableMarkdown(t))
		t.ReplaceWithHtml(fmt.Sprintf("<p>"+tablePlaceholder+"</p>", i))
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialise report html: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		logger.Error("Failed to convert HTML to Markdown:", err)
		return "", err
	}
	for i, table := range tables {
		md = strings.Replace(md, fmt.Sprintf(tablePlaceholder, i), strings.TrimRight(table, "\n"), 1)
	}
	return strings.TrimSpace(md) + "\n", nil
}

func tableMarkdown(t *goquery.Selection) string {
	var headers []string
	t.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	var rows [][]string
	t.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, row)
	})
	return Table(headers, rows)
}

// Title returns the text of the page's first h1
func Title(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

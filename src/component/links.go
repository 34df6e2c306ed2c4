package component

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/lms-ally/syncer/src/utils/logger"

	"github.com/PuerkitoBio/goquery"
	"gorm.io/gorm"
)

// Prefix of links to files embedded in HTML fields
const PluginfilePlaceholder = "@@PLUGINFILE@@/"

var linkAttributes = []string{"src", "href", "data", "poster"}

// Characters that may follow the file name inside a link
const linkEnd = "\"'?# \t\n\r\f>"

func isLink(link string, oldNames []string) bool {
	for _, old := range oldNames {
		rest, ok := strings.CutPrefix(link, PluginfilePlaceholder+old)
		if ok && (rest == "" || rest[0] == '?' || rest[0] == '#') {
			return true
		}
	}
	return false
}

// Swaps the file name right after each placeholder, leaving every other byte of the document as it was
func replaceLinks(content string, oldNames []string, newName string) (string, bool) {
	var (
		out     strings.Builder
		changed bool
	)
	for i := 0; i < len(content); {
		j := strings.Index(content[i:], PluginfilePlaceholder)
		if j < 0 {
			out.WriteString(content[i:])
			break
		}
		start := i + j + len(PluginfilePlaceholder)
		out.WriteString(content[i:start])
		i = start

		for _, old := range oldNames {
			end := i + len(old)
			if !strings.HasPrefix(content[i:], old) {
				continue
			}
			if end < len(content) && !strings.ContainsRune(linkEnd, rune(content[end])) {
				continue
			}
			out.WriteString(newName)
			i = end
			changed = true
			break
		}
	}
	return out.String(), changed
}

// ReplaceFileLinks points embedded links to a renamed file. Returns false if nothing referenced the old name.
func ReplaceFileLinks(content, oldName, newName string) (out string, changed bool, err error) {
	oldNames := []string{url.PathEscape(oldName), oldName}
	if escaped := html.EscapeString(oldName); escaped != oldName {
		oldNames = append(oldNames, escaped)
	}

	found := false
	for _, old := range oldNames {
		found = found || strings.Contains(content, PluginfilePlaceholder+old)
	}
	if !found {
		return content, false, nil
	}

	// Only documents linking to the file through an attribute are touched
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content, false, err
	}

	linked := false
	doc.Find("[src],[href],[data],[poster]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		for _, attr := range linkAttributes {
			v, ok := sel.Attr(attr)
			if ok && isLink(v, oldNames) {
				linked = true
				return false
			}
		}
		return true
	})
	if !linked {
		return content, false, nil
	}

	out, changed = replaceLinks(content, oldNames, url.PathEscape(newName))
	return out, changed, nil
}

type htmlRow struct {
	Id   int64
	Html string
}

// Rewrites the field of every row where idField equals id
func updateFileNamesInHTMLBy(ctx context.Context, db *gorm.DB, table, idField, field string, id int64, oldName, newName string) (err error) {
	var rows []htmlRow
	err = db.WithContext(ctx).
		Table(table).
		Select("id, "+field+" AS html").
		Where(idField+" = ?", id).
		Scan(&rows).
		Error
	if err != nil {
		return
	}

	for _, row := range rows {
		replaced, changed, err := ReplaceFileLinks(row.Html, oldName, newName)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		err = db.WithContext(ctx).
			Table(table).
			Where("id = ?", row.Id).
			Update(field, replaced).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}

func updateFileNamesInHTML(ctx context.Context, db *gorm.DB, table, field string, id int64, oldName, newName string) error {
	return updateFileNamesInHTMLBy(ctx, db, table, "id", field, id, oldName, newName)
}

func logUnsupportedArea(component, area string) {
	logger.NewSublogger("component").
		WithField("component", component).
		WithField("filearea", area).
		Debug("File area not supported for link replacement")
}

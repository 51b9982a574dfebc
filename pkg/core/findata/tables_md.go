package findata

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var separatorRowRe = regexp.MustCompile(`^\s*\|?[\s:\-|]*-[\s:\-|]*\|?\s*$`)

// markdownTableMatches extracts metrics from pipe-delimited rows. Proper GFM
// tables (header + delimiter row) go through goldmark's table extension so
// multi-year column selection works; headerless pipe rows are scanned
// line-by-line, every row treated as data.
func (p *Parser) markdownTableMatches(input string, fiscalYear string) []Match {
	var pipeLines []string
	hasSeparator := false
	for _, line := range strings.Split(input, "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		pipeLines = append(pipeLines, line)
		if separatorRowRe.MatchString(line) {
			hasSeparator = true
		}
	}
	if len(pipeLines) == 0 {
		return nil
	}

	if hasSeparator {
		return gfmTableMatches(strings.Join(pipeLines, "\n"), fiscalYear)
	}

	var matches []Match
	for _, line := range pipeLines {
		cells := splitPipeRow(line)
		if m, ok := rowMatch(cells, 1); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

// gfmTableMatches parses a markdown table block with goldmark and walks the
// resulting AST.
func gfmTableMatches(block string, fiscalYear string) []Match {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(block)
	doc := md.Parser().Parse(text.NewReader(source))

	var matches []Match
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		tbl, ok := n.(*east.Table)
		if !ok {
			return ast.WalkContinue, nil
		}

		var headers []string
		var rows [][]string
		for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, strings.TrimSpace(string(nodeText(cell, source))))
			}
			if _, isHeader := row.(*east.TableHeader); isHeader {
				headers = cells
			} else {
				rows = append(rows, cells)
			}
		}

		col := yearColumn(headers, fiscalYear)
		for _, cells := range rows {
			if m, ok := rowMatch(cells, col); ok {
				matches = append(matches, m)
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return matches
}

// nodeText collects the raw text of all text descendants of a node.
func nodeText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.Bytes()
}

// splitPipeRow splits "| Revenue | $50B |" into trimmed cells, dropping the
// empty edge cells produced by leading/trailing pipes.
func splitPipeRow(line string) []string {
	parts := strings.Split(line, "|")
	var cells []string
	for i, part := range parts {
		cell := strings.TrimSpace(part)
		if cell == "" && (i == 0 || i == len(parts)-1) {
			continue
		}
		cells = append(cells, cell)
	}
	return cells
}

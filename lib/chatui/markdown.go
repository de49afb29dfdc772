// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	terminalMarkdown     goldmark.Markdown
	terminalMarkdownOnce sync.Once
)

func markdownParser() goldmark.Markdown {
	terminalMarkdownOnce.Do(func() {
		terminalMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return terminalMarkdown
}

// wrapBreakpoints are the characters ansi.Wrap may break after in
// addition to spaces.
const wrapBreakpoints = " ,.;-+|/"

// RenderMarkdown renders a message body as styled terminal text
// wrapped to width. Fenced code blocks with a language tag are
// highlighted. The output always uses the ANSI 256-color profile,
// whatever the environment reports.
func RenderMarkdown(body string, theme Theme, width int) string {
	if body == "" {
		return ""
	}

	source := []byte(body)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	lipRenderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &terminalRenderer{
		source: source,
		theme:  theme,
		width:  max(width, 10),
		styles: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// terminalRenderer accumulates inline content per block and wraps it
// when the block closes.
type terminalRenderer struct {
	source []byte
	theme  Theme
	width  int
	styles *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	// prefix is prepended to every emitted line: quote bars and list
	// indentation. bullet replaces it for the next line only.
	prefix      []string
	prefixWidth int
	bullet      string

	bold, italic, strike int

	lists []listFrame

	// blank is true when output ends with an empty line or is empty.
	blank bool
}

type listFrame struct {
	ordered bool
	next    int
	tight   bool
}

func (r *terminalRenderer) style() lipgloss.Style { return r.styles.NewStyle() }

func (r *terminalRenderer) pushPrefix(value string) {
	r.prefix = append(r.prefix, value)
	r.prefixWidth += ansi.StringWidth(value)
}

func (r *terminalRenderer) popPrefix() {
	last := r.prefix[len(r.prefix)-1]
	r.prefix = r.prefix[:len(r.prefix)-1]
	r.prefixWidth -= ansi.StringWidth(last)
}

func (r *terminalRenderer) linePrefix() string {
	if r.bullet != "" {
		bullet := r.bullet
		r.bullet = ""
		return bullet
	}
	return strings.Join(r.prefix, "")
}

// emitLines writes each line of block with the current prefix.
func (r *terminalRenderer) emitLines(block string) {
	continuation := strings.Join(r.prefix, "")
	for index, line := range strings.Split(block, "\n") {
		if index == 0 {
			r.output.WriteString(r.linePrefix())
		} else {
			r.output.WriteString(continuation)
		}
		r.output.WriteString(line)
		r.output.WriteByte('\n')
	}
	r.blank = false
}

// separate ends the current block with an empty line unless inside a
// tight list.
func (r *terminalRenderer) separate() {
	if r.blank || r.inTightList() {
		return
	}
	r.output.WriteByte('\n')
	r.blank = true
}

func (r *terminalRenderer) inTightList() bool {
	return len(r.lists) > 0 && r.lists[len(r.lists)-1].tight
}

func (r *terminalRenderer) contentWidth() int {
	return max(r.width-r.prefixWidth, 10)
}

func (r *terminalRenderer) flush() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}
	r.emitLines(ansi.Wrap(content, r.contentWidth(), wrapBreakpoints))
}

func (r *terminalRenderer) styled(content string) string {
	style := r.style().Foreground(r.theme.NormalText)
	if r.bold > 0 {
		style = style.Bold(true)
	}
	if r.italic > 0 {
		style = style.Italic(true)
	}
	if r.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (r *terminalRenderer) faint(content string) string {
	return r.style().Foreground(r.theme.FaintText).Render(content)
}

func (r *terminalRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Document:

	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			r.flush()
			r.separate()
		}

	case *ast.Heading:
		if !entering {
			content := ansi.Strip(r.inline.String())
			r.inline.Reset()
			heading := r.style().Bold(true).Foreground(r.theme.HeaderForeground)
			r.emitLines(ansi.Wrap(heading.Render(content), r.contentWidth(), wrapBreakpoints))
			r.separate()
		}

	case *ast.FencedCodeBlock:
		if entering {
			r.emitCode(r.blockText(node.Lines()), string(node.Language(r.source)))
			r.separate()
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			r.emitCode(r.blockText(node.Lines()), "")
			r.separate()
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			r.pushPrefix(r.style().Foreground(r.theme.BorderColor).Render("│ "))
		} else {
			r.popPrefix()
			r.separate()
		}

	case *ast.List:
		if entering {
			r.lists = append(r.lists, listFrame{ordered: node.IsOrdered(), next: node.Start, tight: node.IsTight})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			r.separate()
		}

	case *ast.ListItem:
		if entering {
			r.enterListItem()
		} else {
			r.popPrefix()
		}

	case *ast.ThematicBreak:
		if entering {
			rule := r.style().Foreground(r.theme.BorderColor).Render(strings.Repeat("─", r.contentWidth()))
			r.emitLines(rule)
			r.separate()
		}

	case *ast.HTMLBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		if stripped := strings.TrimSpace(stripTags(r.blockText(node.Lines()))); stripped != "" {
			r.emitLines(r.faint(stripped))
			r.separate()
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			r.inline.WriteString(r.styled(string(node.Segment.Value(r.source))))
			switch {
			case node.HardLineBreak():
				r.inline.WriteString("\n")
			case node.SoftLineBreak():
				r.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			r.inline.WriteString(r.styled(string(node.Value)))
		}

	case *ast.Emphasis:
		counter := &r.italic
		if node.Level >= 2 {
			counter = &r.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case *extast.Strikethrough:
		if entering {
			r.strike++
		} else {
			r.strike--
		}

	case *ast.CodeSpan:
		if !entering {
			return ast.WalkContinue, nil
		}
		var code strings.Builder
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				code.Write(textNode.Segment.Value(r.source))
			}
		}
		r.inline.WriteString(r.faint(code.String()))
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			return ast.WalkContinue, nil
		}
		if destination := string(node.Destination); destination != "" {
			link := r.style().Foreground(r.theme.LinkForeground).Render(destination)
			r.inline.WriteString(" " + r.faint("(") + link + r.faint(")"))
		}

	case *ast.AutoLink:
		if entering {
			r.inline.WriteString(r.style().Foreground(r.theme.LinkForeground).Render(string(node.URL(r.source))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		if entering {
			r.inline.WriteString(r.faint(fmt.Sprintf("[image: %s]", node.Destination)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			var raw strings.Builder
			for index := 0; index < node.Segments.Len(); index++ {
				segment := node.Segments.At(index)
				raw.Write(segment.Value(r.source))
			}
			if stripped := stripTags(raw.String()); stripped != "" {
				r.inline.WriteString(r.faint(stripped))
			}
		}

	case *extast.TaskCheckBox:
		if entering {
			if node.IsChecked {
				r.inline.WriteString(r.styled("[x] "))
			} else {
				r.inline.WriteString(r.styled("[ ] "))
			}
		}
	}
	return ast.WalkContinue, nil
}

func (r *terminalRenderer) enterListItem() {
	frame := &r.lists[len(r.lists)-1]
	marker := "• "
	if frame.ordered {
		marker = fmt.Sprintf("%d. ", frame.next)
		frame.next++
	}
	r.bullet = strings.Join(r.prefix, "") + marker
	r.pushPrefix(strings.Repeat(" ", ansi.StringWidth(marker)))
}

func (r *terminalRenderer) blockText(lines *text.Segments) string {
	var content strings.Builder
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		content.Write(segment.Value(r.source))
	}
	return strings.TrimRight(content.String(), "\n")
}

// emitCode writes a code block, highlighted when language is known to
// chroma and faint otherwise. Code is never wrapped.
func (r *terminalRenderer) emitCode(code, language string) {
	rendered := r.faint(code)
	if language != "" {
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, code, language, "terminal256", "monokai"); err == nil {
			rendered = strings.TrimRight(highlighted.String(), "\n")
		}
	}
	r.emitLines(rendered)
}

// stripTags removes anything between angle brackets.
func stripTags(html string) string {
	var result strings.Builder
	inTag := false
	for _, character := range html {
		switch {
		case character == '<':
			inTag = true
		case character == '>' && inTag:
			inTag = false
		case !inTag:
			result.WriteRune(character)
		}
	}
	return result.String()
}

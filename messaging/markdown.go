// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/bureau-foundation/mxchat/lib/schema"
)

var (
	htmlMarkdown     goldmark.Markdown
	htmlMarkdownOnce sync.Once
)

// markdownConverter is built once; goldmark.Markdown is safe for
// concurrent Convert calls. Raw HTML in the source is escaped, not
// passed through.
func markdownConverter() goldmark.Markdown {
	htmlMarkdownOnce.Do(func() {
		htmlMarkdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return htmlMarkdown
}

// NewTextMessage creates a plain m.text message.
func NewTextMessage(body string) schema.MessageContent {
	return schema.MessageContent{
		MsgType: schema.MsgTypeText,
		Body:    body,
	}
}

// NewMarkdownMessage creates an m.text message whose body is the
// markdown source. When the source renders to anything richer than a
// single plain paragraph, the HTML rendering is attached as
// formatted_body so capable clients show the formatting. Conversion
// failures fall back to plain text.
func NewMarkdownMessage(body string) schema.MessageContent {
	content := NewTextMessage(body)

	var buffer bytes.Buffer
	if err := markdownConverter().Convert([]byte(body), &buffer); err != nil {
		return content
	}
	rendered := strings.TrimSpace(buffer.String())
	if isPlainParagraph(rendered, body) {
		return content
	}

	content.Format = schema.FormatHTML
	content.FormattedBody = rendered
	return content
}

// isPlainParagraph reports whether rendered is just body wrapped in a
// paragraph element, i.e. the markdown carried no formatting.
func isPlainParagraph(rendered, body string) bool {
	inner, found := strings.CutPrefix(rendered, "<p>")
	if !found {
		return false
	}
	inner, found = strings.CutSuffix(inner, "</p>")
	if !found {
		return false
	}
	return inner == strings.TrimSpace(body)
}

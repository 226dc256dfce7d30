package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

const (
	// maxBodyLength caps the extracted body, in runes.
	maxBodyLength = 500
	// truncationMarker is appended when the body exceeds the cap.
	truncationMarker = "\n[content truncated]"
)

// Extractor decodes raw messages into normalized EmailContent.
type Extractor struct {
	logger      *zap.Logger
	mdConverter *converter.Converter
}

// NewExtractor creates a new content extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{
		logger: logger,
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Extract decodes header fields and selects a readable body. A decode
// failure on a non-critical field (sender, subject) degrades to the raw
// header value; an unparsable date fails the whole extraction since the
// dedup key depends on it.
func (e *Extractor) Extract(raw []byte) (*core.EmailContent, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		if mr == nil {
			return nil, fmt.Errorf("%w: reading message: %v", core.ErrParse, err)
		}
		// Header-level charset issues; the decoded fields below degrade
		// to raw values where needed.
		e.logger.Debug("Message header decoded with issues", zap.Error(err))
	}
	defer mr.Close()

	header := mr.Header

	var sender string
	if addrs, err := header.AddressList("From"); err == nil && len(addrs) > 0 {
		if addrs[0].Name != "" {
			sender = fmt.Sprintf("%s <%s>", addrs[0].Name, addrs[0].Address)
		} else {
			sender = addrs[0].Address
		}
	} else {
		sender = header.Get("From")
	}

	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}

	date, err := header.Date()
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable date %q: %v", core.ErrParse, header.Get("Date"), err)
	}

	identity, _ := header.MessageID()
	if identity == "" {
		identity = fmt.Sprintf("%s|%d", sender, date.Unix())
	}

	return &core.EmailContent{
		From:     sender,
		Subject:  subject,
		Identity: identity,
		Date:     date,
		Body:     capBody(e.extractBody(mr)),
	}, nil
}

// extractBody walks the message parts depth-first and applies the
// decoding chain: first text/plain part, else first text/html part
// converted to readable text, else empty.
func (e *Extractor) extractBody(mr *mail.Reader) string {
	var html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken part leaves whatever was collected so far
			e.logger.Debug("Stopping body scan on malformed part", zap.Error(err))
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue // attachments are out of scope
		}

		contentType, _, _ := inline.ContentType()
		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			return string(body)
		case strings.HasPrefix(contentType, "text/html") && html == "":
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			html = string(body)
		}
	}

	if html != "" {
		return e.htmlToText(html)
	}
	return ""
}

// htmlToText converts an HTML body to readable markdown text. If
// conversion fails or produces nothing, the raw HTML is returned.
func (e *Extractor) htmlToText(html string) string {
	result, err := e.mdConverter.ConvertString(html)
	if err != nil || strings.TrimSpace(result) == "" {
		e.logger.Debug("HTML conversion failed, keeping raw markup", zap.Error(err))
		return html
	}
	return strings.TrimSpace(result)
}

// capBody truncates the body to maxBodyLength runes and appends the
// truncation marker. Bodies within the cap pass through unmodified.
func capBody(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyLength {
		return body
	}
	return string(runes[:maxBodyLength]) + truncationMarker
}

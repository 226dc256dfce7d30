package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/mikey/mail-notify/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestExtract_SimplePlainText(t *testing.T) {
	raw := crlf(
		"From: Alice Example <alice@example.com>",
		"To: bob@example.com",
		"Subject: Quarterly report",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Message-Id: <simple123@example.com>",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"The report is attached below.",
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err)
	assert.Equal(t, "Alice Example <alice@example.com>", content.From)
	assert.Equal(t, "Quarterly report", content.Subject)
	assert.Equal(t, "<simple123@example.com>", content.Identity)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), content.Date.UTC())
	assert.Equal(t, "The report is attached below.", content.Body,
		"bodies within the cap pass through unmodified")
}

func TestExtract_LongBodyTruncated(t *testing.T) {
	body := strings.Repeat("a", 600)
	raw := crlf(
		"From: alice@example.com",
		"Subject: long",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Message-Id: <long@example.com>",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err)
	runes := []rune(content.Body)
	assert.Len(t, runes, 500+len([]rune(truncationMarker)))
	assert.Equal(t, strings.Repeat("a", 500), string(runes[:500]),
		"first 500 characters are preserved")
	assert.True(t, strings.HasSuffix(content.Body, truncationMarker))
}

func TestExtract_MultipartPrefersPlainText(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"Subject: multipart",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Message-Id: <mp@example.com>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=b1",
		"",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html version</p>",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain version",
		"--b1--",
		"",
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err)
	assert.Equal(t, "plain version", content.Body,
		"text/plain wins even when text/html comes first")
}

func TestExtract_HTMLOnlyConverted(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"Subject: html only",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Message-Id: <html@example.com>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=b1",
		"",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Hello <b>world</b>, see the <a href=\"https://example.com\">docs</a>.</p>",
		"--b1--",
		"",
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err)
	assert.Contains(t, content.Body, "Hello")
	assert.Contains(t, content.Body, "world")
	assert.NotContains(t, content.Body, "<p>", "markup is stripped")
}

func TestExtract_NoTextContentYieldsEmptyBody(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"Subject: image only",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Message-Id: <img@example.com>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=b1",
		"",
		"--b1",
		"Content-Type: image/png",
		"Content-Disposition: attachment; filename=pixel.png",
		"Content-Transfer-Encoding: base64",
		"",
		"iVBORw0KGgo=",
		"--b1--",
		"",
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err, "a message without text content is not an error")
	assert.Empty(t, content.Body)
}

func TestExtract_EncodedSubjectDecoded(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"Subject: =?UTF-8?Q?Invitaci=C3=B3n:_Reuni=C3=B3n?=",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Message-Id: <enc@example.com>",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hola",
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err)
	assert.Equal(t, "Invitación: Reunión", content.Subject)
}

func TestExtract_MissingMessageIDSynthesized(t *testing.T) {
	raw := crlf(
		"From: Alice <alice@example.com>",
		"Subject: no id",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hi",
	)

	content, err := NewExtractor(zap.NewNop()).Extract(raw)

	require.NoError(t, err)
	assert.Contains(t, content.Identity, "alice@example.com")
	assert.Contains(t, content.Identity, "|")
}

func TestExtract_UnparsableDateFails(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"Subject: bad date",
		"Date: not a date",
		"Message-Id: <bad@example.com>",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hi",
	)

	_, err := NewExtractor(zap.NewNop()).Extract(raw)

	assert.ErrorIs(t, err, core.ErrParse,
		"the dedup key depends on the timestamp, so there is no fallback")
}

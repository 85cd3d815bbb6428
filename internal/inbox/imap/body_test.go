package imap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const plainReply = "From: reader@example.com\r\n" +
	"To: digest@example.com\r\n" +
	"Subject: Re: Your Key Points [REF:abc123def456]\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"My key takeaway: rollouts need classroom buy-in.\r\n"

const htmlReply = "From: reader@example.com\r\n" +
	"To: digest@example.com\r\n" +
	"Subject: Re: Your Key Points [REF:abc123def456]\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Takeaway: <b>buy-in matters</b>.</p></body></html>\r\n"

func TestExtractTextPlainPart(t *testing.T) {
	t.Parallel()

	got, err := extractText([]byte(plainReply))
	require.NoError(t, err)
	require.Contains(t, got, "classroom buy-in")
}

func TestExtractTextConvertsHTML(t *testing.T) {
	t.Parallel()

	got, err := extractText([]byte(htmlReply))
	require.NoError(t, err)
	require.Contains(t, got, "buy-in matters")
	require.NotContains(t, got, "<b>")
}

func TestExtractTextNoTextPart(t *testing.T) {
	t.Parallel()

	msg := strings.ReplaceAll(plainReply, "text/plain", "application/octet-stream")
	_, err := extractText([]byte(msg))
	require.Error(t, err)
}

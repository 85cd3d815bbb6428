package imap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/emersion/go-message/mail"
)

var htmlConverter = md.NewConverter("", true, nil)

// extractText pulls a plain-text body out of a raw RFC 5322 message,
// preferring text/plain parts and converting text/html parts to markdown
// when that is all the mail client sent.
func extractText(raw []byte) (string, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open message: %w", err)
	}

	var htmlFallback string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read part: %w", err)
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		switch contentType {
		case "text/plain":
			return string(body), nil
		case "text/html":
			if converted, cerr := htmlConverter.ConvertString(string(body)); cerr == nil {
				htmlFallback = converted
			}
		}
	}
	if strings.TrimSpace(htmlFallback) != "" {
		return htmlFallback, nil
	}
	return "", fmt.Errorf("no text part found")
}

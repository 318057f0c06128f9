// Package ocrspace is a client for OCR.space compatible hosted OCR endpoints.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/factures-api/internal/ocr"
)

const (
	DefaultURL         = "https://api.ocr.space/parse/image"
	defaultLanguage    = "fre"
	defaultHTTPTimeout = 60 * time.Second
)

// ErrProcessing is returned when the provider reports a failed parse.
var ErrProcessing = errors.New("ocr provider error")

type Client struct {
	url      string
	apiKey   string
	language string
	http     *http.Client
}

// Response is the subset of the provider payload the client reads.
type Response struct {
	ParsedResults         []ParsedResult  `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	ErrorDetails          string          `json:"ErrorDetails"`
}

type ParsedResult struct {
	ParsedText        string `json:"ParsedText"`
	FileParseExitCode int    `json:"FileParseExitCode"`
	ErrorMessage      string `json:"ErrorMessage"`
}

// NewClient returns a client. Empty url and language fall back to the public
// endpoint and French. timeout <= 0 uses 60s.
func NewClient(url, apiKey, language string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OCR_SPACE_API_KEY manquant")
	}
	if url == "" {
		url = DefaultURL
	}
	if language == "" {
		language = defaultLanguage
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		url:      url,
		apiKey:   apiKey,
		language: language,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// Extract uploads the whole document; the provider handles multi-page PDFs.
func (c *Client) Extract(ctx context.Context, doc ocr.Document) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	name := doc.Name
	if name == "" {
		name = "document." + doc.Ext
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(doc.Data); err != nil {
		return "", err
	}
	fields := map[string]string{
		"language": c.language,
		"apikey":   c.apiKey,
		"filetype": strings.ToUpper(doc.Ext),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr.space status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ocr.space response: %w", err)
	}
	return out.Text()
}

// Text concatenates page texts in the order returned, or reports the
// provider failure.
func (r *Response) Text() (string, error) {
	if r.IsErroredOnProcessing {
		msg := r.errorMessage()
		if msg == "" {
			msg = "processing failed"
		}
		return "", fmt.Errorf("%w: %s", ErrProcessing, msg)
	}
	var b strings.Builder
	for _, p := range r.ParsedResults {
		b.WriteString(p.ParsedText)
	}
	return b.String(), nil
}

// errorMessage flattens ErrorMessage, which the provider sends either as a
// string or as a list of strings.
func (r *Response) errorMessage() string {
	if len(r.ErrorMessage) > 0 {
		var list []string
		if err := json.Unmarshal(r.ErrorMessage, &list); err == nil {
			return strings.Join(list, "; ")
		}
		var s string
		if err := json.Unmarshal(r.ErrorMessage, &s); err == nil {
			return s
		}
	}
	for _, p := range r.ParsedResults {
		if p.ErrorMessage != "" {
			return p.ErrorMessage
		}
	}
	return r.ErrorDetails
}

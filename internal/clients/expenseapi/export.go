package expenseapi

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Document is an exported report with its resolved filename.
type Document struct {
	Filename string
	Data     []byte
}

// ExportPDF fetches the export and resolves the filename from the
// Content-Disposition header (the extended filename* form is decoded
// by mime.ParseMediaType and wins over the plain one); without a
// usable header the name falls back to expenses_<ISO-date>.pdf.
func (c *Client) ExportPDF(ctx context.Context, token string) (Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, exportPath, token, nil)
	if err != nil {
		return Document{}, errors.Wrap(err, "export pdf")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return Document{}, errors.Wrap(err, "export pdf")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Document{}, errors.Wrap(err, "export pdf")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Document{}, statusError(res, body)
	}

	return Document{
		Filename: exportFilename(res.Header.Get("Content-Disposition"), time.Now()),
		Data:     body,
	}, nil
}

func exportFilename(disposition string, at time.Time) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return "expenses_" + at.Format(dateLayout) + ".pdf"
}

// Analyze sends the free-text query and returns the narrative answer.
func (c *Client) Analyze(ctx context.Context, token, query string) (string, error) {
	payload := struct {
		Query string `json:"query"`
	}{query}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, analyzePath, token, payload, &resp); err != nil {
		return "", errors.Wrap(err, "analyze")
	}
	if resp.Message == "" {
		return "No analysis available", nil
	}
	return resp.Message, nil
}

package portal

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/zjrosen/portal/internal/log"
)

// Kind values for the account-data type parameter.
const (
	KindOrders = "orders"
	KindQuotes = "quotes"
)

// GetAccountData fetches one page of orders or quotes for a site label.
func (c *Client) GetAccountData(ctx context.Context, label, kind string, page int) (AccountData, error) {
	if kind != KindOrders && kind != KindQuotes {
		return AccountData{}, fmt.Errorf("unknown account data kind %q", kind)
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("account_name", label)
	q.Set("page", strconv.Itoa(page))
	q.Set("type", kind)

	var data AccountData
	err := c.sendJSON(ctx, request{
		op:     "account_data",
		method: "GET",
		url:    c.dataBase + "/account-data?" + q.Encode(),
	}, &data)
	if err != nil {
		return AccountData{}, err
	}

	log.Debug(log.CatHTTP, "Account data",
		"account", label, "kind", kind, "page", page,
		"orders", len(data.Orders), "quotes", len(data.Quotes))
	return data, nil
}

// DownloadQuotePDF streams the generated PDF for a quote into w.
func (c *Client) DownloadQuotePDF(ctx context.Context, quoteName string, w io.Writer) (int64, error) {
	if quoteName == "" {
		return 0, fmt.Errorf("quote name is required")
	}

	resp, err := c.send(ctx, request{
		op:     "quote_pdf",
		method: "GET",
		url:    c.dataBase + "/get-quote-pdf?" + url.Values{"quote_name": {quoteName}}.Encode(),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, fmt.Errorf("write quote pdf: %w", err)
	}
	return n, nil
}

// QuotePDFFilename is the file name a downloaded quote is saved under.
// Characters outside letters, digits, space, '-', '_' and '.' become '_',
// ".." runs are collapsed and edge dots trimmed, so the result never
// leaves its directory.
func QuotePDFFilename(quoteName string) string {
	var b strings.Builder
	for _, r := range quoteName {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "_")
	}
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "_"
	}
	return "Quote-" + name + ".pdf"
}

// PDFDownloader streams quote PDFs.
type PDFDownloader interface {
	DownloadQuotePDF(ctx context.Context, quoteName string, w io.Writer) (int64, error)
}

// SaveQuotePDF downloads quote into path. The PDF is written to a temp file
// in the same directory and renamed over path only once the download
// succeeds, so an existing file survives a failed download.
func SaveQuotePDF(ctx context.Context, d PDFDownloader, quote, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".quote-*.pdf.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := d.DownloadQuotePDF(ctx, quote, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write quote pdf: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("save quote pdf: %w", err)
	}
	return nil
}

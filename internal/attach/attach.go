// Package attach fetches template attachment files and encodes them for the
// mail bridge. Attachments are best-effort: a file that cannot be fetched is
// dropped with a warning instead of failing the whole send.
package attach

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/spimforce/campaign-sender/internal/bridge"
	"github.com/spimforce/campaign-sender/internal/campaign"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

// maxAttachmentSize caps a single downloaded file at 25 MiB, the usual
// Outlook attachment ceiling.
const maxAttachmentSize = 25 << 20

type Materializer struct {
	httpClient *http.Client
}

func NewMaterializer(timeout time.Duration) *Materializer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Materializer{httpClient: &http.Client{Timeout: timeout}}
}

// Materialize downloads every referenced file and returns base64-encoded
// bridge attachments in input order. Failed descriptors are skipped; the
// returned list holds only the ones that succeeded.
func (m *Materializer) Materialize(ctx context.Context, refs []campaign.AttachmentRef) []bridge.Attachment {
	out := make([]bridge.Attachment, 0, len(refs))
	for _, ref := range refs {
		data, err := m.fetch(ctx, ref.URL)
		if err != nil {
			logx.L().Warnw("attachment_fetch_failed",
				"name", ref.Name, "url", ref.URL, "error", err)
			metrics.AttachmentsDropped.Inc()
			continue
		}
		out = append(out, bridge.Attachment{
			Filename: filenameFor(ref),
			Content:  base64.StdEncoding.EncodeToString(data),
		})
	}
	return out
}

// fetch downloads rawURL, retrying once with a re-encoded form of the URL.
// Stored descriptor URLs sometimes carry unescaped spaces or accented
// characters; re-serializing through net/url percent-encodes them.
func (m *Materializer) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	data, err := m.fetchOnce(ctx, rawURL)
	if err == nil {
		return data, nil
	}
	if u, perr := url.Parse(rawURL); perr == nil {
		if encoded := u.String(); encoded != rawURL {
			if data, rerr := m.fetchOnce(ctx, encoded); rerr == nil {
				return data, nil
			}
		}
	}
	return nil, err
}

func (m *Materializer) fetchOnce(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize))
}

func filenameFor(ref campaign.AttachmentRef) string {
	if ref.Filename != "" {
		return ref.Filename
	}
	if ref.Name != "" {
		return ref.Name
	}
	if u, err := url.Parse(ref.URL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return "attachment"
}

package nexus

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/httputil"
)

// DownloadLink is one CDN mirror for a file. The URI is short-lived;
// request links right before the transfer starts.
type DownloadLink struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	URI       string `json:"URI"`
}

// DownloadLinks requests the CDN mirrors for a specific file. Links are
// never cached: the platform signs them with an expiry.
func (c *Client) DownloadLinks(ctx context.Context, modID, fileID int) ([]DownloadLink, error) {
	if err := errors.ValidateModID(modID); err != nil {
		return nil, err
	}
	if err := errors.ValidateFileID(fileID); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/games/%s/mods/%d/files/%d/download_link.json", c.apiRoot, c.game, modID, fileID)

	var links []DownloadLink
	err := httputil.RetryWithBackoff(ctx, func() error {
		return c.getJSON(ctx, url, &links)
	})
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "mod %d file %d", modID, fileID)
		}
		return nil, errors.Wrap(errors.ErrCodeDownload, err, "request download links for mod %d file %d", modID, fileID)
	}
	if len(links) == 0 {
		return nil, errors.New(errors.ErrCodeFileNotFound, "no download links for mod %d file %d", modID, fileID)
	}
	return links, nil
}

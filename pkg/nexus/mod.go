package nexus

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/sacredwitness/prereq/pkg/errors"
)

// ModInfo holds the metadata of a single mod.
type ModInfo struct {
	ModID     int    `json:"mod_id"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	Version   string `json:"version"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

// FileInfo describes one downloadable file of a mod.
type FileInfo struct {
	FileID   int    `json:"file_id"`
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	Category string `json:"category_name"`
	Version  string `json:"version"`
	SizeKB   int    `json:"size_kb"`
}

// FetchModPage retrieves the public HTML page of a mod. The page carries
// the requirement tables and needs no API key. If refresh is true, the
// cache is bypassed.
func (c *Client) FetchModPage(ctx context.Context, modID int, refresh bool) (string, error) {
	if err := errors.ValidateModID(modID); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%d", c.game, modID)
	url := fmt.Sprintf("%s/%s/mods/%d", c.siteRoot, c.game, modID)

	var page string
	err := c.cached(ctx, c.pages, key, refresh, &page, func() error {
		var err error
		page, err = c.getText(ctx, url)
		return err
	})
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return "", errors.Wrap(errors.ErrCodeModNotFound, err, "mod %d has no page", modID)
		}
		return "", errors.Wrap(errors.ErrCodeFetch, err, "fetch page for mod %d", modID)
	}
	return page, nil
}

// FetchModInfo retrieves a mod's metadata from the JSON API.
func (c *Client) FetchModInfo(ctx context.Context, modID int, refresh bool) (*ModInfo, error) {
	if err := errors.ValidateModID(modID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("mod:%s:%d", c.game, modID)
	url := fmt.Sprintf("%s/games/%s/mods/%d.json", c.apiRoot, c.game, modID)

	var info ModInfo
	err := c.cached(ctx, c.api, key, refresh, &info, func() error {
		return c.getJSON(ctx, url, &info)
	})
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeModNotFound, err, "mod %d", modID)
		}
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch metadata for mod %d", modID)
	}
	info.ModID = modID
	return &info, nil
}

// FriendlyName returns the display name of a mod, falling back to
// "Mod <id>" when the API call fails for any reason. It never errors:
// a missing name should not stop a resolution session.
func (c *Client) FriendlyName(ctx context.Context, modID int) string {
	info, err := c.FetchModInfo(ctx, modID, false)
	if err != nil || info.Name == "" {
		return fmt.Sprintf("Mod %d", modID)
	}
	return info.Name
}

// FetchFiles retrieves the downloadable file list of a mod.
func (c *Client) FetchFiles(ctx context.Context, modID int, refresh bool) ([]FileInfo, error) {
	if err := errors.ValidateModID(modID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("files:%s:%d", c.game, modID)
	url := fmt.Sprintf("%s/games/%s/mods/%d/files.json", c.apiRoot, c.game, modID)

	var payload struct {
		Files []FileInfo `json:"files"`
	}
	err := c.cached(ctx, c.api, key, refresh, &payload, func() error {
		return c.getJSON(ctx, url, &payload)
	})
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeModNotFound, err, "mod %d", modID)
		}
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch file list for mod %d", modID)
	}
	return payload.Files, nil
}

// MainFiles filters a file list down to the MAIN category. When a mod has
// no MAIN files at all, the full list is returned so the caller still has
// something to offer.
func MainFiles(files []FileInfo) []FileInfo {
	var mains []FileInfo
	for _, f := range files {
		if strings.EqualFold(f.Category, "MAIN") {
			mains = append(mains, f)
		}
	}
	if len(mains) == 0 {
		return files
	}
	return mains
}

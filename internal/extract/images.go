// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// publicImagePrefix is the public-facing path prefix recorded on task
// records; the files themselves live under the store's image directory.
const publicImagePrefix = "public/task_images"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeRef reduces a figure reference or page label to a filename-
// safe lowercase token.
func sanitizeRef(ref string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(strings.ReplaceAll(ref, " ", "_"), ""))
}

// SaveFigureImage writes the first image asset of a page to imageDir
// under a name derived from the figure reference, decorated with the
// page label and image index to avoid collisions. It returns the
// public-facing path for the stored record. A page with no images
// returns an error.
func SaveFigureImage(images []PageImage, figureRef, imageDir, pageLabel string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no image assets on page %s for %s", pageLabel, figureRef)
	}

	img := images[0]
	filename := fmt.Sprintf("%s_page%s_%d.%s", sanitizeRef(figureRef), sanitizeRef(pageLabel), 0, img.Ext)

	if err := os.WriteFile(filepath.Join(imageDir, filename), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing figure image %s: %w", filename, err)
	}

	return publicImagePrefix + "/" + filename, nil
}

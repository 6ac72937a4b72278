package imagetar

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// inspectEntry mirrors the fields of `docker inspect` output we need.
type inspectEntry struct {
	ID     string  `json:"Id"`
	RootFS *rootFS `json:"RootFS"`
}

type rootFS struct {
	Type   string   `json:"Type"`
	Layers []string `json:"Layers"`
}

// InspectLayers returns the rootfs layer digests of every image in a
// `docker inspect` JSON file. Images without a layers-typed RootFS are
// skipped with a warning.
func InspectLayers(inspectPath string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(inspectPath)
	if err != nil {
		return nil, fmt.Errorf("reading inspect file: %w", err)
	}

	var inspect []inspectEntry
	if err := json.Unmarshal(data, &inspect); err != nil {
		return nil, fmt.Errorf("parsing inspect file %q: %w", inspectPath, err)
	}

	var layers []string
	for _, image := range inspect {
		imageID := strings.TrimPrefix(image.ID, "sha256:")
		if len(imageID) > 12 {
			imageID = imageID[:12]
		}

		if image.RootFS == nil {
			logger.Warn("image has no RootFS field", "image", imageID)
			continue
		}
		if image.RootFS.Type != "layers" {
			logger.Warn("image RootFS type is not layers", "image", imageID, "type", image.RootFS.Type)
			continue
		}

		for _, layer := range image.RootFS.Layers {
			layers = append(layers, strings.TrimPrefix(layer, "sha256:"))
		}
	}

	return layers, nil
}

// Package imagetar builds and applies layer-level deltas for docker image
// tarballs (`docker save` format). A delta is the original tarball minus the
// blobs/sha256/ layer entries the target host already has; patching merges a
// delta with an older tarball back into a complete image.
package imagetar

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

const blobPrefix = "blobs/sha256/"

// manifestEntry mirrors one element of an image tarball's manifest.json.
type manifestEntry struct {
	Layers []string `json:"Layers"`
}

// ManifestLayers returns the layer digests listed in the tarball's
// manifest.json, in manifest order.
func ManifestLayers(tarPath string) ([]string, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, fmt.Errorf("opening tarball: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tarball %q: %w", tarPath, err)
		}
		if hdr.Name != "manifest.json" {
			continue
		}

		var manifest []manifestEntry
		if err := json.NewDecoder(tr).Decode(&manifest); err != nil {
			return nil, fmt.Errorf("parsing manifest.json in %q: %w", tarPath, err)
		}

		var layers []string
		for _, image := range manifest {
			for _, layer := range image.Layers {
				layers = append(layers, path.Base(layer))
			}
		}
		return layers, nil
	}

	return nil, fmt.Errorf("no manifest.json in tarball %q", tarPath)
}

// BlobLayers returns the set of layer digests present as blobs/sha256/
// entries in the tarball.
func BlobLayers(tarPath string) (map[string]bool, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, fmt.Errorf("opening tarball: %w", err)
	}
	defer f.Close()

	blobs := make(map[string]bool)
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tarball %q: %w", tarPath, err)
		}
		if strings.HasPrefix(hdr.Name, blobPrefix) {
			blobs[path.Base(hdr.Name)] = true
		}
	}
	return blobs, nil
}

// MissingLayers returns the manifest layers of a delta tarball that are not
// present as blobs, i.e. the layers a patch must supply.
func MissingLayers(deltaPath string) ([]string, error) {
	blobs, err := BlobLayers(deltaPath)
	if err != nil {
		return nil, err
	}

	manifest, err := ManifestLayers(deltaPath)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, layer := range manifest {
		if !blobs[layer] {
			missing = append(missing, layer)
		}
	}
	return missing, nil
}

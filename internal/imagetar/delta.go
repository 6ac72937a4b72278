package imagetar

import (
	"archive/tar"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Delta writes a delta tarball next to tarPath (same name, .delta
// extension) that omits every layer blob the inspect file shows is already
// present on the target host. It returns the delta path.
func Delta(tarPath, inspectPath string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tarLayers, err := ManifestLayers(tarPath)
	if err != nil {
		return "", err
	}
	logger.Info("image tarball layers", "count", len(tarLayers))

	inspectLayers, err := InspectLayers(inspectPath, logger)
	if err != nil {
		return "", err
	}
	logger.Info("inspect file layers", "count", len(inspectLayers))

	inTar := make(map[string]bool, len(tarLayers))
	for _, layer := range tarLayers {
		inTar[layer] = true
	}

	// Paths of layer entries present on both sides; these are skipped.
	shared := make(map[string]bool)
	for _, layer := range inspectLayers {
		if inTar[layer] {
			shared[blobPrefix+layer] = true
		}
	}
	logger.Info("shareable layers", "count", len(shared))

	deltaPath := replaceExt(tarPath, ".delta")

	in, err := os.Open(tarPath)
	if err != nil {
		return "", fmt.Errorf("opening tarball: %w", err)
	}
	defer in.Close()

	out, err := os.Create(deltaPath)
	if err != nil {
		return "", fmt.Errorf("creating delta file: %w", err)
	}

	logger.Info("writing delta", "path", deltaPath)

	tw := tar.NewWriter(out)
	tr := tar.NewReader(in)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Close()
			return "", fmt.Errorf("reading tarball %q: %w", tarPath, err)
		}
		if shared[hdr.Name] {
			logger.Debug("skipping shared layer", "entry", hdr.Name)
			continue
		}
		if err := copyEntry(tw, tr, hdr); err != nil {
			out.Close()
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finalizing delta: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing delta file: %w", err)
	}

	logger.Info("delta complete", "path", deltaPath)
	return deltaPath, nil
}

// copyEntry writes one tar entry, header and content, to tw.
func copyEntry(tw *tar.Writer, tr *tar.Reader, hdr *tar.Header) error {
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %q: %w", hdr.Name, err)
	}
	if _, err := io.Copy(tw, tr); err != nil {
		return fmt.Errorf("copying entry %q: %w", hdr.Name, err)
	}
	return nil
}

// replaceExt swaps the final extension of p for ext (which includes the dot).
func replaceExt(p, ext string) string {
	if i := strings.LastIndex(p, "."); i > strings.LastIndex(p, "/") {
		return p[:i] + ext
	}
	return p + ext
}

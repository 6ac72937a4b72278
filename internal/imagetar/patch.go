package imagetar

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrLayersUnavailable reports that the old tarball lacks layers the delta
// needs, so no patched image can be produced.
var ErrLayersUnavailable = errors.New("old tarball is missing required layers")

// Patch combines deltaPath with the layer blobs of an older image tarball
// and writes a complete tarball next to the delta (same name, .tar
// extension). It returns the output path.
func Patch(tarPath, deltaPath string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tarLayers, err := ManifestLayers(tarPath)
	if err != nil {
		return "", err
	}
	logger.Info("old tarball layers", "count", len(tarLayers))

	missing, err := MissingLayers(deltaPath)
	if err != nil {
		return "", err
	}
	logger.Info("layers omitted from delta", "count", len(missing))

	inOld := make(map[string]bool, len(tarLayers))
	for _, layer := range tarLayers {
		inOld[layer] = true
	}

	var notFound []string
	for _, layer := range missing {
		if !inOld[layer] {
			notFound = append(notFound, layer)
		}
	}
	if len(notFound) > 0 {
		logger.Error("cannot patch", "missing_layers", len(notFound))
		return "", fmt.Errorf("%w: %d layer(s) not in %q", ErrLayersUnavailable, len(notFound), tarPath)
	}

	outPath := replaceExt(deltaPath, ".tar")
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating output tarball: %w", err)
	}

	logger.Info("patching image tarball", "path", outPath)

	tw := tar.NewWriter(out)

	// All delta entries come first, then the layers it omitted.
	if err := copyAll(tw, deltaPath, nil); err != nil {
		out.Close()
		return "", err
	}

	needed := make(map[string]bool, len(missing))
	for _, layer := range missing {
		needed[blobPrefix+layer] = true
	}
	if err := copyAll(tw, tarPath, needed); err != nil {
		out.Close()
		return "", err
	}
	if len(needed) > 0 {
		out.Close()
		return "", fmt.Errorf("layer entries not found in old tarball: %d remaining", len(needed))
	}

	if err := tw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finalizing tarball: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing tarball: %w", err)
	}

	logger.Info("patch complete", "path", outPath)
	return outPath, nil
}

// copyAll copies entries from the tarball at srcPath into tw. With a nil
// filter every entry is copied; otherwise only entries whose name is in the
// filter are copied, and copied names are removed from it.
func copyAll(tw *tar.Writer, srcPath string, filter map[string]bool) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening tarball: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tarball %q: %w", srcPath, err)
		}
		if filter != nil {
			if !filter[hdr.Name] {
				continue
			}
			delete(filter, hdr.Name)
		}
		if err := copyEntry(tw, tr, hdr); err != nil {
			return err
		}
	}
}

package generate

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
)

// ManifestEntry is one asset a script asks to register. Scripts append
// entries as JSON lines to the file named by PHARAOH_ASSET_MANIFEST.
type ManifestEntry struct {
	// File is the artifact path, relative to the script directory unless
	// absolute. With inline data it only provides name and extension.
	File string `json:"file"`

	Metadata   map[string]any `json:"metadata,omitempty"`
	Template   string         `json:"template,omitempty"`
	Copy2Build bool           `json:"copy2build,omitempty"`

	// DataBase64 is inline artifact content.
	DataBase64 string `json:"data_base64,omitempty"`

	// Context registers a templating context under this name. Data holds
	// the context value unless File names a .json or .yaml file.
	Context string          `json:"context,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ErrorEntry returns the entry of an error asset holding traceback.
func ErrorEntry(message string, traceback []byte) ManifestEntry {
	opts := asset.ErrorOptions(message, traceback)
	return ManifestEntry{
		File:       asset.ErrorFile,
		Metadata:   opts.Metadata,
		Template:   opts.Template,
		DataBase64: base64.StdEncoding.EncodeToString(opts.Data),
	}
}

// AppendManifest appends entry to the manifest at path.
func AppendManifest(path string, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding manifest entry: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening asset manifest: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("writing asset manifest: %w", err)
	}
	return f.Close()
}

// ReadManifest parses a manifest. Blank lines are skipped.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset manifest: %w", err)
	}
	defer f.Close()

	var entries []ManifestEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e ManifestEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("invalid manifest entry: %v", err), fmt.Sprintf("%s:%d", path, n), "", "")
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func registerManifest(reg *asset.Registrar, path, baseDir string) error {
	entries, err := ReadManifest(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		file := e.File
		if file != "" && !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}

		if e.Context != "" {
			var data any = file
			if len(e.Data) > 0 {
				if err := json.Unmarshal(e.Data, &data); err != nil {
					return fmt.Errorf("decoding templating context %q: %w", e.Context, err)
				}
			}
			if _, err := reg.RegisterTemplatingContext(e.Context, data, e.Metadata); err != nil {
				return err
			}
			continue
		}

		if e.File == "" {
			return oerrors.NewValidationError("manifest entry without file", path, "file", "")
		}
		opts := asset.RegisterOptions{
			Metadata:   e.Metadata,
			Template:   e.Template,
			Copy2Build: e.Copy2Build,
		}
		if e.DataBase64 != "" {
			if opts.Data, err = base64.StdEncoding.DecodeString(e.DataBase64); err != nil {
				return fmt.Errorf("decoding inline data of %s: %w", e.File, err)
			}
			file = e.File
		}
		if _, err := reg.Register(file, opts); err != nil {
			return err
		}
	}
	return nil
}

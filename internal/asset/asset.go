// Package asset stores generated report assets and finds them again.
//
// An asset is an artifact (file or directory) in the component's build
// directory plus an info record next to it. The info record is a JSON
// document named after the artifact with the ".assetinfo" extension and
// holds the metadata that was in scope when the asset was registered.
package asset

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/fsutil"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
)

// InfoSuffix is the extension of asset info records.
const InfoSuffix = ".assetinfo"

// Asset is a registered artifact together with its metadata.
type Asset struct {
	// ID is "__ID__" followed by the MD5 of the info file name. Info file
	// names carry a random suffix, so IDs are unique in practice.
	ID string

	// InfoFile is the path of the info record.
	InfoFile string

	// AssetFile is the path of the artifact.
	AssetFile string

	// Context is the parsed info record.
	Context map[string]any

	fs afero.Fs
}

// Load reads an info record from the OS file system and pairs it with its
// artifact.
func Load(infoFile string) (*Asset, error) {
	return LoadFS(afero.NewOsFs(), infoFile)
}

// LoadFS is Load on an arbitrary file system.
func LoadFS(fsys afero.Fs, infoFile string) (*Asset, error) {
	entries, err := afero.ReadDir(fsys, filepath.Dir(infoFile))
	if err != nil {
		return nil, fmt.Errorf("listing asset directory: %w", err)
	}
	return load(fsys, infoFile, entries)
}

func load(fsys afero.Fs, infoFile string, siblings []os.FileInfo) (*Asset, error) {
	if filepath.Ext(infoFile) != InfoSuffix {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("%s is not an asset info file", infoFile), infoFile, "", "")
	}
	raw, err := afero.ReadFile(fsys, infoFile)
	if err != nil {
		return nil, fmt.Errorf("reading asset info: %w", err)
	}
	var ctx map[string]any
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid asset info record: %v", err), infoFile, "", "")
	}
	if ctx == nil {
		ctx = map[string]any{}
	}

	name := filepath.Base(infoFile)
	artifact := pair(name, siblings)
	if artifact == "" {
		return nil, oerrors.NewAssetLinkBrokenError(infoFile)
	}

	sum := md5.Sum([]byte(name))
	return &Asset{
		ID:        "__ID__" + hex.EncodeToString(sum[:]),
		InfoFile:  infoFile,
		AssetFile: filepath.Join(filepath.Dir(infoFile), artifact),
		Context:   ctx,
		fs:        fsys,
	}, nil
}

// pair finds the artifact belonging to an info record: the sibling whose
// name without extension equals the info record's stem.
func pair(infoName string, siblings []os.FileInfo) string {
	stem := strings.TrimSuffix(infoName, InfoSuffix)
	for _, fi := range siblings {
		name := fi.Name()
		if name == infoName || filepath.Ext(name) == InfoSuffix {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem || (fi.IsDir() && name == stem) {
			return name
		}
	}
	return ""
}

// String implements fmt.Stringer.
func (a *Asset) String() string {
	return "Asset[" + strings.TrimSuffix(filepath.Base(a.InfoFile), InfoSuffix) + "]"
}

// Name returns the artifact file name.
func (a *Asset) Name() string {
	return filepath.Base(a.AssetFile)
}

// Suffix returns the artifact extension including the dot.
func (a *Asset) Suffix() string {
	return filepath.Ext(a.AssetFile)
}

// Component returns the name of the component the asset belongs to.
func (a *Asset) Component() string {
	if v, ok := a.Lookup("asset.component_name"); ok {
		if s := cast.ToString(v); s != "" {
			return s
		}
	}
	return filepath.Base(filepath.Dir(a.InfoFile))
}

// Template returns the asset template used to render the asset.
func (a *Asset) Template() string {
	v, _ := a.Lookup("asset.template")
	return cast.ToString(v)
}

// Copy2Build reports whether the artifact is always copied into the
// report build.
func (a *Asset) Copy2Build() bool {
	v, _ := a.Lookup("asset.copy2build")
	return cast.ToBool(v)
}

// Index returns the registration order within the generating unit, 0 if
// unknown.
func (a *Asset) Index() int {
	v, ok := a.Lookup("asset.index")
	if !ok {
		return 0
	}
	return cast.ToInt(v)
}

// Lookup returns the metadata value at a dotted path.
func (a *Asset) Lookup(path string) (any, bool) {
	return mergedeep.Lookup(a.Context, path)
}

// CopyTo copies the info record and artifact into dir and returns the path
// of the copied artifact. Copying an asset that is already present is a
// no-op.
func (a *Asset) CopyTo(dir string) (string, error) {
	target := filepath.Join(dir, a.Name())
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	infoTarget := filepath.Join(dir, filepath.Base(a.InfoFile))
	if ok, _ := afero.Exists(a.fs, infoTarget); ok {
		return target, nil
	}
	if err := fsutil.CopyPath(a.fs, a.AssetFile, target); err != nil {
		return "", err
	}
	if err := fsutil.CopyFile(a.fs, a.InfoFile, infoTarget); err != nil {
		return "", err
	}
	return target, nil
}

// ReadBytes returns the artifact contents.
func (a *Asset) ReadBytes() ([]byte, error) {
	return afero.ReadFile(a.fs, a.AssetFile)
}

// ReadText returns the artifact contents as a string.
func (a *Asset) ReadText() (string, error) {
	raw, err := a.ReadBytes()
	return string(raw), err
}

// ReadJSON decodes a .json artifact into v.
func (a *Asset) ReadJSON(v any) error {
	if err := a.requireSuffix(".json"); err != nil {
		return err
	}
	raw, err := a.ReadBytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ReadYAML decodes a .yaml or .yml artifact into v.
func (a *Asset) ReadYAML(v any) error {
	if err := a.requireSuffix(".yaml", ".yml"); err != nil {
		return err
	}
	raw, err := a.ReadBytes()
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, v)
}

// Data decodes a JSON or YAML artifact into generic values.
func (a *Asset) Data() (any, error) {
	var v any
	var err error
	if strings.EqualFold(a.Suffix(), ".json") {
		err = a.ReadJSON(&v)
	} else {
		err = a.ReadYAML(&v)
	}
	if err != nil {
		return nil, err
	}
	return mergedeep.DeepCopyValue(v), nil
}

// Table is tabular artifact data.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses a .csv artifact. The first record is the header.
func (a *Asset) ReadTable() (*Table, error) {
	if err := a.requireSuffix(".csv"); err != nil {
		return nil, err
	}
	f, err := a.fs.Open(a.AssetFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", a.Name(), err)
	}
	t := &Table{}
	if len(records) > 0 {
		t.Header = records[0]
		t.Rows = records[1:]
	}
	return t, nil
}

func (a *Asset) requireSuffix(suffixes ...string) error {
	got := strings.ToLower(a.Suffix())
	for _, s := range suffixes {
		if got == s {
			return nil
		}
	}
	return oerrors.NewValidationError(
		fmt.Sprintf("can only read %s files, got %s", strings.Join(suffixes, "/"), a.Name()),
		a.AssetFile, "", "")
}

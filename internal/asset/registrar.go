package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cast"

	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/fsutil"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
	"github.com/pharaoh-reports/pharaoh/internal/metadata"
)

// Frame names used on the metadata stack.
const (
	// FrameGenerate is pushed by the generation coordinator for every unit.
	FrameGenerate = "generate_assets"

	// FrameRegistry is pushed for the duration of a single registration.
	FrameRegistry = "manual_registry"

	// TemplatingContextKey marks assets registered as templating context.
	TemplatingContextKey = "pharaoh_templating_context"
)

// Error assets hold the traceback of a failed generation step. Reports
// list them with search_error_assets.
const (
	ErrorAssetType = "error_traceback"
	ErrorTemplate  = "error_traceback"
	ErrorFile      = "error.txt"
)

// TemplateResolver maps file extensions to asset templates.
type TemplateResolver interface {
	TemplateForSuffix(suffix string) (string, error)
	HasAssetTemplate(name string) bool
}

// RegisterOptions configures a single registration.
type RegisterOptions struct {
	// Metadata is stored in the info record. The reserved keys "asset" and
	// "context_name" are dropped.
	Metadata map[string]any

	// Template overrides the template inferred from the file extension.
	Template string

	// Data is written as the artifact instead of copying the source file.
	// The source path still determines the name and extension.
	Data []byte

	// Copy2Build always copies the artifact into the report build.
	Copy2Build bool
}

// ErrorOptions returns the options an error asset with the given message
// and traceback text is registered with. Without a traceback the message
// becomes the artifact text.
func ErrorOptions(message string, traceback []byte) RegisterOptions {
	if len(traceback) == 0 {
		traceback = []byte(message + "\n")
	}
	return RegisterOptions{
		Metadata: map[string]any{"asset_type": ErrorAssetType, "error_message": message},
		Template: ErrorTemplate,
		Data:     traceback,
	}
}

// Registrar writes assets of one component into the build directory.
type Registrar struct {
	// BuildDir is the asset build directory; assets go to BuildDir/Component.
	BuildDir string

	// Component owns the registered assets.
	Component string

	// Stack supplies the metadata that is in scope. A nil Stack behaves
	// like an empty one.
	Stack *metadata.Stack

	// Templates resolves asset templates.
	Templates TemplateResolver

	// FS is the file system assets are written to. Defaults to the OS.
	FS afero.Fs
}

func (r *Registrar) fsys() afero.Fs {
	if r.FS == nil {
		return afero.NewOsFs()
	}
	return r.FS
}

// Register stores src as an asset and returns the loaded result.
func (r *Registrar) Register(src string, opts RegisterOptions) (*Asset, error) {
	if r.Component == "" {
		return nil, oerrors.NewValidationError("cannot register an asset without a component", src, "", "")
	}
	fsys := r.fsys()

	suffix := filepath.Ext(src)
	tmpl, err := r.resolveTemplate(suffix, opts.Template)
	if err != nil {
		return nil, err
	}
	copy2build := opts.Copy2Build || tmpl == "iframe"

	dir := filepath.Join(r.BuildDir, r.Component)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating asset directory: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(src), suffix) + "_" + uuid.NewString()[:8]
	target := filepath.Join(dir, stem+suffix)

	meta := mergedeep.DeepCopy(opts.Metadata)
	delete(meta, "asset")
	delete(meta, "context_name")
	meta["asset"] = map[string]any{
		"user_filepath": src,
		"file":          target,
		"name":          stem + suffix,
		"stem":          stem,
		"suffix":        suffix,
		"template":      tmpl,
		"copy2build":    copy2build,
	}

	stack := r.Stack
	if stack == nil {
		stack = metadata.New()
	}
	frame := stack.Push(FrameRegistry, meta)
	defer frame.Close()

	if gen, err := stack.Find(FrameGenerate); err == nil {
		gen.Update(func(data map[string]any) {
			if a, ok := data["asset"].(map[string]any); ok {
				a["index"] = cast.ToInt(a["index"]) + 1
			}
		})
	}

	if opts.Data != nil {
		if err := afero.WriteFile(fsys, target, opts.Data, 0o644); err != nil {
			return nil, fmt.Errorf("writing asset data: %w", err)
		}
	} else if err := fsutil.CopyPath(fsys, src, target); err != nil {
		return nil, err
	}

	info, err := json.MarshalIndent(stack.Merge(), "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding asset info: %w", err)
	}
	infoFile := filepath.Join(dir, stem+InfoSuffix)
	if err := fsutil.WriteFileAtomic(fsys, infoFile, info, 0o644); err != nil {
		return nil, err
	}
	return LoadFS(fsys, infoFile)
}

// RegisterError registers traceback as an error asset.
func (r *Registrar) RegisterError(message string, traceback []byte) (*Asset, error) {
	return r.Register(ErrorFile, ErrorOptions(message, traceback))
}

func (r *Registrar) resolveTemplate(suffix, explicit string) (string, error) {
	if r.Templates == nil {
		if explicit == "" {
			return "", oerrors.NewValidationError("no asset template resolver configured", "", "", "")
		}
		return explicit, nil
	}
	name := explicit
	if name == "" {
		var err error
		if name, err = r.Templates.TemplateForSuffix(strings.ToLower(suffix)); err != nil {
			return "", err
		}
	}
	if !r.Templates.HasAssetTemplate(name) {
		return "", oerrors.NewNotFoundError(
			fmt.Sprintf("asset template %q does not exist", name), "",
			"Run 'pharaoh info' to list available asset templates")
	}
	return name, nil
}

// RegisterTemplatingContext registers data for build-time templating under
// name. data is either the path of a .json or .yaml file or any value that
// encodes as JSON.
func (r *Registrar) RegisterTemplatingContext(name string, data any, meta map[string]any) (*Asset, error) {
	if name == "" {
		return nil, oerrors.NewValidationError("templating context name must not be empty", "", "name", "")
	}
	md := mergedeep.DeepCopy(meta)
	md[TemplatingContextKey] = name

	if path, ok := data.(string); ok {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
		default:
			return nil, oerrors.NewValidationError(
				"templating context files must be .json or .yaml", path, "", "")
		}
		return r.Register(path, RegisterOptions{Metadata: md, Template: rawTemplate})
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding templating context %q: %w", name, err)
	}
	return r.Register("pharaoh_templating_context.json", RegisterOptions{
		Metadata: md,
		Template: rawTemplate,
		Data:     raw,
	})
}

// rawTemplate renders data files verbatim; templating contexts are never
// placed into documents directly.
const rawTemplate = "raw_txt"

type registrarKey struct{}

// WithRegistrar returns a context carrying r.
func WithRegistrar(ctx context.Context, r *Registrar) context.Context {
	return context.WithValue(ctx, registrarKey{}, r)
}

// RegistrarFromContext returns the registrar carried by ctx, if any.
func RegistrarFromContext(ctx context.Context) (*Registrar, bool) {
	r, ok := ctx.Value(registrarKey{}).(*Registrar)
	return r, ok
}

// Register stores an asset with the registrar of the running generation
// unit. Outside a generation context it does nothing and returns nil.
func Register(ctx context.Context, src string, opts RegisterOptions) (*Asset, error) {
	r, ok := RegistrarFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return r.Register(src, opts)
}

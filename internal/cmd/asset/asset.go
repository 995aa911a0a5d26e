// Package asset provides CLI command implementations for the asset command group.
package asset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	passet "github.com/pharaoh-reports/pharaoh/internal/asset"
	"github.com/pharaoh-reports/pharaoh/internal/cmdtypes"
	"github.com/pharaoh-reports/pharaoh/internal/cmdutil"
	"github.com/pharaoh-reports/pharaoh/internal/generate"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// NewAssetCmd creates the asset command group.
func NewAssetCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "asset",
		Short: "Query and register assets",
		Long:  `Query generated assets and register new ones.`,
	}

	c.AddCommand(NewListCmd(cfg))
	c.AddCommand(NewSearchCmd(cfg))
	c.AddCommand(NewRegisterCmd(cfg))
	c.AddCommand(NewRegisterErrorCmd(cfg))

	return c
}

// NewListCmd creates the asset list command.
func NewListCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		of             cmdutil.OutputFlags
		componentFlags []string
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List generated assets",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			format, err := of.Resolve()
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			assets, err := p.Finder().Iter(componentFlags...)
			if err != nil {
				return cmdutil.Fail("listing assets failed", err)
			}
			return cmdutil.WriteAssets(c.OutOrStdout(), format, assets)
		},
	}

	of.AddTo(c)
	c.Flags().StringArrayVar(&componentFlags, "component", nil, "Only list assets of this component (can be repeated)")
	return c
}

// NewSearchCmd creates the asset search command.
func NewSearchCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		of             cmdutil.OutputFlags
		componentFlags []string
	)

	c := &cobra.Command{
		Use:   "search <expression>",
		Short: "Search assets with a query expression",
		Long: `Search assets whose metadata satisfies a query expression.

The variables of the expression are the top-level keys of the asset info
record, such as asset, and any metadata passed at registration. Missing keys
or an invalid expression match nothing.

Examples:
  pharaoh asset search 'asset.template == "image"'
  pharaoh asset search 'label == "summary"' --component intro -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			format, err := of.Resolve()
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			assets, err := p.Finder().Search(args[0], componentFlags...)
			if err != nil {
				return cmdutil.Fail("searching assets failed", err)
			}
			return cmdutil.WriteAssets(c.OutOrStdout(), format, assets)
		},
	}

	of.AddTo(c)
	c.Flags().StringArrayVar(&componentFlags, "component", nil, "Only search assets of this component (can be repeated)")
	return c
}

// NewRegisterCmd creates the asset register command.
func NewRegisterCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		componentFlag  string
		metadataFlag   string
		templateFlag   string
		contextFlag    string
		copy2buildFlag bool
	)

	c := &cobra.Command{
		Use:   "register <file>",
		Short: "Register a file as an asset",
		Long: `Register a file as an asset.

Inside an asset script started by 'pharaoh generate' the file is queued for
registration with the running script's component and metadata. Outside of
asset generation nothing happens unless --component names the component the
asset is registered with directly.

With --context the file (.json or .yaml) is registered as templating context
under the given name instead.

Examples:
  # From an asset script
  pharaoh asset register plot.png -m "{label: overview_plot}"

  # Directly, outside of generation
  pharaoh asset register notes.md --component intro`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			meta, err := cmdutil.ParseMapFlag("metadata", metadataFlag)
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}
			file, err := filepath.Abs(args[0])
			if err != nil {
				return cmdutil.Fail("invalid arguments", err)
			}

			if manifest := os.Getenv(generate.EnvManifest); manifest != "" {
				err := generate.AppendManifest(manifest, generate.ManifestEntry{
					File:       file,
					Metadata:   meta,
					Template:   templateFlag,
					Copy2Build: copy2buildFlag,
					Context:    contextFlag,
				})
				if err != nil {
					return cmdutil.Fail("queueing asset failed", err)
				}
				output.Debug("queued asset", "file", file, "manifest", manifest)
				return nil
			}

			if componentFlag == "" {
				output.Info("not running inside asset generation, asset not registered", "file", args[0])
				return nil
			}

			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			var a *passet.Asset
			if contextFlag != "" {
				if _, err := p.Component(componentFlag); err != nil {
					return cmdutil.Fail("registering asset failed", err)
				}
				a, err = p.Registrar(componentFlag).RegisterTemplatingContext(contextFlag, file, meta)
				if err == nil {
					err = p.Finder().Discover(componentFlag)
				}
			} else {
				a, err = p.RegisterAsset(componentFlag, file, passet.RegisterOptions{
					Metadata:   meta,
					Template:   templateFlag,
					Copy2Build: copy2buildFlag,
				})
			}
			if err != nil {
				return cmdutil.Fail("registering asset failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Registered "+output.StyleNoun.Render(a.Name())))
			return nil
		},
	}

	c.Flags().StringVar(&componentFlag, "component", "", "Register directly with this component outside of asset generation")
	c.Flags().StringVarP(&metadataFlag, "metadata", "m", "", "Asset metadata as a YAML or JSON mapping")
	c.Flags().StringVarP(&templateFlag, "template", "t", "", "Asset template (default: derived from the file extension)")
	c.Flags().StringVar(&contextFlag, "context", "", "Register the file as templating context with this name")
	c.Flags().BoolVar(&copy2buildFlag, "copy2build", false, "Always copy the asset into the report build")
	return c
}

// NewRegisterErrorCmd creates the asset register-error command.
func NewRegisterErrorCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		componentFlag string
		messageFlag   string
	)

	c := &cobra.Command{
		Use:   "register-error [traceback-file]",
		Short: "Register an error traceback as an asset",
		Long: `Register an error traceback as an asset.

The traceback is read from the given file, or from stdin when the file is
omitted or "-". Error assets render with the error_traceback template and
are listed by search_error_assets in report documents, so a failing plot
shows up in the report instead of silently missing.

Registration follows 'pharaoh asset register': inside an asset script the
asset is queued, outside of generation --component is required.

Examples:
  # From a shell asset script
  plot.sh 2> err.log || pharaoh asset register-error err.log -M "plot failed"

  # Directly, outside of generation
  echo "no data" | pharaoh asset register-error --component intro -M "empty input"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var (
				traceback []byte
				err       error
			)
			if len(args) == 0 || args[0] == "-" {
				traceback, err = io.ReadAll(c.InOrStdin())
			} else {
				traceback, err = os.ReadFile(args[0])
			}
			if err != nil {
				return cmdutil.Fail("reading traceback failed", err)
			}

			if manifest := os.Getenv(generate.EnvManifest); manifest != "" {
				if err := generate.AppendManifest(manifest, generate.ErrorEntry(messageFlag, traceback)); err != nil {
					return cmdutil.Fail("queueing error asset failed", err)
				}
				output.Debug("queued error asset", "manifest", manifest)
				return nil
			}

			if componentFlag == "" {
				output.Info("not running inside asset generation, error asset not registered")
				return nil
			}

			p, err := cmdutil.OpenProject(cfg)
			if err != nil {
				return cmdutil.Fail("opening project failed", err)
			}
			a, err := p.RegisterAsset(componentFlag, passet.ErrorFile, passet.ErrorOptions(messageFlag, traceback))
			if err != nil {
				return cmdutil.Fail("registering error asset failed", err)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Registered "+output.StyleNoun.Render(a.Name())))
			return nil
		},
	}

	c.Flags().StringVar(&componentFlag, "component", "", "Register directly with this component outside of asset generation")
	c.Flags().StringVarP(&messageFlag, "message", "M", "", "Short error message shown above the traceback")
	return c
}

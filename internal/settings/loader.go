package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pharaoh-reports/pharaoh/internal/fsutil"
	"github.com/pharaoh-reports/pharaoh/internal/mergedeep"
)

// envPattern matches variables that feed the env namespace: PHARAOH or
// PHARAO, followed by "." or "__", followed by the key path.
var envPattern = regexp.MustCompile(`(?i)^PHARAOH?(\.|__).+$`)

const fileHeader = "# Pharaoh project settings.\n# Values may reference other settings with ${dot.path} or resolvers like ${now.strf:%Y%m%d}.\n"

// ReadFile reads a YAML settings file. A missing file yields an empty layer.
func ReadFile(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	return mergedeep.DeepCopy(v.AllSettings()), nil
}

// WriteFile writes data as YAML through a temporary file so readers
// never see a partial file.
func WriteFile(path string, data map[string]any) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	return fsutil.WriteFileAtomic(afero.NewOsFs(), path, buf.Bytes(), 0o644)
}

// envLayer builds the env namespace from KEY=VALUE pairs.
func envLayer(environ []string) map[string]any {
	pairs := append([]string(nil), environ...)
	sort.Strings(pairs)

	out := map[string]any{}
	for _, kv := range pairs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !envPattern.MatchString(name) {
			continue
		}

		parts := splitEnvKey(name)[1:]
		valid := len(parts) > 0
		for i, p := range parts {
			if p == "" {
				valid = false
				break
			}
			parts[i] = strings.ToLower(p)
		}
		if !valid {
			continue
		}

		mergedeep.Set(out, strings.Join(parts, "."), ParseValue(value))
	}
	return out
}

// splitEnvKey splits a variable name on "." and on runs of exactly two
// underscores. Single underscores and runs of three or more stay in the
// segment.
func splitEnvKey(name string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(name); {
		switch name[i] {
		case '.':
			parts = append(parts, cur.String())
			cur.Reset()
			i++
		case '_':
			j := i
			for j < len(name) && name[j] == '_' {
				j++
			}
			if j-i == 2 {
				parts = append(parts, cur.String())
				cur.Reset()
			} else {
				cur.WriteString(name[i:j])
			}
			i = j
		default:
			cur.WriteByte(name[i])
			i++
		}
	}
	return append(parts, cur.String())
}

// ParseValue interprets a string as a YAML literal, so "123" becomes an int,
// "true" a bool and "[1, 2]" a list. Unparseable input is returned unchanged.
func ParseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	if v == nil {
		switch strings.TrimSpace(raw) {
		case "", "~", "null", "Null", "NULL":
			return nil
		}
		return raw
	}
	return mergedeep.DeepCopyValue(v)
}

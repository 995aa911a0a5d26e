package settings

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"gopkg.in/yaml.v3"
)

// Diff renders a human readable diff between two settings trees.
// It returns an empty string when both are equal.
func Diff(fromName string, from map[string]any, toName string, to map[string]any, useColor bool) (string, error) {
	fromInput, err := yamlInput(fromName, from)
	if err != nil {
		return "", fmt.Errorf("parsing %s settings: %w", fromName, err)
	}
	toInput, err := yamlInput(toName, to)
	if err != nil {
		return "", fmt.Errorf("parsing %s settings: %w", toName, err)
	}

	report, err := dyff.CompareInputFiles(fromInput, toInput)
	if err != nil {
		return "", fmt.Errorf("comparing settings: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	reportWriter := &dyff.HumanReport{
		Report:       report,
		NoTableStyle: !useColor,
		OmitHeader:   true,
	}
	if err := reportWriter.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func yamlInput(name string, data map[string]any) (ytbx.InputFile, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := yaml.Marshal(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	docs, err := ytbx.LoadYAMLDocuments(raw)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}

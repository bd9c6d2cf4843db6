package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// LoadDir reads every *.yaml, *.yml and *.json file under dir (one level of
// subdirectories included) in lexical order. Files that fail to parse are
// skipped with a warning; invalid records inside a file are skipped too.
func LoadDir(dir string, logger zerolog.Logger) ([]Question, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat item bank dir: %w", err)
	}
	if !info.IsDir() {
		return LoadFile(dir, logger)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		for _, glob := range []string{filepath.Join(dir, pattern), filepath.Join(dir, "*", pattern)} {
			matches, err := filepath.Glob(glob)
			if err != nil {
				continue
			}
			files = append(files, matches...)
		}
	}
	sort.Strings(files)

	var (
		out  []Question
		seen = make(map[string]struct{})
	)
	for _, file := range files {
		qs, err := LoadFile(file, logger)
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("failed to load question file")
			continue
		}
		for _, q := range qs {
			if _, dup := seen[q.ID]; dup {
				logger.Warn().Str("question_id", q.ID).Str("file", file).Msg("duplicate question id skipped")
				continue
			}
			seen[q.ID] = struct{}{}
			out = append(out, q)
		}
	}

	logger.Info().Int("questions", len(out)).Int("files", len(files)).Str("dir", dir).Msg("item bank loaded")
	return out, nil
}

// LoadFile reads one file holding either a single question or a list.
func LoadFile(path string, logger zerolog.Logger) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw []Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = decodeJSON(data)
	case ".yaml", ".yml":
		raw, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported question file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]Question, 0, len(raw))
	for i := range raw {
		q := raw[i]
		q.Normalize()
		if err := q.Validate(); err != nil {
			logger.Warn().Err(err).Str("file", path).Int("index", i).Msg("invalid question skipped")
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func decodeJSON(data []byte) ([]Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var q Question
		if err := json.Unmarshal(trimmed, &q); err != nil {
			return nil, err
		}
		return []Question{q}, nil
	}
	var qs []Question
	if err := json.Unmarshal(trimmed, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func decodeYAML(data []byte) ([]Question, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.MappingNode {
		var q Question
		if err := root.Decode(&q); err != nil {
			return nil, err
		}
		return []Question{q}, nil
	}
	var qs []Question
	if err := root.Decode(&qs); err != nil {
		return nil, err
	}
	return qs, nil
}

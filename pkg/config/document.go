package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	rerrors "github.com/rag2f/rag2f/pkg/errors"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// jsonParser decodes JSON documents keeping integers integral.
type jsonParser struct{}

func (jsonParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (jsonParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return json.Marshal(m)
}

// parserFor picks a koanf parser from a file extension or format name.
func parserFor(format string) (koanf.Parser, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json", "":
		return jsonParser{}, nil
	case "toml":
		return toml.Parser(), nil
	case "yaml", "yml":
		return yaml.Parser(), nil
	default:
		return nil, rerrors.Newf(rerrors.ErrConfigParse, "unsupported configuration format %q", format)
	}
}

// ParseDocument parses a configuration document held in memory. format is a
// file extension or name ("json", "toml", "yaml"); empty means JSON.
func ParseDocument(data []byte, format string) (map[string]any, error) {
	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}

	k := koanf.New(PathDelimiter)
	if err := k.Load(&rawBytesProvider{bytes: data}, parser); err != nil {
		return nil, rerrors.Wrap(err, rerrors.ErrConfigParse, "failed to parse configuration document").
			WithDetail("format", format)
	}
	return normalizeValue(k.Raw()).(map[string]any), nil
}

// LoadFile reads the configuration document at path. A missing file is not
// an error: it returns a nil layer, which Build treats as absent.
func LoadFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, rerrors.Wrap(err, rerrors.ErrConfigLoad, "cannot access configuration file").
			WithDetail("path", path)
	}

	parser, err := parserFor(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	k := koanf.New(PathDelimiter)
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, rerrors.Wrapf(err, rerrors.ErrConfigParse, "failed to load configuration from %s", path).
			WithDetail("path", path)
	}
	return normalizeValue(k.Raw()).(map[string]any), nil
}

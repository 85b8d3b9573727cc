package swiftdsv

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// configFormat mirrors Format in a YAML-friendly shape: byte fields marshal
// poorly as YAML scalars (they'd render as small integers), so the on-disk
// representation spells the delimiter and quote out as single-character
// strings instead.
type configFormat struct {
	Delim    string   `yaml:"delim"`
	Quote    string   `yaml:"quote"`
	Header   int      `yaml:"header"`
	ColNames []string `yaml:"col_names,omitempty"`
	Strict   bool     `yaml:"strict"`
	Subset   []int    `yaml:"subset,omitempty"`
}

// LoadFormat reads a Format from a YAML file, substituting ${VAR}
// environment references before parsing (so a config file can name a
// shared column list or delimiter without hardcoding per-environment
// values).
func LoadFormat(path string) (Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Format{}, wrapError(KindOpenFailed, "failed to read format config", err)
	}

	var cf configFormat
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &cf); err != nil {
		return Format{}, wrapError(KindOpenFailed, "failed to parse format config", err)
	}

	f := Format{
		Header:   cf.Header,
		ColNames: cf.ColNames,
		Strict:   cf.Strict,
		Subset:   cf.Subset,
	}
	if len(cf.Delim) > 0 {
		f.Delim = cf.Delim[0]
	}
	if len(cf.Quote) > 0 {
		f.Quote = cf.Quote[0]
	}
	return f, nil
}

// SaveFormat writes f to path as YAML.
func SaveFormat(path string, f Format) error {
	cf := configFormat{
		Header:   f.Header,
		ColNames: f.ColNames,
		Strict:   f.Strict,
		Subset:   f.Subset,
	}
	if f.Delim != 0 {
		cf.Delim = string(f.Delim)
	}
	if f.Quote != 0 {
		cf.Quote = string(f.Quote)
	}

	data, err := yaml.Marshal(cf)
	if err != nil {
		return wrapError(KindOpenFailed, "failed to marshal format config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapError(KindOpenFailed, "failed to write format config", err)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with the named environment
// variable's value, left as empty string if unset.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}

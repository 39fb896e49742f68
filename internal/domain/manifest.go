package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
)

// RootPath is the logical path of the application's entry document.
const RootPath = "/"

// Manifest maps a logical asset path to the content hash of the asset.
// It is produced at build time and treated as immutable at runtime.
type Manifest map[string]string

// manifestRules carries the validation tags applied to a manifest.
type manifestRules struct {
	Resources map[string]string `validate:"required,dive,keys,required,endkeys,len=32,hexadecimal,lowercase"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseManifest decodes a flat JSON object of path to hash and validates it.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every key is non-empty and every hash is a
// 32-character lowercase hex string.
func (m Manifest) Validate() error {
	if err := validate.Struct(manifestRules{Resources: m}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return nil
}

// Hash returns the content hash recorded for path.
func (m Manifest) Hash(path string) (string, bool) {
	h, ok := m[path]
	return h, ok && h != ""
}

// Paths returns the manifest keys in sorted order.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Marshal encodes the manifest in its wire format.
func (m Manifest) Marshal() ([]byte, error) {
	data, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// CheckCore returns ErrCoreNotInManifest if any core shell entry is missing
// from the manifest.
func (m Manifest) CheckCore(core []string) error {
	for _, p := range core {
		if _, ok := m.Hash(p); !ok {
			return fmt.Errorf("%w: %s", ErrCoreNotInManifest, p)
		}
	}
	return nil
}

var (
	resourcesPattern = regexp.MustCompile(`(?s)const\s+RESOURCES\s*=\s*(\{.*?\});`)
	corePattern      = regexp.MustCompile(`(?s)const\s+CORE\s*=\s*(\[.*?\]);`)
)

// ParseWorkerScript extracts the manifest and core shell list embedded in a
// generated offline worker script. The core list is nil when the script
// does not declare one.
func ParseWorkerScript(src []byte) (Manifest, []string, error) {
	match := resourcesPattern.FindSubmatch(src)
	if match == nil {
		return nil, nil, fmt.Errorf("%w: no RESOURCES table in worker script", ErrInvalidManifest)
	}
	m, err := ParseManifest(match[1])
	if err != nil {
		return nil, nil, err
	}

	var core []string
	if cm := corePattern.FindSubmatch(src); cm != nil {
		if err := json.Unmarshal(cm[1], &core); err != nil {
			return nil, nil, fmt.Errorf("%w: decode CORE list: %v", ErrInvalidManifest, err)
		}
	}
	return m, core, nil
}

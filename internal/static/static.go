package static

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// coreShellJSON lists the files a web build needs before it can render.
//
//go:embed core_shell.json
var coreShellJSON []byte

// CoreShell returns the default core shell list in install order.
func CoreShell() ([]string, error) {
	var core []string
	if err := json.Unmarshal(coreShellJSON, &core); err != nil {
		return nil, fmt.Errorf("decode embedded core shell: %w", err)
	}
	return core, nil
}

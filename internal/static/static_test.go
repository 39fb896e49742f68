package static_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmonBrollo/FlashLingo/internal/static"
)

func TestCoreShell(t *testing.T) {
	core, err := static.CoreShell()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"main.dart.js",
		"index.html",
		"flutter_bootstrap.js",
		"assets/AssetManifest.bin.json",
		"assets/FontManifest.json",
	}, core)
}

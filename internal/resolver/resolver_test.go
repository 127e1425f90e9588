package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackpress/reactus/internal/errors"
)

func TestCanonicalize_ProjectRelativeForms(t *testing.T) {
	r := New("/proj")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"absolute inside root", "/proj/pages/home.tsx", "@/pages/home.tsx"},
		{"file url inside root", "file:///proj/pages/home.tsx", "@/pages/home.tsx"},
		{"relative", "./pages/home.tsx", "@/pages/home.tsx"},
		{"already canonical", "@/pages/home.tsx", "@/pages/home.tsx"},
		{"nested", "/proj/pages/docs/getting-started.tsx", "@/pages/docs/getting-started.tsx"},
		{"unclean segments", "/proj/pages/../pages/home.tsx", "@/pages/home.tsx"},
		{"root itself as dir entry", "./pages/./home.tsx", "@/pages/home.tsx"},
		{"canonical form with dot segments", "@/pages/../pages/home.tsx", "@/pages/home.tsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Canonicalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_PackageForms(t *testing.T) {
	r := New("/proj")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare specifier", "react-feather/Home", "react-feather/Home"},
		{"scoped specifier", "@stackpress/ui/Button", "@stackpress/ui/Button"},
		{"node_modules inside root", "/proj/node_modules/react-feather/Home.js", "react-feather/Home.js"},
		{"node_modules outside root", "/opt/cache/node_modules/react-dom/client.js", "react-dom/client.js"},
		{"nested node_modules keeps last", "/proj/node_modules/a/node_modules/b/index.js", "b/index.js"},
		{"relative through node_modules", "./node_modules/lodash/map.js", "lodash/map.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Canonicalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_Rejections(t *testing.T) {
	r := New("/proj")

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"absolute outside root", "/etc/passwd"},
		{"parent escape", "../secrets.tsx"},
		{"sibling of root", "/project-other/pages/home.tsx"},
		{"node_modules with nothing after", "/proj/node_modules/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Canonicalize(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidEntry(err), "expected InvalidEntry, got %v", err)
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	r := New("/proj")

	inputs := []string{
		"/proj/pages/home.tsx",
		"file:///proj/pages/about.tsx",
		"./pages/contact.tsx",
		"@/pages/home.tsx",
		"react-feather/Home",
		"/proj/node_modules/react-dom/client.js",
	}

	for _, raw := range inputs {
		once, err := r.Canonicalize(raw)
		require.NoError(t, err, raw)

		twice, err := r.Canonicalize(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, "canonicalize not idempotent for %q", raw)
	}
}

func TestCanonicalize_BoundaryMarkerMustBeSegment(t *testing.T) {
	r := New("/proj")

	// "fake_node_modules" is not a package boundary.
	got, err := r.Canonicalize("/proj/fake_node_modules/pages/home.tsx")
	require.NoError(t, err)
	assert.Equal(t, "@/fake_node_modules/pages/home.tsx", got)
}

func TestAbsolute(t *testing.T) {
	r := New("/proj")

	abs, ok := r.Absolute("@/pages/home.tsx")
	assert.True(t, ok)
	assert.Equal(t, "/proj/pages/home.tsx", abs)

	_, ok = r.Absolute("react-feather/Home")
	assert.False(t, ok)
}

func TestIsPackageEntry(t *testing.T) {
	assert.False(t, IsPackageEntry("@/pages/home.tsx"))
	assert.True(t, IsPackageEntry("react-feather/Home"))
	assert.True(t, IsPackageEntry("@stackpress/ui/Button"))
}

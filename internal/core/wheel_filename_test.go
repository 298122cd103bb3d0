package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheel-installer/internal/types"
)

func TestParseWheelFilename(t *testing.T) {
	info, err := ParseWheelFilename("/tmp/dl/Zope.Interface-5.4.0-cp310-cp310-manylinux_2_17_x86_64.whl")
	require.NoError(t, err)
	want := types.WheelFileInfo{
		Name:    "zope-interface",
		Version: "5.4.0",
		Tags:    []types.WheelTag{{Python: "cp310", ABI: "cp310", Platform: "manylinux_2_17_x86_64"}},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("unexpected info (-want +got):\n%s", diff)
	}
}

func TestParseWheelFilenameExpandsTagSets(t *testing.T) {
	info, err := ParseWheelFilename("six-1.16.0-1-py2.py3-none-any.whl")
	require.NoError(t, err)
	assert.Equal(t, "1", info.BuildTag)
	require.Len(t, info.Tags, 2)
	assert.Equal(t, "py2-none-any", info.Tags[0].String())
	assert.Equal(t, "py3-none-any", info.Tags[1].String())
}

func TestParseWheelFilenameErrors(t *testing.T) {
	tests := []string{
		"six-1.16.0.tar.gz",
		"six-1.16.0-py3-none.whl",
		"six-1.16.0-build-py3-none-any.whl",
		"a-b-c-d-e-f-g.whl",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseWheelFilename(name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid wheel filename")
		})
	}
}

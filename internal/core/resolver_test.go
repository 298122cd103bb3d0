package core

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheel-installer/internal/types"
)

func mustRecord(t *testing.T, name string, requires ...string) types.WheelRecord {
	t.Helper()
	record, err := BuildWheelRecord(context.Background(), WheelMetadata{
		Name:         name,
		Version:      "1.2.3",
		RequiresDist: requires,
	}, name+"-1.2.3.dist-info", nil)
	require.NoError(t, err)
	return record
}

func TestResolveDependenciesSelfEdgeScenario(t *testing.T) {
	record := mustRecord(t, "Foo",
		"bar",
		"Foo ; extra == 'x'",
		"baz ; extra == 'x'",
	)

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet("x"), nil)
	if diff := cmp.Diff([]string{"bar", "baz"}, deps.Sorted()); diff != "" {
		t.Fatalf("unexpected deps (-want +got):\n%s", diff)
	}
	assert.False(t, deps.Has(record.Name()))
}

func TestResolveDependenciesNoExtrasYieldsUnconditional(t *testing.T) {
	record := mustRecord(t, "pkg",
		"Requests>=2",
		"six",
		"pytest ; extra == 'test'",
		"sphinx ; extra == 'docs'",
	)

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet(), nil)
	assert.Equal(t, []string{"requests", "six"}, deps.Sorted())
}

func TestResolveDependenciesAllExtrasYieldsEverythingButSelf(t *testing.T) {
	record := mustRecord(t, "pkg",
		"six",
		"pytest ; extra == 'test'",
		"sphinx ; extra == 'docs'",
		"PKG[test] ; extra == 'all'",
	)

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet(record.DeclaredExtras()...), nil)
	assert.Equal(t, []string{"pytest", "six", "sphinx"}, deps.Sorted())
}

func TestResolveDependenciesUndeclaredExtraIsPermissive(t *testing.T) {
	record := mustRecord(t, "pkg", "six", "pytest ; extra == 'test'")

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet("does-not-exist"), nil)
	assert.Equal(t, []string{"six"}, deps.Sorted())
}

func TestResolveDependenciesDeduplicatesCanonicalNames(t *testing.T) {
	record := mustRecord(t, "pkg",
		"Zope.Interface",
		"zope_interface>=5 ; extra == 'x'",
		"ZOPE-INTERFACE",
	)

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet("X"), nil)
	assert.Equal(t, []string{"zope-interface"}, deps.Sorted())
}

func TestResolveDependenciesOrderIndependent(t *testing.T) {
	requires := []string{
		"a",
		"b ; extra == 'one'",
		"c ; extra == 'two'",
		"pkg ; extra == 'one'",
		"d>=1",
		"e ; extra == 'one'",
	}
	extras := types.NewExtraSet("one")
	want := ResolveDependencies(context.Background(), mustRecord(t, "pkg", requires...), extras, nil).Sorted()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), requires...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := ResolveDependencies(context.Background(), mustRecord(t, "pkg", shuffled...), extras, nil).Sorted()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("order changed result (-want +got):\n%s", diff)
		}
	}
}

func TestResolveDependenciesWithEnvironment(t *testing.T) {
	record := mustRecord(t, "pkg",
		`tomli ; python_version < "3.11"`,
		`pywin32 ; sys_platform == "win32"`,
		`uvloop ; sys_platform != "win32" and extra == "fast"`,
		`pkg[fast] ; extra == "all"`,
		`colorama ; extra == "cli" or sys_platform == "win32"`,
	)
	env := &types.MarkerEnvironment{PythonVersion: "3.10", SysPlatform: "linux"}

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet(), env)
	assert.Equal(t, []string{"tomli"}, deps.Sorted())

	deps = ResolveDependencies(context.Background(), record, types.NewExtraSet("fast", "all"), env)
	assert.Equal(t, []string{"tomli", "uvloop"}, deps.Sorted())

	deps = ResolveDependencies(context.Background(), record, types.NewExtraSet("cli"), &types.MarkerEnvironment{PythonVersion: "3.12", SysPlatform: "win32"})
	assert.Equal(t, []string{"colorama", "pywin32"}, deps.Sorted())
}

func TestResolveDependenciesCompoundExtraMarkers(t *testing.T) {
	record := mustRecord(t, "pkg",
		"six",
		"baz ; extra == 'a' or extra == 'b'",
		`qux ; (extra == "b" or extra == "c") and python_version >= "3.8"`,
		"only-a ; extra == 'a'",
	)

	tests := []struct {
		name   string
		extras types.ExtraSet
		want   []string
	}{
		{"none", types.NewExtraSet(), []string{"six"}},
		{"first", types.NewExtraSet("a"), []string{"baz", "only-a", "six"}},
		{"second", types.NewExtraSet("b"), []string{"baz", "qux", "six"}},
		{"third", types.NewExtraSet("C"), []string{"qux", "six"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := ResolveDependencies(context.Background(), record, tt.extras, nil)
			if diff := cmp.Diff(tt.want, deps.Sorted()); diff != "" {
				t.Fatalf("unexpected deps (-want +got):\n%s", diff)
			}
		})
	}
	assert.Equal(t, []string{"a", "b", "c"}, record.DeclaredExtras())
}

func TestResolveDependenciesUnparsableMarkerUsesEveryNamedExtra(t *testing.T) {
	record := mustRecord(t, "pkg", "weird ; extra == 'a' or extra == 'b' or bogus_variable == '1'")

	assert.Equal(t, []string{"weird"}, ResolveDependencies(context.Background(), record, types.NewExtraSet("b"), nil).Sorted())
	assert.Empty(t, ResolveDependencies(context.Background(), record, types.NewExtraSet(), nil).Sorted())
}

func TestResolveDependenciesPartialEnvironment(t *testing.T) {
	record := mustRecord(t, "pkg",
		`cpy ; implementation_name == "cpython"`,
		`rel ; platform_release >= "5"`,
		`old ; python_version < "3.8"`,
		`new ; python_version >= "3.8"`,
	)
	env := &types.MarkerEnvironment{PythonVersion: "3.11"}

	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet(), env)
	assert.Equal(t, []string{"cpy", "new", "rel"}, deps.Sorted())
}

func TestResolveDependenciesProvidedExtraWithoutDependencies(t *testing.T) {
	record, err := BuildWheelRecord(context.Background(), WheelMetadata{
		Name:          "pkg",
		Version:       "1.0",
		RequiresDist:  []string{"six", "pytest ; extra == 'test'"},
		ProvidesExtra: []string{"test", "Empty_Extra"},
	}, "pkg-1.0.dist-info", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"empty-extra", "test"}, record.DeclaredExtras())
	deps := ResolveDependencies(context.Background(), record, types.NewExtraSet("empty-extra"), nil)
	assert.Equal(t, []string{"six"}, deps.Sorted())
}

func TestResolveDependenciesDoesNotMutateRecord(t *testing.T) {
	record := mustRecord(t, "pkg", "a", "b ; extra == 'x'")
	before := record.Dependencies()

	_ = ResolveDependencies(context.Background(), record, types.NewExtraSet("x"), nil)

	if diff := cmp.Diff(before, record.Dependencies()); diff != "" {
		t.Fatalf("record changed (-before +after):\n%s", diff)
	}
}

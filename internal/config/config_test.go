// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points COVCACHE_CFG at a testdata file and loads it.
func setupTestConfig(t *testing.T, testdataFile string) Type {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	require.NoError(t, err, "failed to get absolute path for test config")
	t.Setenv("COVCACHE_CFG", absPath)

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "json", cfg.Data["output"])
				assert.Equal(t, "file", cfg.Data["store"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				s3, ok := cfg.Data["s3"].(map[string]interface{})
				assert.True(t, ok, "s3 should be a map")
				assert.Equal(t, "us-west-2", s3["region"])
				assert.Equal(t, "ci-coverage", s3["bucket"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["annotations"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				tags, ok := cfg.Data["tags"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, tags, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setupTestConfig(t, tt.testFile)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("COVCACHE_CFG", "/nonexistent/path/covcache.yaml")

	cfg, err := Load(filepath.Join("testdata", "simple.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Data["output"])
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("COVCACHE_CFG", "/nonexistent/path/covcache.yaml")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_COVCACHE_CFG_IsDirectory(t *testing.T) {
	t.Setenv("COVCACHE_CFG", "testdata")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_StandardLocations(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte("output: yaml\n"), 0o600))

	t.Setenv("COVCACHE_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, FileName), cfg.Source)

	// XDG wins over HOME.
	xdg := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(xdg, FileName), []byte("output: json\n"), 0o600))
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Data["output"])

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", t.TempDir())
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(p, []byte("output: [json\n"), 0o600))

	_, err := Load(p)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{
			name:     "simple string value",
			testFile: "simple.yaml",
			key:      "output",
			want:     "json",
		},
		{
			name:     "nested string value",
			testFile: "nested.yaml",
			key:      "s3.region",
			want:     "us-west-2",
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []string{"default-value"},
			want:         "default-value",
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-string value",
			testFile: "mixed-types.yaml",
			key:      "version",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setupTestConfig(t, tt.testFile)

			got, err := cfg.GetString(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{
			name:     "int value",
			testFile: "mixed-types.yaml",
			key:      "version",
			want:     1,
		},
		{
			name:     "float value converted to int",
			testFile: "mixed-types.yaml",
			key:      "timeout",
			want:     30,
		},
		{
			name:     "nested int value",
			testFile: "nested.yaml",
			key:      "cache.clean",
			want:     24,
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []int{60},
			want:         60,
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-int value",
			testFile: "simple.yaml",
			key:      "output",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setupTestConfig(t, tt.testFile)

			got, err := cfg.GetInt(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	cfg := setupTestConfig(t, "mixed-types.yaml")

	v, err := cfg.GetBool("annotations")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = cfg.GetBool("deprecated")
	require.NoError(t, err)
	assert.False(t, v)

	v, err = cfg.GetBool("missing", true)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = cfg.GetBool("tags")
	assert.Error(t, err)
}

func TestConfig_GetNestedPath(t *testing.T) {
	cfg := setupTestConfig(t, "nested.yaml")

	val, err := cfg.get("cache.dir")
	assert.NoError(t, err)
	assert.Equal(t, "/var/cache/covcache", val)

	_, err = cfg.get("cache.dir.deeper")
	assert.Error(t, err)
}

func TestGetString_NamespaceFallback(t *testing.T) {
	cfg := setupTestConfig(t, "namespace.yaml").WithNamespace("analyse")

	val, err := cfg.GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "json", val)

	b, err := cfg.GetBool("annotations")
	assert.NoError(t, err)
	assert.True(t, b)

	// Falls back to the bare key outside the namespace.
	cfg = cfg.WithNamespace("stats")
	val, err = cfg.GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "text", val)

	_, err = cfg.GetString("nonexistent")
	assert.Error(t, err)
}

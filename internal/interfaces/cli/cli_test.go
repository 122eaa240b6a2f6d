package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/intelligence/success_predictor"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/TreatIQ-Intelligence/pkg/types/prediction"
)

const catalogYAML = `
treatments:
  - id: inj-botox
    name: {en: Botulinum Toxin}
    category: injectable
    intensity: medium
    contraindications: [pregnancy]
    best_for: [wrinkles]
  - id: facial-hydra
    name: {en: Hydrating Facial}
    category: facial
    intensity: low
    best_for: [dry]
historical_outcomes:
  - {patient_age: 44, treatment_id: inj-botox, success_rate: 0.82}
`

const profileYAML = `
age: 45
skin_type: dry
skin_conditions: [wrinkles]
lifestyle: {sleep: good, stress: low, smoking: false}
environment: {sun_exposure: medium, climate: humid}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "treatiq", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"predict", "model", "migrate", "catalog", "version"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"config", "log-level", "output", "no-color", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_RejectsUnknownOutput(t *testing.T) {
	_, err := run(t, "-o", "xml", "version")
	assert.True(t, errors.IsValidation(err))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "treatiq "+Version)
}

func TestModelCmd(t *testing.T) {
	out, err := run(t, "-o", "json", "model")
	require.NoError(t, err)
	var w ptypes.ModelWeights
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Equal(t, success_predictor.DefaultWeights().DTO(), w)

	out, err = run(t, "model")
	require.NoError(t, err)
	assert.Contains(t, out, "FACTOR")
	assert.Contains(t, out, "treatment_match")
	assert.Contains(t, out, "0.20")
}

func TestPredictCmd_JSON(t *testing.T) {
	catalog := writeFile(t, "catalog.yaml", catalogYAML)
	profile := writeFile(t, "profile.yaml", profileYAML)

	out, err := run(t, "-o", "json", "predict", "--profile", profile, "--catalog", catalog, "--treatments", "inj-botox, facial-hydra")
	require.NoError(t, err)

	var resp ptypes.PredictResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Predictions, 2)
	assert.GreaterOrEqual(t, resp.Predictions[0].SuccessProbability, resp.Predictions[1].SuccessProbability)
}

func TestPredictCmd_Table(t *testing.T) {
	catalog := writeFile(t, "catalog.yaml", catalogYAML)
	profile := writeFile(t, "profile.yaml", profileYAML)

	out, err := run(t, "predict", "-p", profile, "--catalog", catalog, "-t", "inj-botox")
	require.NoError(t, err)
	assert.Contains(t, out, "Treatment Success Predictions")
	assert.Contains(t, out, "inj-botox")
	assert.Contains(t, out, "Botulinum Toxin")
}

func TestPredictCmd_Errors(t *testing.T) {
	catalog := writeFile(t, "catalog.yaml", catalogYAML)
	profile := writeFile(t, "profile.yaml", profileYAML)
	badProfile := writeFile(t, "bad.yaml", "age: [not a number")

	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{"missing flags", []string{"predict"}, func(err error) bool { return err != nil }},
		{"empty treatments", []string{"predict", "-p", profile, "--catalog", catalog, "-t", " , "}, errors.IsValidation},
		{"unreadable profile", []string{"predict", "-p", filepath.Join(t.TempDir(), "none.yaml"), "--catalog", catalog, "-t", "inj-botox"},
			func(err error) bool { return errors.IsCode(err, errors.ErrCodeBadRequest) }},
		{"malformed profile", []string{"predict", "-p", badProfile, "--catalog", catalog, "-t", "inj-botox"},
			func(err error) bool { return errors.IsCode(err, errors.ErrCodeBadRequest) }},
		{"catalog with postgres", []string{"predict", "-p", profile, "--catalog", catalog, "--store", "postgres", "-t", "inj-botox"}, errors.IsValidation},
		{"unknown treatments", []string{"predict", "-p", profile, "--catalog", catalog, "-t", "ghost"}, errors.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestApplyStoreFlags(t *testing.T) {
	tests := []struct {
		name      string
		store     string
		catalog   string
		wantStore string
		wantPath  string
		wantErr   bool
	}{
		{"no override", "", "", config.StoreMemory, "default.yaml", false},
		{"catalog path", "", "c.yaml", config.StoreMemory, "c.yaml", false},
		{"postgres", config.StorePostgres, "", config.StorePostgres, "default.yaml", false},
		{"unknown store", "sqlite", "", "", "", true},
		{"catalog with postgres", config.StorePostgres, "c.yaml", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Catalog: config.CatalogConfig{Store: config.StoreMemory, Path: "default.yaml"}}
			err := applyStoreFlags(cfg, tt.store, tt.catalog)
			if tt.wantErr {
				assert.True(t, errors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStore, cfg.Catalog.Store)
			assert.Equal(t, tt.wantPath, cfg.Catalog.Path)
		})
	}
}

func TestCatalogListCmd(t *testing.T) {
	catalog := writeFile(t, "catalog.yaml", catalogYAML)

	out, err := run(t, "-o", "json", "catalog", "list", "--catalog", catalog)
	require.NoError(t, err)
	var list []*ptypes.TreatmentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 2)

	out, err = run(t, "catalog", "list", "--catalog", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2")
}

func TestCatalogImportCmd_DryRun(t *testing.T) {
	catalog := writeFile(t, "catalog.yaml", catalogYAML)
	out, err := run(t, "catalog", "import", "-f", catalog, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "2 treatment(s), 1 historical outcome(s)")

	dup := writeFile(t, "dup.yaml", `
treatments:
  - {id: a, name: {en: A}, category: facial, intensity: low}
  - {id: a, name: {en: A again}, category: facial, intensity: low}
`)
	_, err = run(t, "catalog", "import", "-f", dup, "--dry-run")
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogInvalid))
}

func TestMigrateDownCmd_RejectsZeroSteps(t *testing.T) {
	_, err := run(t, "migrate", "down", "--steps", "0")
	assert.True(t, errors.IsValidation(err))
}

func TestPrintError(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	PrintError(cmd, errors.NewValidationError("age must not be negative").WithDetail("age=-1"))
	assert.Contains(t, buf.String(), "[COMMON_010] age must not be negative (age=-1)")

	buf.Reset()
	PrintError(cmd, nil)
	assert.Empty(t, buf.String())
}

//Personal.AI order the ending

package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const polarSource = `coords: r theta
g_{ij} = ((1, 0), (0, r**2))
`

func runGeometryCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewGeometryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeGeometry(t *testing.T, output string) GeometryResult {
	t.Helper()
	var resp struct {
		Status string         `json:"status"`
		Data   GeometryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestGeometryGaussianCurvatureOfSphere(t *testing.T) {
	sphere := filepath.Join("..", "harness", "testdata", "sources", "sphere.geo")

	output, err := runGeometryCommand(t, "json", sphere, "--target", "X", "--op", "gaussian", "--at", "u=1,v=0.3")
	require.NoError(t, err)

	result := decodeGeometry(t, output)
	assert.Equal(t, []string{"u", "v"}, result.Coords)
	assert.Empty(t, result.Shape)
	require.Len(t, result.Values, 1)
	assert.InDelta(t, 0.25, result.Values[0], 1e-9)
}

func TestGeometryChristoffelOfPolarMetric(t *testing.T) {
	path := writeFile(t, "polar.geo", polarSource)

	output, err := runGeometryCommand(t, "json", path, "--target", "g_{ij}", "--op", "christoffel", "--at", "r=2,theta=1")
	require.NoError(t, err)

	result := decodeGeometry(t, output)
	assert.Equal(t, []int{2, 2, 2}, result.Shape)
	require.Len(t, result.Values, 8)
	// Gamma^r_{theta theta} = -r, Gamma^theta_{r theta} = Gamma^theta_{theta r} = 1/r
	assert.InDelta(t, -2.0, result.Values[3], 1e-12)
	assert.InDelta(t, 0.5, result.Values[5], 1e-12)
	assert.InDelta(t, 0.5, result.Values[6], 1e-12)
	assert.InDelta(t, 0.0, result.Values[0], 1e-12)
}

func TestGeometryFlatMetricHasNoCurvature(t *testing.T) {
	path := writeFile(t, "polar.geo", polarSource)

	output, err := runGeometryCommand(t, "text", path, "--target", "g_{ij}", "--op", "ricci")
	require.NoError(t, err)
	assert.Contains(t, output, "ricci of g_{ij} over (r, theta)")
	assert.Contains(t, output, "all components are zero")
}

func TestGeometryMetricText(t *testing.T) {
	path := writeFile(t, "polar.geo", polarSource)

	output, err := runGeometryCommand(t, "text", path, "--target", "g_{ij}")
	require.NoError(t, err)
	assert.Contains(t, output, "[r,r] = 1")
	assert.Contains(t, output, "[theta,theta] = r**2")
	assert.NotContains(t, output, "[r,theta]")
}

func TestGeometryLaplacian(t *testing.T) {
	path := writeFile(t, "polar.geo", polarSource)

	// Laplacian of r^2 in the plane is 4 everywhere.
	output, err := runGeometryCommand(t, "json", path, "--target", "g_{ij}", "--op", "laplacian", "--f", "r**2", "--at", "r=3,theta=0.2")
	require.NoError(t, err)

	result := decodeGeometry(t, output)
	require.Len(t, result.Values, 1)
	assert.InDelta(t, 4.0, result.Values[0], 1e-9)
}

func TestGeometryErrors(t *testing.T) {
	path := writeFile(t, "polar.geo", polarSource)

	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"unknown op", []string{path, "--target", "g_{ij}", "--op", "torsion"}, ExitCommandError, ErrCodeBadFlag},
		{"laplacian without f", []string{path, "--target", "g_{ij}", "--op", "laplacian"}, ExitCommandError, ErrCodeBadFlag},
		{"undefined target", []string{path, "--target", "h_{ij}"}, ExitFailure, "INVALID_TARGET"},
		{"gaussian needs 2D", nil, ExitFailure, "E410"},
	}

	threeD := writeFile(t, "flat3.geo", "coords: x y z\ng_{ij} = ((1, 0, 0), (0, 1, 0), (0, 0, 1))\n")
	tests[3].args = []string{threeD, "--target", "g_{ij}", "--op", "gaussian"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runGeometryCommand(t, "json", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(output), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestIndexLabel(t *testing.T) {
	coords := []string{"u", "v"}
	assert.Equal(t, "[u,u,u]", indexLabel(0, []int{2, 2, 2}, coords))
	assert.Equal(t, "[v,u,v]", indexLabel(5, []int{2, 2, 2}, coords))
	assert.Equal(t, "[v,v]", indexLabel(3, []int{2, 2}, coords))
}

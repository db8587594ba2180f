package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"reforma-budgets/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestBudgetRender_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.pdf")

	stdout := runCmd(t,
		"--number", "ORC-TEST0001",
		"--client", "Maria Souza",
		"--description", "Troca de piso da cozinha",
		"--value-with-material", "1500.50",
		"--date", "2024-05-20",
		"--scale", "1",
		"--out", first,
	)
	assert.Contains(t, stdout, "1 pages (1 budget, 0 attachment)")

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	pages, err := render.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	second := filepath.Join(dir, "second.pdf")
	stdout = runCmd(t,
		"--client", "Maria Souza",
		"--attachment", first,
		"--scale", "1",
		"--zoom", "1",
		"--out", second,
	)
	assert.Contains(t, stdout, "2 pages (1 budget, 1 attachment)")

	data, err = os.ReadFile(second)
	require.NoError(t, err)
	pages, err = render.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestBudgetRender_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	notPDF := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text"), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--attachment", notPDF, "--out", filepath.Join(dir, "x.pdf")})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--date", "20/05/2024", "--out", filepath.Join(dir, "y.pdf")})
	assert.Error(t, cmd.Execute())
}

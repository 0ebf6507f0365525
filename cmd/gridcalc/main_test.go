package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogtb/go-spreadsheet/packages/gridcore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestApplyScript(t *testing.T) {
	script := strings.Join([]string{
		"# totals",
		"A1 2",
		"A2 =A1*3",
		"",
		"B1 '=escaped",
		"B2 hello world",
		"C1 =A2/0",
		"!clear B2",
	}, "\n")

	runner := gridcore.NewRunner(func(string) {})
	require.NoError(t, applyScript(context.Background(), runner, strings.NewReader(script)))

	var out bytes.Buffer
	require.NoError(t, runner.Sheet().PrintValues(&out))
	assert.Equal(t, "2\t=escaped\t#ARITHM!\n6\t\t\n", out.String())

	out.Reset()
	require.NoError(t, runner.Sheet().PrintTexts(&out))
	assert.Equal(t, "2\t'=escaped\t=A2/0\n=A1*3\t\t\n", out.String())
}

func TestApplyScriptReportsLine(t *testing.T) {
	script := "A1 =B1\r\n\r\nB1 =A1\r\nC1 1\r\n"

	runner := gridcore.NewRunner(func(string) {})
	err := applyScript(context.Background(), runner, strings.NewReader(script))

	require.Error(t, err)
	assert.ErrorIs(t, err, gridcore.ErrCircularDependency)
	assert.True(t, strings.HasPrefix(err.Error(), "line 3:"), err.Error())
	assert.Equal(t, 2, runner.Sheet().CellCount())
}

func TestApplyScriptInvalidAddress(t *testing.T) {
	runner := gridcore.NewRunner(func(string) {})
	err := applyScript(context.Background(), runner, strings.NewReader("b7 1\n"))

	assert.ErrorIs(t, err, gridcore.ErrInvalidPosition)
	assert.Contains(t, err.Error(), "line 1:")
}

func TestApplyScriptUnknownCommand(t *testing.T) {
	runner := gridcore.NewRunner(func(string) {})
	err := applyScript(context.Background(), runner, strings.NewReader("A1 1\n!erase A1\n"))

	require.Error(t, err)
	assert.Equal(t, "line 2: unknown command !erase", err.Error())
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, 1, runner.Sheet().CellCount())
}

package main

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
)

func TestReportResultNoopPrintsReasonAndSwallowsError(t *testing.T) {
	var buf bytes.Buffer
	err := reportResult(&buf, &herr.NoopError{Reason: "system is already up to date"}, "unused")
	require.NoError(t, err)
	assert.Equal(t, "system is already up to date\n", buf.String())
}

func TestReportResultPropagatesOtherErrors(t *testing.T) {
	var buf bytes.Buffer
	want := errors.New("boom")
	err := reportResult(&buf, want, "unused")
	assert.Equal(t, want, err)
	assert.Empty(t, buf.String())
}

func TestReportResultNilErrorPrintsMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reportResult(&buf, nil, "created deployment hammer-x"))
	assert.Equal(t, "created deployment hammer-x\n", buf.String())
}

func TestReportResultNilErrorEmptyMessagePrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reportResult(&buf, nil, ""))
	assert.Empty(t, buf.String())
}

func TestPrintJSONIndentsOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]string{"status": "ready"}))
	assert.Equal(t, "{\n  \"status\": \"ready\"\n}\n", buf.String())
}

func TestRequireRootRejectsNonRoot(t *testing.T) {
	// This test process is almost never running as uid 0 under `go test`.
	if os.Geteuid() == 0 {
		t.Skip("test process is running as root")
	}
	assert.Error(t, requireRoot(nil, nil))
}

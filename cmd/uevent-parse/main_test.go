package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mniyk/uevent-monitoring-tools/internal/uevent"
)

func TestRun_Normalizes(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader("add@/d\x00SUBSYSTEM=usb\x00SEQNUM=1\x00"), &out, options{})
	require.NoError(t, err)
	assert.Equal(t, "add@/d\nACTION=add\nDEVPATH=/d\nSEQNUM=1\nSUBSYSTEM=usb\n", out.String())
}

func TestRun_NulSeparator(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader("ACTION=add\nDEVPATH=/d\n"), &out, options{attributesOnly: true, nul: true})
	require.NoError(t, err)
	assert.Equal(t, "add@/d\x00ACTION=add\x00DEVPATH=/d\x00", out.String())
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	err := run(strings.NewReader("SUBSYSTEM=usb\n"), &out, options{attributesOnly: true, asJSON: true})
	require.NoError(t, err)

	var attrs map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &attrs))
	assert.Equal(t, map[string]string{"SUBSYSTEM": "usb"}, attrs)
}

func TestRun_Errors(t *testing.T) {
	err := run(strings.NewReader("add@/d\nGARBAGE\n"), &bytes.Buffer{}, options{})
	assert.ErrorIs(t, err, uevent.ErrParse)

	err = run(strings.NewReader("add@/d\n"), &bytes.Buffer{}, options{require: true})
	assert.ErrorIs(t, err, errIncomplete)

	err = run(strings.NewReader("SUBSYSTEM=usb\n"), &bytes.Buffer{}, options{attributesOnly: true})
	assert.ErrorIs(t, err, uevent.ErrMissingHeader)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build ocr

package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognize_InvalidImage(t *testing.T) {
	client, err := New("eng")
	require.NoError(t, err)
	defer client.Close()
	assert.True(t, Enabled)

	_, err = client.Recognize([]byte("not an image"))
	assert.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	var client *Client
	assert.NoError(t, client.Close())
}

package storage

import (
	"testing"

	"github.com/abduss/postboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinIOClientDefaultsAPIPort(t *testing.T) {
	client, err := NewMinIOClient(config.MinIOConfig{
		Endpoint:        "localhost",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)
	assert.Equal(t, "http", client.EndpointURL().Scheme)
}

func TestNewMinIOClientKeepsExplicitPort(t *testing.T) {
	client, err := NewMinIOClient(config.MinIOConfig{
		Endpoint:        "objects.internal:9100",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UseSSL:          true,
	})
	require.NoError(t, err)

	assert.Equal(t, "objects.internal:9100", client.EndpointURL().Host)
	assert.Equal(t, "https", client.EndpointURL().Scheme)
}

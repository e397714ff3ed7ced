package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Request.MaxAttempts)
}

func TestLoadRejectsInvalidMaxAttempts(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/ferry.yaml"
	require.NoError(t, os.WriteFile(path, []byte("request:\n  max_attempts: 0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestBootstrapNodesFromStaticList(t *testing.T) {
	cfg := Default()
	cfg.Nodes.Static = []StaticNode{
		{Host: "10.0.0.1", Port: 9001},
		{Host: "10.0.0.2", Port: 9002},
	}

	nodes, err := BootstrapNodes(cfg)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "node-1", string(nodes[0].ID))
	assert.Equal(t, "node-2", string(nodes[1].ID))
	assert.Equal(t, "10.0.0.1", nodes[0].Endpoint.Host)
}

func TestBootstrapNodesFromEnvWinsOverStatic(t *testing.T) {
	cfg := Default()
	cfg.Nodes.Static = []StaticNode{{Host: "ignored", Port: 1}}

	t.Setenv("BACKEND_NODES", "host-a:8001,host-b:8002,host-c:8003")

	nodes, err := BootstrapNodes(cfg)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "node-1", string(nodes[0].ID))
	assert.Equal(t, "host-b", nodes[1].Endpoint.Host)
	assert.Equal(t, 8003, nodes[2].Endpoint.Port)
}

func TestBootstrapNodesRejectsMalformedEnvEntry(t *testing.T) {
	cfg := Default()
	t.Setenv("BACKEND_NODES", "host-without-port")

	_, err := BootstrapNodes(cfg)
	assert.Error(t, err)
}

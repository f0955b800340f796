package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"svcman/internal/services"
)

func listFixture() []services.Record {
	return []services.Record{
		{Kind: services.KindSystem, Name: "nginx"},
		{Kind: services.KindCompose, Name: "gitea", Location: "/srv/gitea"},
	}
}

func TestRenderListTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderList(&buf, listFixture(), "table"))
	assert.Equal(t, "0: [sys] nginx\n1: [docker] gitea (path: /srv/gitea)\n", buf.String())

	buf.Reset()
	require.NoError(t, renderList(&buf, nil, ""))
	assert.Equal(t, "No services registered.\n", buf.String())
}

func TestRenderListJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderList(&buf, listFixture(), "json"))

	var items []listItem
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Path)
	require.NotNil(t, items[1].Path)
	assert.Equal(t, "/srv/gitea", *items[1].Path)
	assert.Equal(t, 1, items[1].Index)
}

func TestRenderListYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderList(&buf, listFixture(), "yaml"))

	var items []listItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "docker", items[1].Tag)
	assert.Contains(t, buf.String(), "name: nginx")
}

func TestRenderListUnknownFormat(t *testing.T) {
	err := renderList(&bytes.Buffer{}, listFixture(), "xml")
	assert.Error(t, err)
}

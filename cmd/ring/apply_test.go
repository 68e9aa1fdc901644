package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFlexLabelsAcceptsMapping(t *testing.T) {
	var cf applyConfigFile
	data := []byte(`
deployments:
  web:
    name: web
    image: nginx
    labels:
      team: platform
      tier: frontend
`)
	require.NoError(t, yaml.Unmarshal(data, &cf))
	assert.Equal(t, "platform", cf.Deployments["web"].Labels["team"])
	assert.Equal(t, "frontend", cf.Deployments["web"].Labels["tier"])
}

func TestFlexLabelsAcceptsSequenceOfSingleKeyMaps(t *testing.T) {
	var cf applyConfigFile
	data := []byte(`
deployments:
  web:
    name: web
    image: nginx
    labels:
      - team: platform
      - tier: frontend
`)
	require.NoError(t, yaml.Unmarshal(data, &cf))
	assert.Equal(t, "platform", cf.Deployments["web"].Labels["team"])
	assert.Equal(t, "frontend", cf.Deployments["web"].Labels["tier"])
}

func TestFlexLabelsAcceptsNull(t *testing.T) {
	var cf applyConfigFile
	data := []byte(`
deployments:
  web:
    name: web
    image: nginx
`)
	require.NoError(t, yaml.Unmarshal(data, &cf))
	assert.Empty(t, cf.Deployments["web"].Labels)
}

func TestVolumeListParsesSourceDestPermission(t *testing.T) {
	var cf applyConfigFile
	data := []byte(`
deployments:
  web:
    name: web
    image: nginx
    volumes:
      - "/data:/app/data:ro"
      - "cache:/app/cache"
`)
	require.NoError(t, yaml.Unmarshal(data, &cf))
	volumes := cf.Deployments["web"].Volumes
	require.Len(t, volumes, 2)
	assert.Equal(t, "/app/data", volumes[0].Destination)
	assert.Equal(t, "ro", volumes[0].Permission)
	assert.Equal(t, "/app/cache", volumes[1].Destination)
	assert.Equal(t, "rw", volumes[1].Permission)
}

func TestApplyDefaultsFillsRuntimeAndKind(t *testing.T) {
	d := applyDeployment{Name: "web", Image: "nginx"}
	d.applyDefaults()
	assert.Equal(t, "docker", d.Runtime)
	assert.Equal(t, "worker", d.Kind)
}

func TestValidateRejectsEmptyNameOrImage(t *testing.T) {
	d := applyDeployment{Name: "", Image: "nginx", Runtime: "docker"}
	assert.Error(t, d.validate())

	d = applyDeployment{Name: "web", Image: "", Runtime: "docker"}
	assert.Error(t, d.validate())
}

func TestValidateRejectsUnsupportedRuntime(t *testing.T) {
	d := applyDeployment{Name: "web", Image: "nginx", Runtime: "containerd"}
	assert.Error(t, d.validate())
}

func TestResolveEnvVarsSubstitutesKnownVars(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	d := applyDeployment{
		Namespace: "$APP_ENV",
		Name:      "web",
		Image:     "nginx",
		Secrets:   map[string]string{"token": "$APP_ENV-token"},
	}
	d.resolveEnvVars()
	assert.Equal(t, "staging", d.Namespace)
	assert.Equal(t, "staging-token", d.Secrets["token"])
}

func TestResolveEnvVarsLeavesUnknownVarsUntouched(t *testing.T) {
	d := applyDeployment{Namespace: "$NOT_SET_ANYWHERE", Name: "web", Image: "nginx"}
	d.resolveEnvVars()
	assert.Equal(t, "$NOT_SET_ANYWHERE", d.Namespace)
}

func TestToCreateInputCarriesFields(t *testing.T) {
	d := applyDeployment{
		Namespace: "default",
		Name:      "web",
		Image:     "nginx",
		Runtime:   "docker",
		Kind:      "worker",
		Replicas:  2,
		Labels:    flexLabels{"team": "platform"},
	}
	in := d.toCreateInput()
	assert.Equal(t, "web", in.Name)
	assert.Equal(t, "nginx", in.Image)
	assert.Equal(t, 2, in.Replicas)
	assert.Equal(t, "platform", in.Labels["team"])
}

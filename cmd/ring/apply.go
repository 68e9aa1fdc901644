package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kemeter/ring/pkg/client"
	"github.com/kemeter/ring/pkg/config"
	"github.com/kemeter/ring/pkg/deploy"
	"github.com/kemeter/ring/pkg/types"
)

// flexLabels accepts labels as a YAML mapping or as a sequence of
// single-key mappings, matching both shapes deployment YAML is seen with.
type flexLabels map[string]string

func (l *flexLabels) UnmarshalYAML(value *yaml.Node) error {
	result := flexLabels{}

	switch value.Kind {
	case yaml.MappingNode:
		var m map[string]string
		if err := value.Decode(&m); err != nil {
			return err
		}
		for k, v := range m {
			result[k] = v
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			var m map[string]string
			if err := item.Decode(&m); err != nil {
				continue
			}
			for k, v := range m {
				result[k] = v
			}
		}
	}

	*l = result
	return nil
}

// volumeList parses "source:destination[:permission]" strings into
// types.Volume entries, matching the source YAML's shorthand.
type volumeList []types.Volume

func (v *volumeList) UnmarshalYAML(value *yaml.Node) error {
	var raw []string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	result := make(volumeList, 0, len(raw))
	for _, entry := range raw {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 {
			continue
		}
		source := parts[0]
		permission := "rw"
		if len(parts) >= 3 {
			permission = parts[2]
		}
		result = append(result, types.Volume{
			Type:        types.VolumeVolume,
			Source:      &source,
			Destination: parts[1],
			Driver:      "local",
			Permission:  permission,
		})
	}

	*v = result
	return nil
}

// applyDeployment is one entry of a ring.yaml's deployments map.
type applyDeployment struct {
	Namespace string            `yaml:"namespace"`
	Runtime   string            `yaml:"runtime"`
	Kind      string            `yaml:"kind"`
	Image     string            `yaml:"image"`
	Name      string            `yaml:"name"`
	Replicas  int               `yaml:"replicas"`
	Labels    flexLabels        `yaml:"labels"`
	Secrets   map[string]string `yaml:"secrets"`
	Volumes   volumeList        `yaml:"volumes"`
	Config    map[string]string `yaml:"config"`
}

type applyConfigFile struct {
	Deployments map[string]applyDeployment `yaml:"deployments"`
}

func (d *applyDeployment) applyDefaults() {
	if d.Runtime == "" {
		d.Runtime = "docker"
	}
	if d.Kind == "" {
		d.Kind = "worker"
	}
}

func (d *applyDeployment) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("deployment name cannot be empty")
	}
	if strings.TrimSpace(d.Image) == "" {
		return fmt.Errorf("deployment image cannot be empty")
	}
	if d.Runtime != "docker" {
		return fmt.Errorf("runtime %q not supported, only 'docker' is supported", d.Runtime)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$[a-zA-Z][0-9a-zA-Z_]*`)

func resolveEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if v, ok := os.LookupEnv(match[1:]); ok {
			return v
		}
		return match
	})
}

func (d *applyDeployment) resolveEnvVars() {
	d.Namespace = resolveEnvVars(d.Namespace)
	d.Name = resolveEnvVars(d.Name)
	d.Image = resolveEnvVars(d.Image)
	for k, v := range d.Secrets {
		d.Secrets[k] = resolveEnvVars(v)
	}
	for k, v := range d.Config {
		d.Config[k] = resolveEnvVars(v)
	}
}

func (d applyDeployment) toCreateInput() deploy.CreateInput {
	return deploy.CreateInput{
		Kind:      types.DeploymentKind(d.Kind),
		Name:      d.Name,
		Runtime:   d.Runtime,
		Namespace: d.Namespace,
		Image:     d.Image,
		Replicas:  d.Replicas,
		Labels:    map[string]string(d.Labels),
		Secrets:   d.Secrets,
		Volumes:   []types.Volume(d.Volumes),
	}
}

// parseEnvFile reads a .env-style file, setting any variable that isn't
// already present in the process environment.
func parseEnvFile(path string) {
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read env file %q: %v\n", path, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a deployment file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		envFile, _ := cmd.Flags().GetString("env-file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")
		verbose, _ := cmd.Flags().GetBool("verbose")

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		var cf applyConfigFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return fmt.Errorf("invalid YAML in %s: %w", file, err)
		}

		parseEnvFile(envFile)

		name, err := contextName(cmd)
		if err != nil {
			return err
		}
		if _, err := config.TokenFor(name); err != nil && !dryRun {
			return fmt.Errorf("account not found, run `ring login` first")
		}

		var cli *client.Client
		if !dryRun {
			cli, _, err = newClient(cmd)
			if err != nil {
				return err
			}
		}

		successCount, errorCount := 0, 0

		for deploymentName, d := range cf.Deployments {
			fmt.Printf("Processing deployment '%s'\n", deploymentName)

			d.applyDefaults()
			if err := d.validate(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: skipping '%s': %v\n", deploymentName, err)
				errorCount++
				continue
			}
			d.resolveEnvVars()

			if verbose {
				pretty, _ := json.MarshalIndent(d, "", "  ")
				fmt.Println("Configuration:")
				fmt.Println(string(pretty))
			}

			if dryRun {
				fmt.Printf("DRY RUN - Deployment '%s'\n", d.Name)
				if force {
					fmt.Println("Force mode enabled")
				}
				fmt.Println("---")
				successCount++
				continue
			}

			if _, err := cli.CreateDeployment(context.Background(), d.toCreateInput()); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to deploy '%s': %v\n", deploymentName, err)
				errorCount++
				continue
			}
			fmt.Printf("Deployment '%s' created\n", d.Name)
			successCount++
		}

		fmt.Println("\nSummary:")
		fmt.Printf("  Successful: %d\n", successCount)
		if errorCount > 0 {
			fmt.Printf("  Failed: %d\n", errorCount)
		}
		if dryRun {
			fmt.Println("\nDRY RUN COMPLETE - no changes were made")
		}

		return nil
	},
}

func init() {
	applyCmd.Flags().StringP("file", "f", "ring.yaml", "deployment file")
	applyCmd.Flags().StringP("env-file", "e", "", "use a .env file to set environment variables")
	applyCmd.Flags().BoolP("dry-run", "d", false, "preview without sending")
	applyCmd.Flags().Bool("force", false, "force update")
	applyCmd.Flags().Bool("verbose", false, "verbose output")
}

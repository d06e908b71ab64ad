package config

import (
	"fmt"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
)

const sampleYAML = `# memento configuration
#
# Project settings live in .memento/config.yaml; user-wide settings in
# ~/.memento/config.yaml. Project settings win over global ones and
# MEMENTO_* environment variables win over both.

# Mode activated when none is requested explicitly.
defaultMode: engineer

# Workflows suggested first, in order.
preferredWorkflows: []

# Extra directories or URLs that templates are installed from.
customTemplateSources: []

ui:
  # Colored terminal output. Override with MEMENTO_COLOR_OUTPUT.
  colorOutput: true
  # Extra diagnostics. Override with MEMENTO_VERBOSE.
  verboseLogging: false
  # Output of list-style commands: text or json.
  outputFormat: text

# Components to install. Override with MEMENTO_MODES, MEMENTO_WORKFLOWS
# and MEMENTO_HOOKS (comma-separated).
components:
  modes: []
  workflows: []
  agents: []
  hooks: []

integrations:
  git:
    # Commit generated files automatically.
    autoCommit: false
`

const sampleJSON = `// memento configuration
//
// Comments and trailing commas are accepted. Project settings win over
// global ones and MEMENTO_* environment variables win over both.
{
  // Mode activated when none is requested explicitly.
  "defaultMode": "engineer",

  // Workflows suggested first, in order.
  "preferredWorkflows": [],

  // Extra directories or URLs that templates are installed from.
  "customTemplateSources": [],

  "ui": {
    "colorOutput": true,     // MEMENTO_COLOR_OUTPUT
    "verboseLogging": false, // MEMENTO_VERBOSE
    "outputFormat": "text",  // text or json
  },

  // MEMENTO_MODES, MEMENTO_WORKFLOWS and MEMENTO_HOOKS override these.
  "components": {
    "modes": [],
    "workflows": [],
    "agents": [],
    "hooks": [],
  },

  "integrations": {
    "git": {
      "autoCommit": false,
    },
  },
}
`

// GenerateSample returns a commented configuration file listing every
// known setting. Only YAML and JSON are available.
func (r *Resolver) GenerateSample(format codec.Format) (string, error) {
	return Sample(format)
}

// Sample is GenerateSample without a Resolver.
func Sample(format codec.Format) (string, error) {
	switch format {
	case codec.FormatYAML:
		return sampleYAML, nil
	case codec.FormatJSON:
		return sampleJSON, nil
	default:
		return "", fmt.Errorf("%w: no sample in %s", ErrUnsupportedFormat, format)
	}
}

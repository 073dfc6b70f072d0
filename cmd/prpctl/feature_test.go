package main

import (
	"testing"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeature = `## FEATURE:
- Login endpoint with JWT tokens
- Password reset over email

## EXAMPLES:
* examples/auth/handler.go

## DOCUMENTATION:
1. https://pkg.go.dev/net/http

## OTHER CONSIDERATIONS:
- Rate limit failed logins
`

func TestParseFeatureSections(t *testing.T) {
	params := parseFeature(sampleFeature)

	assert.Equal(t, []string{"Login endpoint with JWT tokens", "Password reset over email"}, params["requirements"])
	assert.Equal(t, []string{"examples/auth/handler.go"}, params["examples"])
	assert.Equal(t, []string{"https://pkg.go.dev/net/http"}, params["documentation"])
	assert.Equal(t, []string{"Rate limit failed logins"}, params["gotchas"])
	assert.Contains(t, params["description"], "Login endpoint")
	assert.Equal(t, "medium", params["complexity"])
}

func TestParseFeatureIgnoresBulletsOutsideSections(t *testing.T) {
	params := parseFeature("- stray bullet\n\nFEATURE:\n- real one\n")

	assert.Equal(t, []string{"real one"}, params["requirements"])
	_, ok := params["examples"]
	assert.False(t, ok)
}

func TestDetectComplexity(t *testing.T) {
	cases := map[string]domain.Complexity{
		"A simple CLI flag":            domain.ComplexitySimple,
		"basic CRUD":                   domain.ComplexitySimple,
		"An advanced scheduler":        domain.ComplexityComplex,
		"complex but also simple bits": domain.ComplexityComplex,
		"Add a cache":                  domain.ComplexityMedium,
		"simpler than before":          domain.ComplexityMedium,
	}
	for input, want := range cases {
		assert.Equal(t, want, detectComplexity(input), input)
	}
}

func TestFeatureName(t *testing.T) {
	require.Equal(t, "user-auth", featureName("features/user-auth.md"))
	require.Equal(t, "INITIAL", featureName("INITIAL"))
}

func TestCommandsFrom(t *testing.T) {
	commands := commandsFrom([]interface{}{
		map[string]interface{}{"command": "go test ./...", "executed": false},
		map[string]interface{}{"executed": false},
		"not a map",
	})
	assert.Equal(t, []string{"go test ./..."}, commands)
	assert.Nil(t, commandsFrom(nil))
}

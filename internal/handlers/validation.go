package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/moodtracker/pkg/errors"
	"github.com/charlesng35/moodtracker/pkg/response"
	appValidator "github.com/charlesng35/moodtracker/pkg/validator"
)

const invalidPayload = "invalid request payload"

// validationMessages renders a failed rule for a field. The second argument is
// the rule parameter, empty when the rule has none.
var validationMessages = map[string]func(field, param string) string{
	"required": func(field, _ string) string { return field + " is required" },
	"notblank": func(field, _ string) string { return field + " is required" },
	"url":      func(field, _ string) string { return field + " must be a valid URL" },
	"https_url": func(field, _ string) string {
		return field + " must be an https URL"
	},
	"max": func(field, param string) string {
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	},
	"oneof": func(field, param string) string {
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	},
}

// bindAndValidate decodes the JSON body into dest and applies its validate
// tags. On failure the error response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewValidation(describeValidation(err)))
		return false
	}
	return true
}

// describeValidation joins one message per failed field, e.g.
// "endpoint is required; keys.auth is required".
func describeValidation(err error) string {
	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return invalidPayload
	}

	messages := make([]string, len(failures))
	for i, f := range failures {
		field := strings.ToLower(strings.ReplaceAll(f.Field, "_", " "))
		if field == "" {
			field = "field"
		}
		if render, ok := validationMessages[f.Tag]; ok {
			messages[i] = render(field, f.Param)
			continue
		}
		rule := f.Tag
		if f.Param != "" {
			rule += "=" + f.Param
		}
		messages[i] = fmt.Sprintf("%s failed validation: %s", field, rule)
	}
	return strings.Join(messages, "; ")
}

// parseIntQuery reads an integer query parameter, returning fallback when it is
// missing or not a number.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

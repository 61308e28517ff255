package patterns

import "fmt"

// Validate checks a Definition against the pattern schema and returns a list
// of violation descriptions, empty when valid. It is a pure reporting
// function: the registry never rejects malformed inserts, so integrators call
// Validate before accepting third-party pattern submissions.
//
// CIDR parseability is deliberately not checked here — malformed ranges are
// skipped at match time instead.
func Validate(def Definition) []string {
	var errs []string

	if def.Confidence == nil {
		errs = append(errs, "missing required field: confidence")
	} else if *def.Confidence < 0 || *def.Confidence > 1 {
		errs = append(errs, "confidence must be a number between 0 and 1")
	}

	for i, ua := range def.UserAgents {
		switch v := ua.(type) {
		case string:
		case map[string]any:
			expr, ok := v["regex"].(string)
			if !ok || expr == "" {
				errs = append(errs, fmt.Sprintf("user_agents[%d]: regex entries must carry a non-empty 'regex' string", i))
			}
		default:
			errs = append(errs, fmt.Sprintf("user_agents[%d]: entries must be strings or regex objects", i))
		}
	}

	for name, values := range def.Headers {
		switch values.(type) {
		case string, []string:
		case []any:
			for _, item := range values.([]any) {
				if _, ok := item.(string); !ok {
					errs = append(errs, fmt.Sprintf("headers[%q]: list values must be strings", name))
					break
				}
			}
		default:
			errs = append(errs, fmt.Sprintf("headers[%q]: value must be a string or a list of strings", name))
		}
	}

	return errs
}

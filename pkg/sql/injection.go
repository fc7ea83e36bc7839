package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a parameter value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Name of the parameter that failed the check
	ParamValue  any    // The value that was checked
}

// CheckParameterForInjection uses libinjection to detect SQL injection
// patterns in a parameter value supplied by the LLM.
//
// The query text itself is already constrained by ValidateReadOnly; this
// check covers the bind values, which flow into the query unconstrained.
// Only string values are checked - numbers, booleans, and other types
// cannot carry injection patterns and return nil.
//
// Example:
//
//	// Safe value - no injection
//	result := CheckParameterForInjection("equipment_id", "a1b2c3")
//	// result == nil
//
//	// Injection attempt detected
//	result := CheckParameterForInjection("plate", "'; DROP TABLE defects--")
//	// result.IsSQLi == true
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			ParamName:   paramName,
			ParamValue:  value,
		}
	}

	return nil
}

// CheckAllParameters validates all parameter values for SQL injection
// attempts. Returns one InjectionCheckResult per failing parameter; empty
// when all parameters are clean.
func CheckAllParameters(params map[string]any) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for name, value := range params {
		if result := CheckParameterForInjection(name, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}

package sanitizer

import (
	"regexp"

	"github.com/sanirun/sanirun/util/regexutil"
)

var (
	errorPattern = regexp.MustCompile(
		`==\d+==\s*(ERROR|WARNING):\s(?P<tool>\w+Sanitizer):\s(?P<error_type>.+)`,
	)
	runtimeErrorPattern = regexp.MustCompile(
		`\S+ runtime error: (?P<error_type>[^:]+)`,
	)
	valgrindSummaryPattern = regexp.MustCompile(
		`==\d+==\s*ERROR SUMMARY:\s(?P<count>[1-9]\d*) errors`,
	)
)

// FindReport checks a single output line for a sanitizer or valgrind
// failure marker and returns a short description of the defect.
func FindReport(line string) (string, bool) {
	if result, found := regexutil.FindNamedGroupsMatch(errorPattern, line); found {
		return result["tool"] + ": " + result["error_type"], true
	}

	if result, found := regexutil.FindNamedGroupsMatch(runtimeErrorPattern, line); found {
		return "undefined behaviour: " + result["error_type"], true
	}

	if result, found := regexutil.FindNamedGroupsMatch(valgrindSummaryPattern, line); found {
		return "valgrind: " + result["count"] + " errors", true
	}

	return "", false
}

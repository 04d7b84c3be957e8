package version

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
)

const (
	componentSeparatorConstant   = "."
	gitVersionPatternConstant    = `(?m)^git version (.*)$`
	emptyVectorRenderingConstant = ""
)

var gitVersionPattern = regexp.MustCompile(gitVersionPatternConstant)

// Vector is an ordered list of non-negative version components, e.g. 2.30.1 as [2 30 1].
type Vector []int

// Parse converts a dotted version string into a Vector.
// Each component contributes its leading decimal digits; components without digits count as zero.
// Trailing empty components are dropped, so "1.2." parses as [1 2] while "1..2" parses as [1 0 2].
func Parse(dottedVersion string) Vector {
	trimmedVersion := strings.TrimSpace(dottedVersion)
	if len(trimmedVersion) == 0 {
		return Vector{}
	}

	rawComponents := strings.Split(trimmedVersion, componentSeparatorConstant)
	for len(rawComponents) > 0 && len(rawComponents[len(rawComponents)-1]) == 0 {
		rawComponents = rawComponents[:len(rawComponents)-1]
	}
	parsedVector := make(Vector, 0, len(rawComponents))
	for _, rawComponent := range rawComponents {
		parsedVector = append(parsedVector, parseComponent(rawComponent))
	}
	return parsedVector
}

// ParseGitVersionOutput extracts the version from `git version <dotted>` output.
// The boolean result is false when no line matches, meaning the version is unknown.
func ParseGitVersionOutput(output string) (Vector, bool) {
	matches := gitVersionPattern.FindStringSubmatch(strings.TrimSpace(output))
	if len(matches) < 2 {
		return nil, false
	}
	return Parse(matches[1]), true
}

// Compare orders current against check and returns -1, 0 or 1.
//
// Components of current are walked in order, each paired with the next
// component of check (zero once check runs out); the first unequal pair decides.
// When every component of current compared equal, the result is -1 if check
// still has components left, even zero ones, so Compare([1 5], [1 5 0]) is -1.
func Compare(current Vector, check Vector) int {
	remainingCheck := append(Vector(nil), check...)
	for _, currentComponent := range current {
		checkComponent := 0
		if len(remainingCheck) > 0 {
			checkComponent = remainingCheck[0]
			remainingCheck = remainingCheck[1:]
		}
		if result := cmp.Compare(currentComponent, checkComponent); result != 0 {
			return result
		}
	}
	if len(remainingCheck) > 0 {
		return -1
	}
	return 0
}

// CompareStrings parses both dotted strings and compares them with Compare.
func CompareStrings(current string, check string) int {
	return Compare(Parse(current), Parse(check))
}

// String renders the vector in dotted form.
func (vector Vector) String() string {
	if len(vector) == 0 {
		return emptyVectorRenderingConstant
	}
	renderedComponents := make([]string, 0, len(vector))
	for _, component := range vector {
		renderedComponents = append(renderedComponents, strconv.Itoa(component))
	}
	return strings.Join(renderedComponents, componentSeparatorConstant)
}

// Clone returns an independent copy of the vector.
func (vector Vector) Clone() Vector {
	if vector == nil {
		return nil
	}
	return append(Vector{}, vector...)
}

func parseComponent(rawComponent string) int {
	trimmedComponent := strings.TrimSpace(rawComponent)
	digitCount := 0
	for digitCount < len(trimmedComponent) && trimmedComponent[digitCount] >= '0' && trimmedComponent[digitCount] <= '9' {
		digitCount++
	}
	if digitCount == 0 {
		return 0
	}
	// Only range errors are possible here; ParseInt then saturates at the maximum.
	componentValue, _ := strconv.ParseInt(trimmedComponent[:digitCount], 10, strconv.IntSize)
	return int(componentValue)
}

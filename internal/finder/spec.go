// SPDX-License-Identifier: MPL-2.0

package finder

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/pharbox/box/internal/issue"
)

// Method names accepted in a finder specification.
const (
	MethodIn             = "in"
	MethodName           = "name"
	MethodNotName        = "notName"
	MethodPath           = "path"
	MethodNotPath        = "notPath"
	MethodExclude        = "exclude"
	MethodContains       = "contains"
	MethodNotContains    = "notContains"
	MethodDepth          = "depth"
	MethodSize           = "size"
	MethodIgnoreDotFiles = "ignoreDotFiles"
	MethodIgnoreVCS      = "ignoreVCS"
	MethodFollowLinks    = "followLinks"
	MethodFiles          = "files"
	MethodSortByName     = "sortByName"
)

var methods = map[string]struct{}{
	MethodIn: {}, MethodName: {}, MethodNotName: {}, MethodPath: {}, MethodNotPath: {},
	MethodExclude: {}, MethodContains: {}, MethodNotContains: {}, MethodDepth: {},
	MethodSize: {}, MethodIgnoreDotFiles: {}, MethodIgnoreVCS: {}, MethodFollowLinks: {},
	MethodFiles: {}, MethodSortByName: {},
}

// Spec is a parsed finder specification. Directories in In are kept as written
// until the configuration resolver canonicalizes them against the base path.
type Spec struct {
	In          []string
	Names       []string
	NotNames    []string
	Paths       []string
	NotPaths    []string
	Excludes    []string
	Contains    []string
	NotContains []string
	Depths      []string
	Sizes       []string

	IgnoreDotFiles bool
	IgnoreVCS      bool
	FollowLinks    bool
}

// Methods returns the sorted list of supported method names.
func Methods() []string {
	return slices.Sorted(maps.Keys(methods))
}

// Parse converts one decoded finder object into a Spec. Every value may be a
// scalar or a list of scalars; each element is applied as a separate call.
func Parse(raw map[string]any) (Spec, error) {
	spec := Spec{IgnoreDotFiles: true, IgnoreVCS: true}

	// Sorted so that error reporting is deterministic.
	for _, method := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := methods[method]; !ok {
			return Spec{}, issue.Config("The method \"Finder::%s\" does not exist.", method)
		}

		args, err := arguments(method, raw[method])
		if err != nil {
			return Spec{}, err
		}

		switch method {
		case MethodIn:
			spec.In = append(spec.In, args...)
		case MethodName:
			spec.Names = append(spec.Names, args...)
		case MethodNotName:
			spec.NotNames = append(spec.NotNames, args...)
		case MethodPath:
			spec.Paths = append(spec.Paths, args...)
		case MethodNotPath:
			spec.NotPaths = append(spec.NotPaths, args...)
		case MethodExclude:
			spec.Excludes = append(spec.Excludes, args...)
		case MethodContains:
			spec.Contains = append(spec.Contains, args...)
		case MethodNotContains:
			spec.NotContains = append(spec.NotContains, args...)
		case MethodDepth:
			spec.Depths = append(spec.Depths, args...)
		case MethodSize:
			spec.Sizes = append(spec.Sizes, args...)
		case MethodIgnoreDotFiles:
			spec.IgnoreDotFiles = lastBool(args, true)
		case MethodIgnoreVCS:
			spec.IgnoreVCS = lastBool(args, true)
		case MethodFollowLinks:
			spec.FollowLinks = true
		case MethodFiles, MethodSortByName:
			// Finders only ever select files, in name order.
		}
	}

	return spec, nil
}

// ParseList parses a list of finder objects.
func ParseList(raw []any) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, issue.Config("The finder at index %d must be an object.", i)
		}
		spec, err := Parse(obj)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func arguments(method string, v any) ([]string, error) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	default:
		items = []any{t}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := scalar(item)
		if err != nil {
			return nil, issue.Config("The argument of \"Finder::%s\" is invalid: %v", method, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

func lastBool(args []string, def bool) bool {
	if len(args) == 0 {
		return def
	}
	switch args[len(args)-1] {
	case "false", "0", "":
		return false
	default:
		return true
	}
}

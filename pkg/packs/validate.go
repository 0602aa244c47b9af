package packs

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/patterns"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Validate checks the structure of a pack and reports every problem at
// once.
func Validate(pack *types.Pack) error {
	var result *multierror.Error

	if strings.TrimSpace(pack.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("pack name is required"))
	}
	if pack.IsEmpty() {
		result = multierror.Append(result, fmt.Errorf("pack must include local skills or imports"))
	}
	result = appendPatternErrors(result, "include", pack.Include)
	result = appendPatternErrors(result, "exclude", pack.Exclude)

	for i, imp := range pack.Imports {
		label := fmt.Sprintf("imports[%d]", i)
		if strings.TrimSpace(imp.Repo) == "" {
			result = multierror.Append(result, fmt.Errorf("%s: import repo is required", label))
		} else {
			label = fmt.Sprintf("%s (%s)", label, imp.Repo)
		}
		if len(imp.Include) == 0 {
			result = multierror.Append(result, fmt.Errorf("%s: import include must be non-empty", label))
		}
		result = appendPatternErrors(result, label+" include", imp.Include)
		result = appendPatternErrors(result, label+" exclude", imp.Exclude)
	}

	if pack.Install.Sep != nil && strings.Contains(*pack.Install.Sep, "/") {
		result = multierror.Append(result, fmt.Errorf("install.sep cannot contain '/'"))
	}
	if pack.Install.Prefix != nil && strings.Contains(*pack.Install.Prefix, "/") {
		result = multierror.Append(result, fmt.Errorf("install.prefix cannot contain '/'"))
	}

	if err := result.ErrorOrNil(); err != nil {
		name := pack.Name
		if name == "" {
			name = pack.Path
		}
		return errors.Wrapf(err, errors.ErrPackInvalid, "invalid pack %s", name).
			WithDetail("pack", pack.Name).
			WithDetail("problems", len(result.Errors)).
			WithHint("Fix the pack file: every pack needs a name and at least one include or import")
	}
	return nil
}

func appendPatternErrors(result *multierror.Error, field string, raws []string) *multierror.Error {
	for _, raw := range raws {
		if err := patterns.Validate(raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %s", field, errors.Message(err)))
		}
	}
	return result
}

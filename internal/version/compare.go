package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
)

// CheckConfigCompatibility reports whether a pipeline config written for
// configVersion can run on binaryVersion.
//
// Rules:
//   - "main" on either side skips the check
//   - major and minor must match
//   - patch may differ
//
// Examples:
//   - binary 0.4.2, config 0.4.0 -> OK
//   - binary 0.5.0, config 0.4.0 -> minor mismatch
//   - binary main, config 0.1.0 -> OK
func CheckConfigCompatibility(binaryVersion, configVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if binaryVersion == "main" || configVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid binary version '%s'", binaryVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if binarySemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "major version mismatch: binary is %d.x.x but config requires %d.x.x",
			binarySemver.Major(), configSemver.Major())
	}

	if binarySemver.Minor() != configSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "minor version mismatch: binary is %d.%d.x but config requires %d.%d.x",
			binarySemver.Major(), binarySemver.Minor(),
			configSemver.Major(), configSemver.Minor())
	}

	return nil
}

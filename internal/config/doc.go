// Package config loads analysis configuration: selection thresholds,
// matching radii, trigger emulation thresholds, the pipeline variant and run
// options. Files may be JSON or YAML; omitted fields take the defaults
// returned by the Get* accessors.
package config

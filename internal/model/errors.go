package model

import "errors"

// ErrConfiguration marks deployment/build defects: a feature-vector shape
// that does not match a loaded model, an out-of-range risk score reaching the
// decision engine, a missing required threshold. Errors wrapping this
// sentinel abort the whole pipeline run instead of being skipped per unit.
var ErrConfiguration = errors.New("configuration error")

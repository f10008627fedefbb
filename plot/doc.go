// Package plot is the thin column-extraction surface handed to
// plotting collaborators: a materialized table in, two named numeric
// columns out. Rendering itself lives outside this module.
package plot

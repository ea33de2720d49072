// Package reducer splits a buffer that is too large to process in one pass
// into contiguous sub-regions whose working set fits a byte budget, and
// merges the per-region outputs so the result matches single-pass output.
package reducer

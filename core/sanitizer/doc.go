// Package sanitizer provides string cleanup helpers for untrusted input.
// The racing layer runs upstream-supplied names and caller-supplied query
// values through these before using them.
//
//	name := sanitizer.CleanName(" Sale  \n Race 7 ")  // "Sale Race 7"
//	cat := sanitizer.TrimToLower(" Horse ")           // "horse"
package sanitizer

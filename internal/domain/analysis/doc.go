// Package analysis finds and classifies errors in JavaScript snippets.
//
// A run moves through three stages and stops at the first definitive one:
//
//	Validator  - parse and compile; failure gives SyntaxError
//	Scanner    - ordered text heuristics; a match gives PossibleIssue
//	Executor   - isolated evaluation; gives NoError or the raised error's name
//
// Every path ends in exactly one Result. Explanations come from a fixed
// taxonomy keyed by category; Lookup is total and falls back to a default
// for names it does not know.
//
// Example Usage:
//
//	analyzer := analysis.NewAnalyzer(executor).WithLogger(logger.Logger)
//	result := analyzer.Analyze(ctx, "null.foo;")
//	// result.Category == analysis.CategoryTypeError
package analysis

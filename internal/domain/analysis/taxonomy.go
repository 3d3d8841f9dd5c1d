package analysis

import "strings"

// Category labels an analysis outcome. Runtime faults use the JS error name,
// so unknown names pass through unchanged and fall back to the default
// explanation on lookup.
type Category string

const (
	CategoryChecking      Category = "Checking"
	CategorySyntaxError   Category = "SyntaxError"
	CategoryPossibleIssue Category = "PossibleIssue"
	CategoryNoError       Category = "NoError"

	CategoryError          Category = "Error"
	CategoryTypeError      Category = "TypeError"
	CategoryReferenceError Category = "ReferenceError"
	CategoryRangeError     Category = "RangeError"
	CategoryURIError       Category = "URIError"
	CategoryEvalError      Category = "EvalError"
	CategoryAggregateError Category = "AggregateError"
	CategoryDOMException   Category = "DOMException"
	CategoryTimeoutError   Category = "TimeoutError"
	CategoryRuntimeError   Category = "RuntimeError"
)

// Refinement keys. They never appear as a Category; they only select a
// more specific hint for a runtime or syntax fault.
const (
	KeySyntaxUnexpectedToken    = "SyntaxErrorUnexpectedToken"
	KeySyntaxUnexpectedEnd      = "SyntaxErrorUnexpectedEndOfInput"
	KeySyntaxMissingParenthesis = "SyntaxErrorMissingParenthesis"
	KeySyntaxMissingBracket     = "SyntaxErrorMissingBracket"
	KeySyntaxRegExp             = "SyntaxErrorRegExp"
	KeyReferenceNotDefined      = "ReferenceErrorNotDefined"
	KeyReferenceNotInitialized  = "ReferenceErrorNotInitialized"
	KeyTypeNotAFunction         = "TypeErrorNotAFunction"
	KeyTypeUndefined            = "TypeErrorUndefined"
	KeyTypeNull                 = "TypeErrorNull"
	KeyRangeStackOverflow       = "RangeErrorStackOverflow"
	KeyRangeInvalidLength       = "RangeErrorInvalidLength"
	KeyJSONError                = "JSONError"
	KeyPromiseRejection         = "PromiseRejection"
	KeyModuleError              = "ModuleError"
	KeyDefault                  = "Default"
)

const (
	DefaultExplanation = "Unknown error — please review your code."
	SuccessExplanation = "Everything looks good!"
	SuccessMessage     = "Your code ran successfully with no syntax/runtime issues!"
	CheckingMessage    = "Analyzing your code..."
	NoStackTrace       = "No stack trace available"
	EnvironmentFailure = "environment failure"
)

var explanations = map[string]string{
	string(CategorySyntaxError):    "Invalid syntax — missing bracket, comma, or similar issue.",
	string(CategoryError):          "A generic error was thrown by your code.",
	string(CategoryReferenceError): "Variable or function not declared before use. Declare it before using it.",
	string(CategoryTypeError):      "Operation on wrong type (e.g., calling a non-function or reading a property of null/undefined).",
	string(CategoryRangeError):     "Value outside valid range (like invalid array length or too much recursion).",
	string(CategoryURIError):       "Invalid or malformed URI sequence.",
	string(CategoryEvalError):      "Error using eval() function or dynamically built code.",
	string(CategoryAggregateError): "Multiple errors occurred together.",
	string(CategoryDOMException):   "Browser API or DOM access error.",
	string(CategoryTimeoutError):   "Execution took too long and was stopped — look for an infinite loop.",
	string(CategoryRuntimeError):   "A runtime error occurred during execution.",

	KeySyntaxUnexpectedToken:    "Unexpected token — missing comma or bracket.",
	KeySyntaxUnexpectedEnd:      "Code ended too early — missing closing bracket/quote.",
	KeySyntaxMissingParenthesis: "Missing parenthesis in expression.",
	KeySyntaxMissingBracket:     "Missing curly or square bracket.",
	KeySyntaxRegExp:             "Regular expression uses a pattern or flag the checker's engine cannot compile (for example the d flag).",
	KeyReferenceNotDefined:      "You used a variable before declaring it.",
	KeyReferenceNotInitialized:  "Accessed variable inside Temporal Dead Zone.",
	KeyTypeNotAFunction:         "You called something that is not a function.",
	KeyTypeUndefined:            "Cannot read property of undefined.",
	KeyTypeNull:                 "Cannot read property of null.",
	KeyRangeStackOverflow:       "Too much recursion — infinite loop.",
	KeyRangeInvalidLength:       "Invalid array length.",
	KeyJSONError:                "Error while parsing invalid JSON.",
	KeyPromiseRejection:         "Unhandled promise rejection.",
	KeyModuleError:              "Import/export module issue.",
	KeyDefault:                  DefaultExplanation,
}

// Lookup returns the explanation for a category or refinement key. It is
// total: unknown and empty keys yield the default explanation.
func Lookup(key string) string {
	if text, ok := explanations[key]; ok {
		return text
	}
	return DefaultExplanation
}

// Known reports whether the category has its own taxonomy entry.
func (c Category) Known() bool {
	_, ok := explanations[string(c)]
	return ok
}

// Explanation is Lookup keyed by the category.
func (c Category) Explanation() string {
	return Lookup(string(c))
}

// CategoryFromName maps a captured error name to a category. An absent name
// becomes RuntimeError; unrecognized names are carried as-is.
func CategoryFromName(name string) Category {
	name = strings.TrimSpace(name)
	if name == "" {
		return CategoryRuntimeError
	}
	return Category(name)
}

type refinement struct {
	key      string
	category Category
	needles  []string
}

// Ordered: the first refinement whose category matches and whose needle
// occurs in the lowercased message wins.
var refinements = []refinement{
	{KeySyntaxRegExp, CategorySyntaxError, []string{"regexp", "regular expression"}},
	{KeySyntaxUnexpectedEnd, CategorySyntaxError, []string{"unexpected end of input", "unexpected eof", "unterminated"}},
	{KeyModuleError, CategorySyntaxError, []string{"unexpected reserved word", "import", "export"}},
	{KeySyntaxMissingParenthesis, CategorySyntaxError, []string{"expected )", "missing )", "unexpected token )"}},
	{KeySyntaxMissingBracket, CategorySyntaxError, []string{"expected }", "expected ]", "missing }", "missing ]"}},
	{KeySyntaxUnexpectedToken, CategorySyntaxError, []string{"unexpected token", "unexpected identifier", "unexpected number", "unexpected string"}},
	{KeyReferenceNotInitialized, CategoryReferenceError, []string{"before initialization", "not initialized"}},
	{KeyReferenceNotDefined, CategoryReferenceError, []string{"is not defined"}},
	{KeyTypeNull, CategoryTypeError, []string{"of null"}},
	{KeyTypeUndefined, CategoryTypeError, []string{"of undefined"}},
	{KeyTypeNotAFunction, CategoryTypeError, []string{"is not a function", "not a function", "has no member"}},
	{KeyRangeStackOverflow, CategoryRangeError, []string{"maximum call stack", "stack size exceeded"}},
	{KeyRangeInvalidLength, CategoryRangeError, []string{"invalid array length"}},
	{KeyJSONError, CategoryEvalError, []string{"json"}},
}

// Refine picks the most specific taxonomy key for a fault message. It
// returns "" when no refinement applies.
func Refine(category Category, message string) string {
	lower := strings.ToLower(message)
	for _, r := range refinements {
		if r.category != category {
			continue
		}
		for _, needle := range r.needles {
			if strings.Contains(lower, needle) {
				return r.key
			}
		}
	}
	return ""
}

// Hint returns the refined explanation for a fault, or "" if none applies.
func Hint(category Category, message string) string {
	if key := Refine(category, message); key != "" {
		return Lookup(key)
	}
	return ""
}

// Package errors provides structured, actionable error messages for
// the rebind CLI and configuration layer.
//
// The errors package implements an error system that:
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues, with examples where they help
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - config: rebind.json problems (malformed JSON, bad values)
//   - scenario: scenario file problems (parse failures, bad steps)
//   - feed: websocket feed problems (connection, snapshot, publish)
//   - cli: command invocation problems (missing arguments, bad paths)
//   - runtime: everything else
//
// # Error Codes
//
// Each error has a unique code (e.g., "E101") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail("No rebind.json found in " + dir).
//	    WithSuggestion("Create rebind.json or pass --config")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Configuration file not found
//	//
//	//   No rebind.json found in /home/dev/project
//	//
//	//   Hint: Create rebind.json or pass --config
//	//
//	//   Learn more: https://rebind.dev/docs/errors/E101
package errors

// Package errors provides the classified error primitives shared by every
// ADocS stage.
//
// A ClassifiedError carries a category (metadata, structure, content, ...),
// a severity and a retry strategy. Stages build them with the fluent
// builder and the CLI maps them to exit codes through CLIErrorAdapter.
//
//	err := errors.NewError(errors.CategoryStructure, "orphan node").
//		WithContext("slug", slug).
//		Warning().
//		Build()
package errors

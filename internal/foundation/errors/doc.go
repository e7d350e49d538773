// Package errors provides the classified error primitives used across tripsite.
//
// A ClassifiedError carries a category (config, content, asset, feed, ...), a
// severity and a small structured context map. Errors are built with the fluent
// ErrorBuilder:
//
//	err := errors.NewError(errors.CategoryContent, "hero image not found").
//		WithContext("item", item.ID).
//		WithContext("hero_image", ref).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors

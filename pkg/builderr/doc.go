// Package builderr defines the structured errors returned by the bundling
// pipeline.
//
// Every failure is tagged with a Kind naming the stage that failed, plus the
// module identity and import specifier when they are known:
//
//	err := builderr.New(builderr.KindResolution).
//		Module("./src/index.js").
//		Specifier("./missing").
//		Detail("no such file").
//		Build()
//
// Errors match their kind's sentinel with errors.Is:
//
//	if errors.Is(err, builderr.ErrResolution) { ... }
package builderr

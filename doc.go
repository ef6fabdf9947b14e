// Package lambdawg implements the compiler front- and middle-end for the
// Lambdawg language: a lexer, a recursive-descent/Pratt parser, a
// Hindley-Milner type inferer with row-open records, a JavaScript emitter,
// and the driver that sequences them.
//
//	result := lambdawg.Compile(`let x = 42`, lambdawg.Options{})
//	if !result.Success {
//	    for _, d := range result.Errors {
//	        fmt.Println(d.Error())
//	    }
//	}
//	fmt.Println(result.Code)
//
// The browser playground, CLI argument parsing, file I/O, the diagnostic
// pretty-printer and the emitted runtime prelude's arithmetic bodies are
// not part of this package; it consumes source text and produces text and
// structured records only.
package lambdawg

package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// Example demonstrates basic error creation.
func Example() {
	err := errors.New(errors.ErrorTypeConfig, "threshold must be in (0, 1]").
		WithDetail("threshold", 1.5)

	fmt.Println(err.Error())

	// Output:
	// config: threshold must be in (0, 1]
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeParse, "failed to read workbook").
		WithDetail("file", "Base_Producao.xlsx")

	if errors.IsType(err, errors.ErrorTypeParse) {
		fmt.Println("This is a parse error")
	}
	fmt.Println(err)

	// Output:
	// This is a parse error
	// parse: failed to read workbook: unexpected EOF
}

// ExampleSourceNotFound shows how the missing-source condition is detected
// through wrapping layers.
func ExampleSourceNotFound() {
	err := errors.Wrap(errors.SourceNotFound("missing.xlsx"), errors.ErrorTypeInternal, "conversion failed")

	fmt.Printf("outermost is not_found: %v\n", errors.IsType(err, errors.ErrorTypeNotFound))
	fmt.Printf("source not found: %v\n", errors.IsSourceNotFound(err))

	// Output:
	// outermost is not_found: false
	// source not found: true
}

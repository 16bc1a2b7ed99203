package display

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrettyPrintJSON prints formatted JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(w, Paint(Red, "Error formatting JSON: "+err.Error()))
		return
	}
	fmt.Fprintln(w, string(data))
}

// Errorf prints a red error line
func Errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Paint(Red, fmt.Sprintf(format, args...)))
}

// Package render substitutes campaign variables into template subjects and
// bodies. Placeholders are double-curly tokens; several literal spellings of
// the same logical variable (accented/unaccented, capitalized/lowercase) are
// in circulation in stored templates, so the alias list is data, not code.
package render

import "strings"

// Logical variable names accepted in a Vars map.
const (
	VarFirstName      = "first_name"
	VarYear           = "year"
	VarNextYear       = "next_year"
	VarOrganization   = "organization"
	VarAccountManager = "account_manager"
)

// Vars maps logical variable names to replacement values. A recognized token
// whose variable is missing from the map renders as the empty string.
type Vars map[string]string

// varOrder fixes substitution order so rendering is deterministic.
var varOrder = []string{
	VarFirstName,
	VarYear,
	VarNextYear,
	VarOrganization,
	VarAccountManager,
}

// aliases lists every literal token spelling per logical variable. All of
// them appear in production templates; all must be substituted.
var aliases = map[string][]string{
	VarFirstName: {
		"{{nombre}}", "{{Nombre}}", "{{name}}", "{{Name}}",
	},
	VarYear: {
		"{{año}}", "{{Año}}", "{{ano}}", "{{Ano}}", "{{year}}",
	},
	VarNextYear: {
		"{{añoSiguiente}}", "{{AñoSiguiente}}", "{{anoSiguiente}}", "{{AnoSiguiente}}", "{{nextYear}}",
	},
	VarOrganization: {
		"{{empresa}}", "{{Empresa}}", "{{organizacion}}", "{{organización}}",
	},
	VarAccountManager: {
		"{{nombreAE}}",
	},
}

// Render replaces every recognized placeholder token in raw with its
// variable's value (empty string when the variable is unset). Replacement is
// literal and global; unrecognized tokens are left untouched.
func Render(raw string, vars Vars) string {
	out := raw
	for _, name := range varOrder {
		value := vars[name]
		for _, token := range aliases[name] {
			out = strings.ReplaceAll(out, token, value)
		}
	}
	return out
}

// CleanSignature normalizes a stored signature value: trims surrounding
// whitespace, strips one layer of wrapping double quotes, and decodes the
// literal \n, \r and \/ escape sequences the settings UI leaves behind.
func CleanSignature(raw string) string {
	sig := strings.TrimSpace(raw)
	if len(sig) >= 2 && strings.HasPrefix(sig, `"`) && strings.HasSuffix(sig, `"`) {
		sig = sig[1 : len(sig)-1]
	}
	sig = strings.ReplaceAll(sig, `\n`, "\n")
	sig = strings.ReplaceAll(sig, `\r`, "\r")
	sig = strings.ReplaceAll(sig, `\/`, "/")
	return sig
}

// WithSignature appends a cleaned signature verbatim to an already rendered
// body. Signature content is never scanned for placeholders.
func WithSignature(body, signature string) string {
	return body + signature
}

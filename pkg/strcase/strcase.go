package strcase

import "strings"

// ToSnake converts a camelCase field name to its snake_case column form.
// Each uppercase letter becomes an underscore followed by its lowercase
// form, so "gstFilingStatus" maps to "gst_filing_status" and "eInvoiceNumber"
// to "e_invoice_number". Existing underscores pass through unchanged.
//
// Runs of uppercase letters are split letter by letter ("invoiceID" becomes
// "invoice_i_d"), which keeps ToCamel(ToSnake(s)) == s for every
// underscore-free identifier rather than guessing at acronym boundaries.
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// ToCamel converts a snake_case column name back to its camelCase field
// form. An underscore followed by a lowercase letter is dropped and the
// letter uppercased. An underscore before a digit stays put: camelCase has
// no way to mark that boundary, so dropping it would turn "address_2" into
// "address2" and break ToSnake(ToCamel(c)) == c for digit-bearing columns.
// Trailing or doubled underscores are kept as-is so malformed names stay
// recognizable instead of silently collapsing.
func ToCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	upper := false
	for _, r := range s {
		if r == '_' {
			if upper {
				// Doubled underscore: emit the pending one literally.
				b.WriteByte('_')
			}
			upper = true
			continue
		}
		if upper {
			upper = false
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r - 'a' + 'A')
				continue
			}
			if r >= '0' && r <= '9' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	if upper {
		b.WriteByte('_')
	}

	return b.String()
}

// Package negative rejects scanner candidates that look like something other
// than a field value: dates, percentages, currency amounts, numbers glued to
// a masked tax ID, checksum-valid CPF/CNPJ, known static codes, and runs of
// one repeated digit. Rejections are silent; Filter only counts them.
package negative

// Package taxid masks and validates Brazilian taxpayer identifiers.
//
// CPF (11 digits, individuals) and CNPJ (14 digits, companies) numbers are
// printed all over contract boilerplate and share digit lengths with the
// consumer-unit codes the extractor is after. Mask replaces them with a fixed
// placeholder before any numeric scan runs, so later stages never harvest
// tax-ID fragments. IsValidCPF and IsValidCNPJ implement the official
// weighted-sum modulo-11 check; they are pure and never panic.
package taxid

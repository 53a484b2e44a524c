package rules

import "regexp"

// DefaultName is the rule set every unresolved label falls back to.
const DefaultName = "default"

// Shared anchor fragments. All anchor patterns compile case-insensitive.
const (
	numberMark   = `n(?:[º°o]\.?|[uú]mero|r\.?|\.)\s*`
	codeMark     = `c[óo]d(?:igo|\.)?\s*`
	installation = `instala[çc](?:[ãa]o|[õo]es)`
	consumerUnit = `(?:unidade\s+consumidora|UC)\b`
)

var (
	installationNumber = mustAnchor("Nº da Instalação", `\b`+numberMark+`(?:d[ao]s?\s+)?`+installation, SpecificityExact)
	installationCode   = mustAnchor("Código da Instalação", `\b`+codeMark+`(?:d[aeo]\s+)?`+installation, SpecificityExact)
	consumerUnitNumber = mustAnchor("Nº da Unidade Consumidora", `\b`+numberMark+`(?:d[ao]\s+)?`+consumerUnit, SpecificityExact)
	consumerUnitCode   = mustAnchor("Código da Unidade Consumidora", `\b`+codeMark+`(?:d[ao]\s+)?`+consumerUnit, SpecificityExact)
	installationLabel  = mustAnchor("Instalação", `\binstala[çc][ãa]o\b`, SpecificityLabel)
	consumerUnitLabel  = mustAnchor("Unidade Consumidora", `\bunidade\s+consumidora\b`, SpecificityLabel)
	ucGeneric          = mustAnchor("UC", `\bUCs?\b`, SpecificityGeneric)
	deliveryPoint      = mustAnchor("Ponto de Entrega", `\bponto\s+de\s+(?:entrega|consumo)\b`, SpecificityGeneric)

	customerNumber   = mustAnchor("Nº do Cliente", `\b`+numberMark+`(?:d[oa]\s+)?cliente\b`, SpecificityExact)
	customerCode     = mustAnchor("Código do Cliente", `\b`+codeMark+`(?:d[oa]\s+)?cliente\b`, SpecificityExact)
	accountContract  = mustAnchor("Conta Contrato", `\bconta\s+contrato\b`, SpecificityLabel)
	consumerCode     = mustAnchor("Código do Consumidor", `\b`+codeMark+`(?:d[oa]\s+)?consumidor\b`, SpecificityLabel)
	accountNumber    = mustAnchor("Nº da Conta", `\b`+numberMark+`(?:d[ao]\s+)?conta\b`, SpecificityLabel)
	contractAsUC     = mustAnchor("Conta Contrato", `\b(?:`+numberMark+`(?:d[ao]\s+)?)?conta\s+contrato\b`, SpecificityExact)
	contractCustomer = mustAnchor("Parceiro de Negócio", `\bparceiro\s+(?:de\s+)?neg[óo]cios?\b`, SpecificityLabel)
)

func standardInstallationAnchors() []Anchor {
	return []Anchor{
		installationNumber, installationCode, consumerUnitNumber, consumerUnitCode,
		installationLabel, consumerUnitLabel, ucGeneric, deliveryPoint,
	}
}

func standardCustomerAnchors() []Anchor {
	return []Anchor{customerNumber, customerCode, accountContract, consumerCode, accountNumber}
}

// contractAccountInstallationAnchors serves distributors whose bills print the
// UC as "Conta Contrato"; the business-partner number is the customer code.
func contractAccountInstallationAnchors() []Anchor {
	return append(standardInstallationAnchors(), contractAsUC)
}

func contractAccountCustomerAnchors() []Anchor {
	return []Anchor{customerNumber, customerCode, consumerCode, contractCustomer}
}

// Builtin returns fresh copies of the built-in rule sets, default first.
func Builtin() []*RuleSet {
	return []*RuleSet{
		{
			Name:                 DefaultName,
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{7,10}`),
			InstallationLength:   LengthRange{Min: 6, Max: 12},
			CustomerLength:       LengthRange{Min: 6, Max: 12},
		},
		{
			Name:                 "cemig",
			Aliases:              []string{"cemig d", "cemig distribuicao", "companhia energetica de minas gerais"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`3\d{9}`),
			CustomerPatterns:     patterns(`\d{7,9}`),
			InstallationLength:   LengthRange{Min: 8, Max: 10},
			CustomerLength:       LengthRange{Min: 7, Max: 10},
			PreferredLengths:     []int{10},
			StaticExclusions:     []string{"30190131"},
		},
		{
			Name:                 "cpfl",
			Aliases:              []string{"cpfl paulista", "cpfl piratininga", "cpfl santa cruz", "rge", "rge sul", "companhia paulista de forca e luz"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{8,10}`),
			InstallationLength:   LengthRange{Min: 7, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
			PreferredLengths:     []int{8, 9, 10},
		},
		{
			Name:                 "enel",
			Aliases:              []string{"enel rj", "enel ce", "enel sp", "enel distribuicao", "ampla", "coelce", "eletropaulo"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{7,10}`, `\d{6,9}-\d`),
			InstallationLength:   LengthRange{Min: 7, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
		},
		{
			Name:                 "light",
			Aliases:              []string{"light sesa", "light servicos de eletricidade", "light s a"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{9,10}`),
			InstallationLength:   LengthRange{Min: 8, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
			PreferredLengths:     []int{9, 10},
		},
		{
			Name:                 "copel",
			Aliases:              []string{"copel distribuicao", "companhia paranaense de energia"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{8,9}`),
			InstallationLength:   LengthRange{Min: 7, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
			PreferredLengths:     []int{8, 9},
		},
		{
			Name:                 "celesc",
			Aliases:              []string{"celesc distribuicao", "centrais eletricas de santa catarina"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{7,10}`),
			InstallationLength:   LengthRange{Min: 6, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
		},
		{
			Name:                 "equatorial",
			Aliases:              []string{"equatorial energia", "equatorial para", "equatorial maranhao", "equatorial piaui", "equatorial alagoas", "celpa", "cemar", "cepisa", "ceal"},
			InstallationAnchors:  contractAccountInstallationAnchors(),
			CustomerAnchors:      contractAccountCustomerAnchors(),
			InstallationPatterns: patterns(`\d{8,12}`),
			InstallationLength:   LengthRange{Min: 7, Max: 12},
			CustomerLength:       LengthRange{Min: 6, Max: 12},
		},
		{
			Name:                 "neoenergia",
			Aliases:              []string{"coelba", "celpe", "cosern", "elektro", "neoenergia brasilia"},
			InstallationAnchors:  contractAccountInstallationAnchors(),
			CustomerAnchors:      contractAccountCustomerAnchors(),
			InstallationPatterns: patterns(`\d{9,12}`),
			InstallationLength:   LengthRange{Min: 7, Max: 12},
			CustomerLength:       LengthRange{Min: 6, Max: 12},
			PreferredLengths:     []int{10, 11, 12},
		},
		{
			Name:                 "energisa",
			Aliases:              []string{"energisa mt", "energisa ms", "energisa to", "energisa pb", "energisa se", "energisa mg", "energisa sul sudeste"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{6,8}-\d`, `\d{7,9}`),
			InstallationLength:   LengthRange{Min: 6, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
		},
		{
			Name:                 "edp",
			Aliases:              []string{"edp espirito santo", "edp sao paulo", "escelsa", "bandeirante", "edp brasil"},
			InstallationAnchors:  standardInstallationAnchors(),
			CustomerAnchors:      standardCustomerAnchors(),
			InstallationPatterns: patterns(`\d{9,10}`),
			InstallationLength:   LengthRange{Min: 8, Max: 10},
			CustomerLength:       LengthRange{Min: 6, Max: 10},
		},
	}
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, mustWholeToken(expr))
	}
	return out
}

package scanner_test

import (
	"strings"
	"testing"
	"time"

	"ucextract/internal/rules"
	"ucextract/internal/scanner"
)

func defaultRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	return rules.MustBuiltin().Default()
}

func values(cands []scanner.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Value+":"+string(c.Kind))
	}
	return out
}

func TestScanAnchored(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "two installation anchors in order",
			text: "Nº da Instalação: 1234567 Nº da Instalação: 7654321",
			want: []string{"1234567:INSTALLATION", "7654321:INSTALLATION"},
		},
		{
			name: "installation and customer",
			text: "CNPJ: [TAXID] ... Nº da Instalação: 40112233 ... Nº do Cliente: 7011223",
			want: []string{"40112233:INSTALLATION", "7011223:CUSTOMER"},
		},
		{
			name: "stacked labels share a value",
			text: "Nº da Instalação / Nº do Cliente: 40112233",
			want: []string{"40112233:INSTALLATION"},
		},
		{
			name: "masked installation does not steal customer value",
			text: "Nº da Instalação: [TAXID] Nº do Cliente: 7011223",
			want: []string{"7011223:CUSTOMER"},
		},
		{
			name: "short tokens skipped",
			text: "Nº da Instalação (item 3): 40112233",
			want: []string{"40112233:INSTALLATION"},
		},
		{
			name: "formatted token keeps digits",
			text: "Código da Instalação 4011.223-3",
			want: []string{"40112233:INSTALLATION"},
		},
		{
			name: "value before label",
			text: "40112233 (Nº da Instalação)",
			want: []string{"40112233:INSTALLATION"},
		},
		{
			name: "outside window",
			text: "Nº da Instalação:" + strings.Repeat(" ", 200) + "40112233",
			want: []string{},
		},
		{
			name: "no anchors",
			text: "valor 40112233 sem rótulo",
			want: []string{},
		},
		{
			name: "same code at three anchors",
			text: "Nº da Instalação 40112233. Unidade consumidora 40112233. UC 40112233",
			want: []string{"40112233:INSTALLATION", "40112233:INSTALLATION", "40112233:INSTALLATION"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := values(scanner.ScanAnchored(tt.text, defaultRules(t), scanner.DefaultOptions()))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("ScanAnchored() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanAnchoredBackwardPenalty(t *testing.T) {
	rs := defaultRules(t)
	forward := scanner.ScanAnchored("Nº da Instalação 40112233", rs, scanner.DefaultOptions())
	backward := scanner.ScanAnchored("40112233 Nº da Instalação", rs, scanner.DefaultOptions())
	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("expected one candidate each, got %d and %d", len(forward), len(backward))
	}
	if forward[0].Backward || !backward[0].Backward {
		t.Fatal("unexpected direction flags")
	}
	if backward[0].Confidence >= forward[0].Confidence {
		t.Fatalf("backward confidence %v should be below forward %v", backward[0].Confidence, forward[0].Confidence)
	}
}

func TestScanAnchoredConfidence(t *testing.T) {
	rs := defaultRules(t)
	exact := scanner.ScanAnchored("Nº da Instalação: 40112233", rs, scanner.DefaultOptions())
	label := scanner.ScanAnchored("instalação 40112233", rs, scanner.DefaultOptions())
	generic := scanner.ScanAnchored("UC 40112233", rs, scanner.DefaultOptions())
	if len(exact) != 1 || len(label) != 1 || len(generic) != 1 {
		t.Fatal("expected one candidate per text")
	}
	if exact[0].Specificity != rules.SpecificityExact || exact[0].Anchor != "Nº da Instalação" {
		t.Fatalf("expected the exact anchor to win, got %s %q", exact[0].Specificity, exact[0].Anchor)
	}
	if !(exact[0].Confidence > label[0].Confidence && label[0].Confidence > generic[0].Confidence) {
		t.Fatalf("confidence should follow specificity: %v %v %v", exact[0].Confidence, label[0].Confidence, generic[0].Confidence)
	}
	for _, c := range []scanner.Candidate{exact[0], label[0], generic[0]} {
		if c.Confidence <= 0 || c.Confidence > 1 {
			t.Fatalf("confidence %v out of range", c.Confidence)
		}
	}

	near := scanner.ScanAnchored("Nº da Instalação: 40112233", rs, scanner.DefaultOptions())
	far := scanner.ScanAnchored("Nº da Instalação:"+strings.Repeat(" ", 80)+"40112233", rs, scanner.DefaultOptions())
	if far[0].Confidence >= near[0].Confidence {
		t.Fatalf("distant value should score lower: near %v far %v", near[0].Confidence, far[0].Confidence)
	}
}

func TestScanAnchoredPreferredLength(t *testing.T) {
	cemig, _ := rules.MustBuiltin().Lookup("cemig")
	usual := scanner.ScanAnchored("Nº da Instalação: 3012345678", cemig, scanner.DefaultOptions())
	unusual := scanner.ScanAnchored("Nº da Instalação: 30123456", cemig, scanner.DefaultOptions())
	if len(usual) != 1 || len(unusual) != 1 {
		t.Fatal("expected one candidate each")
	}
	if unusual[0].Confidence >= usual[0].Confidence {
		t.Fatalf("unusual length should score lower: %v vs %v", unusual[0].Confidence, usual[0].Confidence)
	}
}

func TestScanAnchoredCustomWindow(t *testing.T) {
	text := "Nº da Instalação:" + strings.Repeat(" ", 30) + "40112233"
	got := scanner.ScanAnchored(text, defaultRules(t), scanner.Options{Window: 10})
	if len(got) != 0 {
		t.Fatalf("expected no candidates with a narrow window, got %v", values(got))
	}
}

func TestScanAnchoredManyAnchors(t *testing.T) {
	text := strings.Repeat("Instalação UC Cliente ", 20000) + " 40112233"
	start := time.Now()
	got := scanner.ScanAnchored(text, defaultRules(t), scanner.DefaultOptions())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("scan of %d bytes took %s", len(text), elapsed)
	}
	if len(got) != 1 || got[0].Value != "40112233" {
		t.Fatalf("got %v, want the single trailing code", values(got))
	}
}

func TestScanAnchoredNilInputs(t *testing.T) {
	if got := scanner.ScanAnchored("Nº da Instalação 1234567", nil, scanner.DefaultOptions()); got != nil {
		t.Fatal("expected nil for nil rule set")
	}
	if got := scanner.ScanAnchored("", defaultRules(t), scanner.DefaultOptions()); got != nil {
		t.Fatal("expected nil for empty text")
	}
}

func TestScanFallback(t *testing.T) {
	got := scanner.ScanFallback("ref 40112233 e 12.345.678 e 1234567890123 e 123", defaultRules(t), scanner.DefaultOptions())
	if len(got) != 1 || got[0].Value != "40112233" || got[0].Kind != scanner.KindInstallation {
		t.Fatalf("ScanFallback() = %v", values(got))
	}
	if got[0].Strategy != scanner.StrategyFallback || got[0].Confidence > scanner.DefaultFallbackConfidence {
		t.Fatalf("unexpected fallback candidate %+v", got[0])
	}

	cemig, _ := rules.MustBuiltin().Lookup("cemig")
	got = scanner.ScanFallback("3012345678 e 7011223", cemig, scanner.DefaultOptions())
	want := []string{"3012345678:INSTALLATION", "7011223:CUSTOMER"}
	if strings.Join(values(got), ",") != strings.Join(want, ",") {
		t.Fatalf("ScanFallback(cemig) = %v, want %v", values(got), want)
	}
}
